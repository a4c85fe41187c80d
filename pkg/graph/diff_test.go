package graph

import "testing"

func chainGraph() *Graph {
	return &Graph{
		Nodes: []*Node{
			{ID: "a", Label: "fetch", Type: TypeFunction},
			{ID: "b", Label: "summarize", Type: TypeLLMCall},
		},
		Edges: []Edge{{Source: "a", Target: "b"}},
		Workflows: []Workflow{
			{ID: "w1", Name: "Summarizer", NodeIDs: []string{"a", "b"}},
		},
	}
}

func TestDiffIdentical(t *testing.T) {
	g := chainGraph()
	d := Diff(g, g.Clone())
	if d.HasDiff() {
		t.Fatalf("Diff(G, G).HasDiff() = true, want false: %+v", d)
	}
	if d.Destructive() {
		t.Error("Diff(G, G).Destructive() = true, want false")
	}
}

func TestDiffAdditive(t *testing.T) {
	old := chainGraph()
	new := chainGraph()
	new.Nodes = append(new.Nodes, &Node{ID: "c", Label: "store", Type: TypeTool})
	new.Edges = append(new.Edges, Edge{Source: "b", Target: "c"})

	d := Diff(old, new)
	if !d.HasDiff() {
		t.Fatal("HasDiff() = false, want true")
	}
	if d.Destructive() {
		t.Error("Destructive() = true for an additive diff")
	}
	if len(d.Nodes.Added) != 1 || d.Nodes.Added[0].ID != "c" {
		t.Errorf("nodes added = %v, want [c]", d.Nodes.Added)
	}
	if len(d.Edges.Added) != 1 || d.Edges.Added[0].Key() != "b->c" {
		t.Errorf("edges added = %v, want [b->c]", d.Edges.Added)
	}
	for _, got := range []int{
		len(d.Nodes.Removed), len(d.Nodes.Updated),
		len(d.Edges.Removed), len(d.Edges.Updated),
		len(d.Workflows.Added), len(d.Workflows.Removed), len(d.Workflows.Updated),
	} {
		if got != 0 {
			t.Fatalf("unexpected non-empty diff set: %+v", d)
		}
	}
}

func TestDiffUpdates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Graph)
		check  func(t *testing.T, d *GraphDiff)
	}{
		{
			name:   "NodeLabelChange",
			mutate: func(g *Graph) { g.Nodes[0].Label = "fetch_v2" },
			check: func(t *testing.T, d *GraphDiff) {
				if len(d.Nodes.Updated) != 1 || d.Nodes.Updated[0].ID != "a" {
					t.Errorf("nodes updated = %v, want [a]", d.Nodes.Updated)
				}
			},
		},
		{
			name:   "NodeSourceRefChange",
			mutate: func(g *Graph) { g.Nodes[1].SourceRef = "app/chain.py:42" },
			check: func(t *testing.T, d *GraphDiff) {
				if len(d.Nodes.Updated) != 1 {
					t.Errorf("nodes updated = %v, want one entry", d.Nodes.Updated)
				}
			},
		},
		{
			name: "PositionChangeIgnored",
			mutate: func(g *Graph) {
				g.Nodes[0].X, g.Nodes[0].Y = 120, 240
				g.Nodes[0].Width, g.Nodes[0].Height = 160, 60
			},
			check: func(t *testing.T, d *GraphDiff) {
				if d.HasDiff() {
					t.Errorf("position-only change produced a diff: %+v", d)
				}
			},
		},
		{
			name:   "EdgeLabelChange",
			mutate: func(g *Graph) { g.Edges[0].Label = "calls" },
			check: func(t *testing.T, d *GraphDiff) {
				if len(d.Edges.Updated) != 1 {
					t.Errorf("edges updated = %v, want one entry", d.Edges.Updated)
				}
			},
		},
		{
			name:   "WorkflowNameChange",
			mutate: func(g *Graph) { g.Workflows[0].Name = "Summarizer v2" },
			check: func(t *testing.T, d *GraphDiff) {
				if len(d.Workflows.Updated) != 1 {
					t.Errorf("workflows updated = %v, want one entry", d.Workflows.Updated)
				}
			},
		},
		{
			name: "WorkflowMembershipReorderIgnored",
			mutate: func(g *Graph) {
				g.Workflows[0].NodeIDs = []string{"b", "a"}
			},
			check: func(t *testing.T, d *GraphDiff) {
				if d.HasDiff() {
					t.Errorf("membership reorder produced a diff: %+v", d)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := chainGraph()
			new := chainGraph()
			tt.mutate(new)
			tt.check(t, Diff(old, new))
		})
	}
}

func TestDiffRemovalIsDestructive(t *testing.T) {
	old := chainGraph()
	new := chainGraph()
	new.Nodes = new.Nodes[:1]
	new.Edges = nil

	d := Diff(old, new)
	if !d.Destructive() {
		t.Fatal("Destructive() = false after node removal")
	}
	if len(d.Nodes.Removed) != 1 || d.Nodes.Removed[0].ID != "b" {
		t.Errorf("nodes removed = %v, want [b]", d.Nodes.Removed)
	}
	if len(d.Edges.Removed) != 1 {
		t.Errorf("edges removed = %v, want one entry", d.Edges.Removed)
	}
}

// Applying the added/removed sets of Diff(A, B) to A must reconstruct B's
// membership, ignoring position fields.
func TestDiffRoundTrip(t *testing.T) {
	old := chainGraph()
	new := chainGraph()
	new.Nodes = append(new.Nodes[:1], &Node{ID: "c"}, &Node{ID: "d"})
	new.Edges = []Edge{{Source: "c", Target: "d"}}

	d := Diff(old, new)

	ids := make(map[string]bool)
	for _, n := range old.Nodes {
		ids[n.ID] = true
	}
	for _, n := range d.Nodes.Added {
		ids[n.ID] = true
	}
	for _, n := range d.Nodes.Removed {
		delete(ids, n.ID)
	}

	want := make(map[string]bool)
	for _, n := range new.Nodes {
		want[n.ID] = true
	}
	if len(ids) != len(want) {
		t.Fatalf("reconstructed node set = %v, want %v", ids, want)
	}
	for id := range want {
		if !ids[id] {
			t.Errorf("reconstructed set missing %q", id)
		}
	}

	keys := make(map[string]bool)
	for _, e := range old.Edges {
		keys[e.Key()] = true
	}
	for _, e := range d.Edges.Added {
		keys[e.Key()] = true
	}
	for _, e := range d.Edges.Removed {
		delete(keys, e.Key())
	}
	if len(keys) != 1 || !keys["c->d"] {
		t.Errorf("reconstructed edge set = %v, want [c->d]", keys)
	}
}

func TestDiffNilSnapshots(t *testing.T) {
	g := chainGraph()
	d := Diff(nil, g)
	if len(d.Nodes.Added) != len(g.Nodes) {
		t.Errorf("nodes added = %d, want %d", len(d.Nodes.Added), len(g.Nodes))
	}
	d = Diff(g, nil)
	if len(d.Nodes.Removed) != len(g.Nodes) {
		t.Errorf("nodes removed = %d, want %d", len(d.Nodes.Removed), len(g.Nodes))
	}
	d = Diff(nil, nil)
	if d.HasDiff() {
		t.Error("Diff(nil, nil).HasDiff() = true")
	}
}
