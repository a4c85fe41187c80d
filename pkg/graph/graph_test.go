package graph

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"
)

func TestGraphRoundTrip(t *testing.T) {
	g := &Graph{
		Nodes: []*Node{
			{ID: "b", Label: "rank", Type: TypeLLMCall, SourceRef: "rank.py:10"},
			{ID: "a", Label: "load", Type: TypeFunction},
		},
		Edges: []Edge{{Source: "a", Target: "b", Label: "feeds"}},
		Workflows: []Workflow{
			{ID: "w1", Name: "Ranking", NodeIDs: []string{"a", "b"}},
		},
	}

	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}

	got, err := ReadGraph(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}

	if len(got.Nodes) != 2 || len(got.Edges) != 1 || len(got.Workflows) != 1 {
		t.Fatalf("round trip lost members: %+v", got)
	}
	// Marshal sorts nodes by ID.
	if got.Nodes[0].ID != "a" || got.Nodes[1].ID != "b" {
		t.Errorf("node order = [%s %s], want [a b]", got.Nodes[0].ID, got.Nodes[1].ID)
	}
	if got.Edges[0].Label != "feeds" {
		t.Errorf("edge label = %q, want feeds", got.Edges[0].Label)
	}
}

func TestMarshalGraphDeterministic(t *testing.T) {
	a := &Graph{
		Nodes: []*Node{{ID: "x"}, {ID: "y"}},
		Edges: []Edge{{Source: "x", Target: "y"}, {Source: "y", Target: "x"}},
	}
	b := &Graph{
		Nodes: []*Node{{ID: "y"}, {ID: "x"}},
		Edges: []Edge{{Source: "y", Target: "x"}, {Source: "x", Target: "y"}},
	}

	da, err := MarshalGraph(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := MarshalGraph(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(da, db) {
		t.Error("marshal output depends on member order")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := chainGraph()
	c := g.Clone()
	c.Nodes[0].Label = "mutated"
	c.Workflows[0].NodeIDs[0] = "mutated"
	if g.Nodes[0].Label == "mutated" {
		t.Error("Clone shares node pointers")
	}
	if g.Workflows[0].NodeIDs[0] == "mutated" {
		t.Error("Clone shares workflow node ID slices")
	}
}

func TestLayoutFileRoundTrip(t *testing.T) {
	l := &Layout{
		Width:  640,
		Height: 480,
		Groups: []*WorkflowGroup{
			{
				ID:     "w1",
				Name:   "Pipeline",
				Nodes:  []*Node{{ID: "a", X: 100, Y: 80, Width: 140, Height: 60}},
				Bounds: &Rect{X: 0, Y: 0, Width: 320, Height: 240},
			},
		},
		Routes: map[string]EdgeRoute{
			RouteKey("w1", "a", "b"): {
				StartPoint: Point{X: 100, Y: 110},
				EndPoint:   Point{X: 100, Y: 180},
				BendPoints: []Point{{X: 100, Y: 140}},
			},
		},
		Labels: map[string]Point{RouteKey("w1", "a", "b"): {X: 108, Y: 145}},
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}

	if got.Width != 640 || got.Height != 480 {
		t.Errorf("canvas = %gx%g, want 640x480", got.Width, got.Height)
	}
	route, ok := got.Routes[RouteKey("w1", "a", "b")]
	if !ok {
		t.Fatal("route missing after round trip")
	}
	if len(route.Points()) != 3 {
		t.Errorf("route points = %d, want 3", len(route.Points()))
	}
}

func TestRectGeometry(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}

	if got := r.Inflate(5); got.X != 5 || got.Width != 110 {
		t.Errorf("Inflate = %+v", got)
	}
	if !r.Intersects(Rect{X: 100, Y: 60, Width: 20, Height: 20}) {
		t.Error("expected overlap")
	}
	if r.Intersects(Rect{X: 110, Y: 20, Width: 10, Height: 10}) {
		t.Error("touching rectangles must not count as overlapping")
	}

	u := r.Union(Rect{X: 0, Y: 0, Width: 5, Height: 5})
	if u.X != 0 || u.Y != 0 || u.Right() != 110 || u.Bottom() != 70 {
		t.Errorf("Union = %+v", u)
	}

	rounded := Rect{X: 1.4, Y: 2.6, Width: 3.5, Height: 4.4}.Round()
	if rounded.X != 1 || rounded.Y != 3 || rounded.Width != 4 || rounded.Height != 4 {
		t.Errorf("Round = %+v", rounded)
	}
	// math.Round rounds half away from zero.
	if p := (Point{X: 0.5, Y: -0.5}).Round(); math.Abs(p.X-1) > 0 || p.Y != -1 {
		t.Errorf("Point.Round = %+v", p)
	}
}
