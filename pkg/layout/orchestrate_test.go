package layout

import (
	"context"
	"strings"
	"testing"

	"github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/graph"
)

// grid stacks nodes in one column in input order with a 20px gap and routes
// every edge as a two-point line between box edges.
func grid(in SolverInput) *SolverResult {
	res := &SolverResult{
		Nodes:  make(map[string]SolvedNode),
		Routes: make(map[string][]graph.Point),
		Labels: make(map[string]graph.Point),
	}
	y := 0.0
	for _, n := range in.Nodes {
		res.Nodes[n.ID] = SolvedNode{X: 0, Y: y, Width: n.Width, Height: n.Height}
		if n.Width > res.Width {
			res.Width = n.Width
		}
		y += n.Height + 20
	}
	res.Height = y - 20
	for _, e := range in.Edges {
		a, okA := res.Nodes[e.Source]
		b, okB := res.Nodes[e.Target]
		if !okA || !okB {
			continue
		}
		res.Routes[e.ID] = []graph.Point{
			{X: a.X + a.Width/2, Y: a.Y + a.Height},
			{X: b.X + b.Width/2, Y: b.Y},
		}
		if e.Label != "" {
			res.Labels[e.ID] = graph.Point{X: a.X + a.Width/2 + 8, Y: (a.Y + b.Y) / 2}
		}
	}
	return res
}

func gridSolver() Solver {
	return SolverFunc(func(_ context.Context, in SolverInput) (*SolverResult, error) {
		return grid(in), nil
	})
}

func sizedNode(id string, w, h float64) *graph.Node {
	return &graph.Node{ID: id, Label: id, Width: w, Height: h}
}

func chainGroup() (*graph.WorkflowGroup, *graph.Graph) {
	a := sizedNode("a", 100, 40)
	b := sizedNode("b", 100, 40)
	c := sizedNode("c", 100, 40)
	g := &graph.Graph{
		Nodes: []*graph.Node{a, b, c},
		Edges: []graph.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}},
	}
	group := &graph.WorkflowGroup{ID: "w1", Name: "Ingest", Nodes: []*graph.Node{a, b, c}}
	return group, g
}

func TestArrangeSkipsSmallGroup(t *testing.T) {
	a := sizedNode("a", 100, 40)
	b := sizedNode("b", 100, 40)
	group := &graph.WorkflowGroup{ID: "tiny", Name: "Tiny", Nodes: []*graph.Node{a, b}}
	g := &graph.Graph{Nodes: []*graph.Node{a, b}}

	res, warns, err := Arrange(context.Background(), group, g, Options{Solver: gridSolver()})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if res != nil {
		t.Fatal("small group produced a result, want nil")
	}
	if len(warns.ByCode(errors.ErrCodeGroupDropped)) != 1 {
		t.Errorf("want one GROUP_DROPPED warning, got %v", warns)
	}
}

func TestArrangeCentroidConversion(t *testing.T) {
	group, g := chainGroup()
	res, warns, err := Arrange(context.Background(), group, g, Options{Solver: gridSolver()})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}

	// Grid puts a at top-left (0,0) with a 100x40 box; the emitted position
	// is its centroid.
	if want := (graph.Point{X: 50, Y: 20}); res.Nodes["a"].Center != want {
		t.Errorf("a center = %+v, want %+v", res.Nodes["a"].Center, want)
	}
	if want := (graph.Point{X: 50, Y: 80}); res.Nodes["b"].Center != want {
		t.Errorf("b center = %+v, want %+v", res.Nodes["b"].Center, want)
	}

	route, ok := res.Routes[graph.RouteKey("w1", "a", "b")]
	if !ok {
		t.Fatal("route a->b missing")
	}
	if route.StartPoint != (graph.Point{X: 50, Y: 40}) {
		t.Errorf("route start = %+v", route.StartPoint)
	}
	if route.Bidirectional {
		t.Error("one-way edge marked bidirectional")
	}
}

func TestArrangeCollapsesComponent(t *testing.T) {
	a := sizedNode("a", 100, 40)
	b := sizedNode("b", 100, 40)
	c := sizedNode("c", 100, 40)
	d := sizedNode("d", 100, 40)
	e := sizedNode("e", 100, 40)
	g := &graph.Graph{
		Nodes: []*graph.Node{a, b, c, d, e},
		Edges: []graph.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"}, // into the component
			{Source: "b", Target: "d"}, // dedupes with b->c after aliasing
			{Source: "c", Target: "d"}, // intra-component, dropped
			{Source: "d", Target: "e"},
		},
	}
	comp := &graph.Component{ID: "pipeline", Name: "Pipeline", Nodes: []*graph.Node{c, d, e}, Collapsed: true}
	group := &graph.WorkflowGroup{
		ID:         "w1",
		Name:       "Ingest",
		Nodes:      []*graph.Node{a, b, c, d, e},
		Components: []*graph.Component{comp},
	}

	var captured SolverInput
	solver := SolverFunc(func(_ context.Context, in SolverInput) (*SolverResult, error) {
		captured = in
		return grid(in), nil
	})

	res, _, err := Arrange(context.Background(), group, g, Options{Solver: solver})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}

	if len(captured.Nodes) != 3 {
		t.Fatalf("solver saw %d nodes, want 3 (a, b, placeholder)", len(captured.Nodes))
	}
	pid := comp.PlaceholderID()
	var placeholder *SolverNode
	for i := range captured.Nodes {
		if captured.Nodes[i].ID == pid {
			placeholder = &captured.Nodes[i]
		}
	}
	if placeholder == nil {
		t.Fatalf("placeholder %s not sent to solver", pid)
	}
	if placeholder.Width < MinPlaceholderWidth || placeholder.Height < MinPlaceholderHeight {
		t.Errorf("placeholder %vx%v below minimum", placeholder.Width, placeholder.Height)
	}

	if len(captured.Edges) != 2 {
		t.Fatalf("solver saw %d edges, want 2 (a->b, b->placeholder)", len(captured.Edges))
	}
	for _, se := range captured.Edges {
		if se.Source == pid && se.Target == pid {
			t.Error("intra-component edge survived as a self loop")
		}
	}

	if _, ok := res.Nodes["c"]; ok {
		t.Error("collapsed member c has its own position")
	}
	if _, ok := res.Nodes[pid]; !ok {
		t.Error("placeholder missing from result")
	}
}

func TestArrangeMergesBidirectionalPair(t *testing.T) {
	a := sizedNode("a", 100, 40)
	b := sizedNode("b", 100, 40)
	c := sizedNode("c", 100, 40)
	g := &graph.Graph{
		Nodes: []*graph.Node{a, b, c},
		Edges: []graph.Edge{
			{Source: "b", Target: "a"}, // reverse direction arrives first
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
		},
	}
	group := &graph.WorkflowGroup{ID: "w1", Name: "Loop", Nodes: []*graph.Node{a, b, c}}

	var captured SolverInput
	solver := SolverFunc(func(_ context.Context, in SolverInput) (*SolverResult, error) {
		captured = in
		return grid(in), nil
	})

	res, _, err := Arrange(context.Background(), group, g, Options{Solver: solver})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if len(captured.Edges) != 2 {
		t.Fatalf("solver saw %d edges, want 2 (merged pair + a->c)", len(captured.Edges))
	}

	// The pair is oriented with the lexicographically smaller source.
	key := graph.RouteKey("w1", "a", "b")
	route, ok := res.Routes[key]
	if !ok {
		t.Fatalf("merged route %s missing; routes: %v", key, res.Routes)
	}
	if !route.Bidirectional {
		t.Error("merged pair not marked bidirectional")
	}
	if res.Routes[graph.RouteKey("w1", "b", "a")].Bidirectional {
		t.Error("reverse key present; pair must collapse into one route")
	}
}

func TestArrangeOmitsUnsolvedNode(t *testing.T) {
	group, g := chainGroup()
	solver := SolverFunc(func(_ context.Context, in SolverInput) (*SolverResult, error) {
		res := grid(in)
		delete(res.Nodes, "c")
		return res, nil
	})

	res, warns, err := Arrange(context.Background(), group, g, Options{Solver: solver})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if _, ok := res.Nodes["c"]; ok {
		t.Error("unsolved node c present in result")
	}
	if len(warns.ByCode(errors.ErrCodeSolverIncomplete)) != 1 {
		t.Errorf("want SOLVER_INCOMPLETE warning, got %v", warns)
	}
}

func TestArrangeSkipsRouteWithoutPath(t *testing.T) {
	group, g := chainGroup()
	key := graph.RouteKey("w1", "b", "c")
	solver := SolverFunc(func(_ context.Context, in SolverInput) (*SolverResult, error) {
		res := grid(in)
		delete(res.Routes, key)
		return res, nil
	})

	res, warns, err := Arrange(context.Background(), group, g, Options{Solver: solver})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if _, ok := res.Routes[key]; ok {
		t.Error("route without solver path present in result")
	}
	if len(warns.ByCode(errors.ErrCodeRouteMissing)) != 1 {
		t.Errorf("want ROUTE_MISSING warning, got %v", warns)
	}
}

func TestArrangeBoundsCoverRoutePoints(t *testing.T) {
	group, g := chainGroup()
	solver := SolverFunc(func(_ context.Context, in SolverInput) (*SolverResult, error) {
		res := grid(in)
		// Bow one route far left of every node box.
		key := graph.RouteKey("w1", "a", "b")
		res.Routes[key] = []graph.Point{{X: 50, Y: 40}, {X: -80, Y: 50}, {X: 50, Y: 60}}
		return res, nil
	})

	res, _, err := Arrange(context.Background(), group, g, Options{Solver: solver})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if res.Bounds.X > -80 {
		t.Errorf("bounds origin %v does not cover route bend at x=-80", res.Bounds.X)
	}
}

func TestArrangeWidensBoundsForTitle(t *testing.T) {
	group, g := chainGroup()
	// Nil estimator measures every text at the fixed fallback size (160
	// wide); node extents only reach 100.
	res, _, err := Arrange(context.Background(), group, g, Options{Solver: gridSolver()})
	if err != nil {
		t.Fatalf("Arrange: %v", err)
	}
	if res.Bounds.Width < 160 {
		t.Errorf("bounds width %v not widened for the title", res.Bounds.Width)
	}
}

func TestArrangeSolverError(t *testing.T) {
	group, g := chainGroup()
	solver := SolverFunc(func(_ context.Context, _ SolverInput) (*SolverResult, error) {
		return nil, errors.New(errors.ErrCodeSolver, "engine crashed")
	})

	_, _, err := Arrange(context.Background(), group, g, Options{Solver: solver})
	if err == nil {
		t.Fatal("expected solver error")
	}
	if errors.GetCode(err) != errors.ErrCodeSolver {
		t.Errorf("error code = %s, want SOLVER_ERROR", errors.GetCode(err))
	}
}

func TestGroupDOT(t *testing.T) {
	group, g := chainGroup()

	dot := GroupDOT(group, g, Options{})

	for _, want := range []string{`"a"`, `"b"`, `"c"`, `"a" -> "b"`, `"b" -> "c"`, "rankdir=TB"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}
