package layout

import (
	"context"
	"maps"
	"math"
	"slices"

	"github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/graph"
	"github.com/michaelzixizhou/codag/pkg/measure"
)

// Placeholder boxes never shrink below this, regardless of how short the
// component name measures.
const (
	MinPlaceholderWidth  = 140.0
	MinPlaceholderHeight = 60.0
)

// TitleFontSize is the display size of the workflow title drawn on the
// group's bounding box.
const TitleFontSize = 16.0

// Options configures one orchestration run. A nil Solver gets the Graphviz
// default; a nil Estimator degrades every measurement to the fixed fallback
// size.
type Options struct {
	Solver        Solver
	Estimator     *measure.Estimator
	SolverOptions SolverOptions
}

// PlacedNode is a laid-out node in workflow-local coordinates. Center is
// the box centroid, not a corner.
type PlacedNode struct {
	Center graph.Point
	Width  float64
	Height float64
}

// Result is one workflow's local layout. Nodes includes synthetic title and
// placeholder nodes; members of a collapsed component are represented only
// by their placeholder. Routes and Labels are keyed by [graph.RouteKey].
type Result struct {
	GroupID string
	Bounds  graph.Rect
	Nodes   map[string]PlacedNode
	Routes  map[string]graph.EdgeRoute
	Labels  map[string]graph.Point
}

// Arrange lays out one workflow group. It collapses components into
// placeholders, deduplicates edges, merges bidirectional pairs, runs the
// solver, and normalizes its output into centroid positions plus a local
// bounding box covering node extents, route points, and label anchors.
//
// Groups below the minimum size are skipped with a warning and a nil
// result. Solver failures surface as an error; the caller decides whether
// to drop just this workflow.
func Arrange(ctx context.Context, group *graph.WorkflowGroup, g *graph.Graph, opts Options) (*Result, errors.Warnings, error) {
	var warns errors.Warnings

	if len(group.Nodes) < graph.MinGroupSize {
		warns.Add(errors.ErrCodeGroupDropped, group.ID,
			"group has %d nodes, below the %d-node minimum", len(group.Nodes), graph.MinGroupSize)
		return nil, warns, nil
	}

	solver := opts.Solver
	if solver == nil {
		solver = NewGraphvizSolver()
	}
	est := opts.Estimator
	if est == nil {
		est = measure.NewEstimator(nil)
	}

	nodes, edges, bidi := solverInput(group, g, est)

	res, err := solver.Solve(ctx, SolverInput{Nodes: nodes, Edges: edges, Options: opts.SolverOptions})
	if err != nil {
		return nil, warns, errors.Wrap(errors.ErrCodeSolver, err, "layout workflow %s", group.ID)
	}

	out := &Result{
		GroupID: group.ID,
		Nodes:   make(map[string]PlacedNode, len(nodes)),
		Routes:  make(map[string]graph.EdgeRoute, len(edges)),
		Labels:  make(map[string]graph.Point),
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(x0, y0, x1, y1 float64) {
		minX = math.Min(minX, x0)
		minY = math.Min(minY, y0)
		maxX = math.Max(maxX, x1)
		maxY = math.Max(maxY, y1)
	}

	for _, sn := range nodes {
		sv, ok := res.Nodes[sn.ID]
		if !ok {
			// No position means the solver dropped the node. Omitting it
			// beats defaulting to the origin, which would corrupt bounds.
			warns.Add(errors.ErrCodeSolverIncomplete, sn.ID, "no position from solver, node omitted")
			continue
		}
		out.Nodes[sn.ID] = PlacedNode{
			Center: graph.Point{X: sv.X + sv.Width/2, Y: sv.Y + sv.Height/2},
			Width:  sv.Width,
			Height: sv.Height,
		}
		extend(sv.X, sv.Y, sv.X+sv.Width, sv.Y+sv.Height)
	}
	if len(out.Nodes) == 0 {
		return nil, warns, errors.New(errors.ErrCodeSolverIncomplete, "solver placed no nodes for workflow %s", group.ID)
	}

	for i, e := range edges {
		pts := res.Routes[e.ID]
		if len(pts) < 2 {
			warns.Add(errors.ErrCodeRouteMissing, e.Source+"->"+e.Target, "no route from solver, edge skipped")
			continue
		}
		route := graph.EdgeRoute{
			StartPoint:    pts[0],
			EndPoint:      pts[len(pts)-1],
			Bidirectional: bidi[i],
		}
		if len(pts) > 2 {
			route.BendPoints = append([]graph.Point(nil), pts[1:len(pts)-1]...)
		}
		out.Routes[e.ID] = route
		// Orthogonal routes bow outside the node-only extents; bounds must
		// cover every route point or rendering clips.
		for _, p := range pts {
			extend(p.X, p.Y, p.X, p.Y)
		}
		if lp, ok := res.Labels[e.ID]; ok {
			out.Labels[e.ID] = lp
			extend(lp.X, lp.Y, lp.X, lp.Y)
		}
	}

	bounds := graph.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}

	// The group title is drawn on the bounding box; widen if it would not fit.
	title := est.Measure(group.Name, measure.Options{
		Style:    measure.Style{FontSize: TitleFontSize},
		MaxWidth: math.MaxFloat64,
	})
	if bounds.Width < title.Width {
		bounds.Width = title.Width
	}

	out.Bounds = bounds
	return out, warns, nil
}

// solverInput builds the solver node and edge lists for one group,
// collapsing components into placeholders and reducing the edge set.
func solverInput(group *graph.WorkflowGroup, g *graph.Graph, est *measure.Estimator) ([]SolverNode, []SolverEdge, map[int]bool) {
	// Members of a collapsed component are routed through one placeholder.
	alias := make(map[string]string)
	collapsed := make(map[string]*graph.Component)
	for _, c := range group.Components {
		if !c.Collapsed {
			continue
		}
		pid := c.PlaceholderID()
		collapsed[pid] = c
		for _, n := range c.Nodes {
			alias[n.ID] = pid
		}
	}

	inGroup := make(map[string]bool, len(group.Nodes))
	for _, n := range group.Nodes {
		inGroup[n.ID] = true
	}

	var nodes []SolverNode
	for _, n := range group.Nodes {
		if _, hidden := alias[n.ID]; hidden {
			continue
		}
		w, h := n.Width, n.Height
		if w <= 0 || h <= 0 {
			w, h = measure.DefaultSize.Width, measure.DefaultSize.Height
		}
		nodes = append(nodes, SolverNode{ID: n.ID, Width: w, Height: h})
	}
	for _, pid := range slices.Sorted(maps.Keys(collapsed)) {
		size := est.Measure(collapsed[pid].Name, measure.Options{})
		nodes = append(nodes, SolverNode{
			ID:     pid,
			Width:  math.Max(size.Width, MinPlaceholderWidth),
			Height: math.Max(size.Height, MinPlaceholderHeight),
		})
	}

	edges, bidi := reduceEdges(group, g, alias, inGroup)
	return nodes, edges, bidi
}

// GroupDOT returns the DOT text that would be submitted to the solver for
// one group. Debug aid for inspecting what the solver actually sees.
func GroupDOT(group *graph.WorkflowGroup, g *graph.Graph, opts Options) string {
	est := opts.Estimator
	if est == nil {
		est = measure.NewEstimator(nil)
	}
	nodes, edges, _ := solverInput(group, g, est)
	return buildDOT(SolverInput{Nodes: nodes, Edges: edges, Options: opts.SolverOptions})
}

// reduceEdges builds the deduplicated solver edge list for one group.
// Endpoints are rewritten through the placeholder alias map, intra-component
// and self edges dropped, duplicate ordered pairs collapsed, and an edge
// plus its reverse merged into a single pass oriented with the
// lexicographically smaller source.
func reduceEdges(group *graph.WorkflowGroup, g *graph.Graph, alias map[string]string, inGroup map[string]bool) ([]SolverEdge, map[int]bool) {
	aliasFor := func(id string) string {
		if pid, ok := alias[id]; ok {
			return pid
		}
		return id
	}

	var edges []SolverEdge
	index := make(map[string]int)
	bidi := make(map[int]bool)

	for _, e := range g.Edges {
		if !inGroup[e.Source] || !inGroup[e.Target] {
			continue
		}
		src, tgt := aliasFor(e.Source), aliasFor(e.Target)
		if src == tgt {
			continue
		}
		if i, ok := index[src+"->"+tgt]; ok {
			if edges[i].Label == "" {
				edges[i].Label = e.Label
			}
			continue
		}
		if i, ok := index[tgt+"->"+src]; ok {
			bidi[i] = true
			if edges[i].Source > edges[i].Target {
				// Re-orient the kept edge so the pair's canonical direction
				// has the smaller source.
				label := edges[i].Label
				if label == "" {
					label = e.Label
				}
				delete(index, edges[i].Source+"->"+edges[i].Target)
				edges[i] = SolverEdge{
					ID:     graph.RouteKey(group.ID, src, tgt),
					Source: src,
					Target: tgt,
					Label:  label,
				}
				index[src+"->"+tgt] = i
			}
			continue
		}
		edges = append(edges, SolverEdge{
			ID:     graph.RouteKey(group.ID, src, tgt),
			Source: src,
			Target: tgt,
			Label:  e.Label,
		})
		index[src+"->"+tgt] = len(edges) - 1
	}
	return edges, bidi
}
