package layout

import (
	"context"

	"github.com/michaelzixizhou/codag/pkg/graph"
)

// Default solver separations, in pixels.
const (
	DefaultNodeSep = 36.0
	DefaultRankSep = 56.0
)

// SolverNode is one sized box sent to the solver. Positions are absent on
// input; the solver assigns them.
type SolverNode struct {
	ID     string
	Width  float64
	Height float64
}

// SolverEdge is one deduplicated edge sent to the solver. ID keys the
// resulting route and label in [SolverResult]; Label, when set, makes the
// solver reserve space for the edge label.
type SolverEdge struct {
	ID     string
	Source string
	Target string
	Label  string
}

// SolverOptions tunes the solver run. Zero values get the package defaults.
type SolverOptions struct {
	NodeSep float64 // minimum horizontal spacing between sibling nodes
	RankSep float64 // minimum vertical spacing between layers
}

func (o SolverOptions) withDefaults() SolverOptions {
	if o.NodeSep <= 0 {
		o.NodeSep = DefaultNodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = DefaultRankSep
	}
	return o
}

// SolverInput is the complete wire contract for one solver invocation.
type SolverInput struct {
	Nodes   []SolverNode
	Edges   []SolverEdge
	Options SolverOptions
}

// SolvedNode is a placed node box, anchored at its top-left corner in a
// y-down space with origin at the drawing's top-left.
type SolvedNode struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// SolverResult is the solver's output for one workflow. Nodes the solver
// could not place are absent from the Nodes map, never defaulted to the
// origin. Routes and Labels are keyed by [SolverEdge.ID].
type SolverResult struct {
	Width  float64
	Height float64
	Nodes  map[string]SolvedNode
	Routes map[string][]graph.Point
	Labels map[string]graph.Point
}

// Solver computes a layered top-down layout with orthogonal edge routing
// for one workflow's reduced node/edge set.
//
// Implementations return top-left anchored boxes; the anchor-to-centroid
// conversion is owned by the orchestrator and must not leak into Solve.
type Solver interface {
	Solve(ctx context.Context, in SolverInput) (*SolverResult, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, in SolverInput) (*SolverResult, error)

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, in SolverInput) (*SolverResult, error) {
	return f(ctx, in)
}
