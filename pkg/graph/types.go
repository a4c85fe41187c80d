package graph

import (
	"fmt"
	"math"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// TitleNodePrefix prefixes the ID of every synthetic workflow title node.
const TitleNodePrefix = "__title_"

// PlaceholderNodePrefix prefixes the ID of every collapsed-component
// placeholder node substituted during layout.
const PlaceholderNodePrefix = "__component_"

// Node types emitted by the upstream analyzer plus the synthetic types
// created during composition.
const (
	TypeLLMCall     = "llm_call"
	TypeTool        = "tool"
	TypeFunction    = "function"
	TypePrompt      = "prompt"
	TypeTitle       = "workflow_title"
	TypePlaceholder = "component_placeholder"
)

// MinGroupSize is the rendering floor: workflow groups with fewer member
// nodes never reach layout. The count is taken before title synthesis.
const MinGroupSize = 3

// =============================================================================
// Snapshot - Raw Graph Input
// =============================================================================

// Graph is a raw call-graph snapshot as delivered by the upstream analyzer.
// Detection may append synthetic title nodes and edges in place so that
// downstream layout sees them as ordinary members.
type Graph struct {
	Nodes     []*Node    `json:"nodes" bson:"nodes"`
	Edges     []Edge     `json:"edges" bson:"edges"`
	Workflows []Workflow `json:"workflows,omitempty" bson:"workflows,omitempty"`
}

// NodeIndex returns a map from node ID to node.
// Later duplicates win, matching analyzer re-emission semantics.
func (g *Graph) NodeIndex() map[string]*Node {
	idx := make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		idx[n.ID] = n
	}
	return idx
}

// Node is a vertex in the call-graph. Width/Height are populated by the
// geometry estimator before any layout pass; X/Y are written by finalization
// and are a view concern, not part of node identity.
type Node struct {
	ID          string `json:"id" bson:"id"`
	Label       string `json:"label,omitempty" bson:"label,omitempty"`
	Type        string `json:"type,omitempty" bson:"type,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	SourceRef   string `json:"source_ref,omitempty" bson:"source_ref,omitempty"`

	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`
	X      float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" bson:"y,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// IsSynthetic reports whether the node was created during composition
// (title or placeholder), as opposed to an original analyzer vertex.
func (n *Node) IsSynthetic() bool {
	return n.Type == TypeTitle || n.Type == TypePlaceholder
}

// Edge is a directed call between two nodes, referenced by ID.
type Edge struct {
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
}

// Key returns the identity key of the edge: the ordered (source, target) pair.
func (e Edge) Key() string { return e.Source + "->" + e.Target }

// Workflow is an externally supplied grouping annotation: a named subset of
// node IDs, optionally carrying component sub-groupings. Workflows may overlap
// in node membership.
type Workflow struct {
	ID          string          `json:"id" bson:"id"`
	Name        string          `json:"name,omitempty" bson:"name,omitempty"`
	Description string          `json:"description,omitempty" bson:"description,omitempty"`
	NodeIDs     []string        `json:"node_ids" bson:"node_ids"`
	Components  []ComponentMeta `json:"components,omitempty" bson:"components,omitempty"`
}

// DisplayName returns the name if set, otherwise the ID.
func (w *Workflow) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.ID
}

// ComponentMeta is an externally supplied component annotation inside a
// workflow record.
type ComponentMeta struct {
	ID      string   `json:"id" bson:"id"`
	Name    string   `json:"name,omitempty" bson:"name,omitempty"`
	NodeIDs []string `json:"node_ids" bson:"node_ids"`
}

// =============================================================================
// Derived Model - Render Groups
// =============================================================================

// WorkflowGroup is one rendered workflow: a weakly-connected fragment of a
// (possibly merged) workflow with at least MinGroupSize members. Groups are
// recomputed fully on every detection run.
type WorkflowGroup struct {
	ID         string       `json:"id" bson:"id"`
	Name       string       `json:"name" bson:"name"`
	Nodes      []*Node      `json:"nodes" bson:"nodes"`
	Components []*Component `json:"components,omitempty" bson:"components,omitempty"`
	Bounds     *Rect        `json:"bounds,omitempty" bson:"bounds,omitempty"`
	CenterX    float64      `json:"center_x,omitempty" bson:"center_x,omitempty"`
	CenterY    float64      `json:"center_y,omitempty" bson:"center_y,omitempty"`
}

// TitleNodeID returns the ID of the group's synthetic title node.
func (g *WorkflowGroup) TitleNodeID() string { return TitleNodePrefix + g.ID }

// HasNode reports whether the group contains the node ID.
func (g *WorkflowGroup) HasNode(id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Component is a collapsible sub-grouping inside a WorkflowGroup. Its node set
// is always a subset of the parent group's node set. When collapsed, layout
// substitutes a single placeholder node for the whole component.
type Component struct {
	ID        string  `json:"id" bson:"id"`
	Name      string  `json:"name" bson:"name"`
	Nodes     []*Node `json:"nodes" bson:"nodes"`
	Collapsed bool    `json:"collapsed" bson:"collapsed"`
	Bounds    *Rect   `json:"bounds,omitempty" bson:"bounds,omitempty"`
	CenterX   float64 `json:"center_x,omitempty" bson:"center_x,omitempty"`
	CenterY   float64 `json:"center_y,omitempty" bson:"center_y,omitempty"`
}

// PlaceholderID returns the ID of the placeholder node substituted for the
// component while it is collapsed.
func (c *Component) PlaceholderID() string { return PlaceholderNodePrefix + c.ID }

// =============================================================================
// Geometry Primitives
// =============================================================================

// Point is a 2D coordinate. After finalization all coordinates are integral.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Round returns the point with both coordinates rounded to integers.
func (p Point) Round() Point {
	return Point{X: math.Round(p.X), Y: math.Round(p.Y)}
}

// Translate returns the point shifted by (dx, dy).
func (p Point) Translate(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// CenterX returns the x coordinate of the rectangle center.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the y coordinate of the rectangle center.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// Inflate returns the rectangle grown by m on all four sides.
func (r Rect) Inflate(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, Width: r.Width + 2*m, Height: r.Height + 2*m}
}

// Intersects reports whether two rectangles overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Max(r.Right(), o.Right()) - x,
		Height: math.Max(r.Bottom(), o.Bottom()) - y,
	}
}

// Translate returns the rectangle shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Round returns the rectangle with all fields rounded to integers.
func (r Rect) Round() Rect {
	return Rect{
		X:      math.Round(r.X),
		Y:      math.Round(r.Y),
		Width:  math.Round(r.Width),
		Height: math.Round(r.Height),
	}
}

// =============================================================================
// Routed Edges & Labels
// =============================================================================

// EdgeRoute is a routed polyline for one rendered edge, in the same
// coordinate space as finalized node positions. Routes are keyed by
// RouteKey(workflowID, source, target).
type EdgeRoute struct {
	StartPoint    Point   `json:"start_point" bson:"start_point"`
	EndPoint      Point   `json:"end_point" bson:"end_point"`
	BendPoints    []Point `json:"bend_points,omitempty" bson:"bend_points,omitempty"`
	Bidirectional bool    `json:"bidirectional,omitempty" bson:"bidirectional,omitempty"`
}

// Points returns start, bends, and end as one slice, in drawing order.
func (r EdgeRoute) Points() []Point {
	pts := make([]Point, 0, len(r.BendPoints)+2)
	pts = append(pts, r.StartPoint)
	pts = append(pts, r.BendPoints...)
	pts = append(pts, r.EndPoint)
	return pts
}

// RouteKey builds the composite route identifier for an edge rendered inside
// a workflow group.
func RouteKey(workflowID, source, target string) string {
	return fmt.Sprintf("%s_%s->%s", workflowID, source, target)
}
