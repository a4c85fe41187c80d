package graph

import (
	"encoding/json"
	"slices"
)

// =============================================================================
// Snapshot Diff Engine
// =============================================================================

// EntityDiff holds the added/removed/updated sets for one entity kind.
// Added and updated entries come from the new snapshot; removed entries come
// from the old one.
type EntityDiff[T any] struct {
	Added   []T `json:"added,omitempty"`
	Removed []T `json:"removed,omitempty"`
	Updated []T `json:"updated,omitempty"`
}

func (d EntityDiff[T]) empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

// GraphDiff is the result of comparing two snapshots. It is computed fresh on
// every update and never persisted.
type GraphDiff struct {
	Nodes     EntityDiff[*Node]    `json:"nodes"`
	Edges     EntityDiff[Edge]     `json:"edges"`
	Workflows EntityDiff[Workflow] `json:"workflows"`
}

// HasDiff reports whether any added/removed/updated set is non-empty.
func (d *GraphDiff) HasDiff() bool {
	return !d.Nodes.empty() || !d.Edges.empty() || !d.Workflows.empty()
}

// Destructive reports whether the diff removes any node or edge. Removed
// members can shrink bounding boxes and shift packing, so consumers must
// re-run the full pipeline destructively instead of patching incrementally.
func (d *GraphDiff) Destructive() bool {
	return len(d.Nodes.Removed) > 0 || len(d.Edges.Removed) > 0
}

// MarshalDiff serializes a GraphDiff to pretty-printed JSON bytes.
func MarshalDiff(d *GraphDiff) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Diff compares two snapshots and returns the per-entity added/removed/updated
// sets. Nil snapshots are treated as empty.
//
// Identity rules:
//   - a node is updated when its label, type, description, or source
//     reference changed; position and size changes are ignored (derived view
//     state, not data identity)
//   - an edge is keyed by (source, target) and updated only on label change
//   - a workflow is updated when its name, description, or order-independent
//     node-ID set changed
func Diff(old, new *Graph) *GraphDiff {
	if old == nil {
		old = &Graph{}
	}
	if new == nil {
		new = &Graph{}
	}

	d := &GraphDiff{}
	diffNodes(old, new, d)
	diffEdges(old, new, d)
	diffWorkflows(old, new, d)
	return d
}

func diffNodes(old, new *Graph, d *GraphDiff) {
	oldIdx := old.NodeIndex()
	newIdx := new.NodeIndex()

	for _, n := range new.Nodes {
		prev, ok := oldIdx[n.ID]
		switch {
		case !ok:
			d.Nodes.Added = append(d.Nodes.Added, n)
		case nodeChanged(prev, n):
			d.Nodes.Updated = append(d.Nodes.Updated, n)
		}
	}
	for _, n := range old.Nodes {
		if _, ok := newIdx[n.ID]; !ok {
			d.Nodes.Removed = append(d.Nodes.Removed, n)
		}
	}
}

func nodeChanged(a, b *Node) bool {
	return a.Label != b.Label ||
		a.Type != b.Type ||
		a.Description != b.Description ||
		a.SourceRef != b.SourceRef
}

func diffEdges(old, new *Graph, d *GraphDiff) {
	oldIdx := make(map[string]Edge, len(old.Edges))
	for _, e := range old.Edges {
		oldIdx[e.Key()] = e
	}
	newIdx := make(map[string]Edge, len(new.Edges))
	for _, e := range new.Edges {
		newIdx[e.Key()] = e
	}

	for _, e := range new.Edges {
		prev, ok := oldIdx[e.Key()]
		switch {
		case !ok:
			d.Edges.Added = append(d.Edges.Added, e)
		case prev.Label != e.Label:
			d.Edges.Updated = append(d.Edges.Updated, e)
		}
	}
	for _, e := range old.Edges {
		if _, ok := newIdx[e.Key()]; !ok {
			d.Edges.Removed = append(d.Edges.Removed, e)
		}
	}
}

func diffWorkflows(old, new *Graph, d *GraphDiff) {
	oldIdx := make(map[string]Workflow, len(old.Workflows))
	for _, w := range old.Workflows {
		oldIdx[w.ID] = w
	}
	newIdx := make(map[string]Workflow, len(new.Workflows))
	for _, w := range new.Workflows {
		newIdx[w.ID] = w
	}

	for _, w := range new.Workflows {
		prev, ok := oldIdx[w.ID]
		switch {
		case !ok:
			d.Workflows.Added = append(d.Workflows.Added, w)
		case workflowChanged(prev, w):
			d.Workflows.Updated = append(d.Workflows.Updated, w)
		}
	}
	for _, w := range old.Workflows {
		if _, ok := newIdx[w.ID]; !ok {
			d.Workflows.Removed = append(d.Workflows.Removed, w)
		}
	}
}

func workflowChanged(a, b Workflow) bool {
	if a.Name != b.Name || a.Description != b.Description {
		return true
	}
	return !sameIDSet(a.NodeIDs, b.NodeIDs)
}

// sameIDSet compares two ID lists order-independently, with duplicates
// collapsed.
func sameIDSet(a, b []string) bool {
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	as = slices.Compact(as)
	bs = slices.Compact(bs)
	return slices.Equal(as, bs)
}
