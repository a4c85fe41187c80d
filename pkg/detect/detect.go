package detect

import (
	"fmt"
	"slices"

	"github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/graph"
)

// Options tune one detection run. The zero value applies all defaults.
type Options struct {
	// PivotType seeds the fallback walk when the snapshot carries no
	// workflow annotations. Defaults to graph.TypeLLMCall.
	PivotType string

	// MergeThreshold is the minimum number of cross-workflow edges required
	// before two annotated workflows are merged into one rendered group.
	// The analyzer emits incidental single references, so this is policy,
	// not an invariant. Defaults to 1.
	MergeThreshold int
}

func (o Options) withDefaults() Options {
	if o.PivotType == "" {
		o.PivotType = graph.TypeLLMCall
	}
	if o.MergeThreshold <= 0 {
		o.MergeThreshold = 1
	}
	return o
}

// Detect partitions the snapshot into rendered workflow groups.
//
// The input graph is mutated: every emitted group's synthetic title node and
// its edges into the group's entry nodes are appended in place. Edges
// referencing missing nodes are excluded from grouping and reported as
// warnings, never as errors.
//
// The returned groups are sorted by display name and are reproducible: the
// same snapshot yields the same groups in the same order.
func Detect(g *graph.Graph, opts Options) ([]*graph.WorkflowGroup, errors.Warnings) {
	opts = opts.withDefaults()
	var warns errors.Warnings

	idx := g.NodeIndex()
	edges := validEdges(g, idx, &warns)

	var merged []mergedWorkflow
	if len(g.Workflows) > 0 {
		merged = mergeAnnotated(g, idx, edges, opts, &warns)
	} else {
		merged = seedFromPivots(g, idx, edges, opts)
	}

	var groups []*graph.WorkflowGroup
	for _, m := range merged {
		groups = append(groups, buildGroups(g, idx, m, edges, &warns)...)
	}

	slices.SortFunc(groups, func(a, b *graph.WorkflowGroup) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return groups, warns
}

// validEdges filters edges whose endpoints both resolve. Dropped edges are
// warned about once each.
func validEdges(g *graph.Graph, idx map[string]*graph.Node, warns *errors.Warnings) []graph.Edge {
	out := make([]graph.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := idx[e.Source]; !ok {
			warns.Add(errors.ErrCodeEdgeEndpoint, e.Key(), "source node %q missing, edge skipped", e.Source)
			continue
		}
		if _, ok := idx[e.Target]; !ok {
			warns.Add(errors.ErrCodeEdgeEndpoint, e.Key(), "target node %q missing, edge skipped", e.Target)
			continue
		}
		out = append(out, e)
	}
	return out
}

// mergedWorkflow is one post-merge workflow: the union of all annotated
// workflows collapsed into a shared union-find root, plus any orphan
// endpoints pulled in by edges.
type mergedWorkflow struct {
	id         string
	name       string
	nodeIDs    map[string]struct{}
	components []graph.ComponentMeta
}

// mergeAnnotated implements the metadata-driven mode: duplicate-ID merge,
// cross-workflow union-find, and orphan attachment.
func mergeAnnotated(g *graph.Graph, idx map[string]*graph.Node, edges []graph.Edge, opts Options, warns *errors.Warnings) []mergedWorkflow {
	records := dedupeRecords(g.Workflows)

	// Node -> sorted IDs of the workflows that claim it.
	claims := make(map[string][]string)
	for _, w := range records {
		for _, id := range w.NodeIDs {
			if _, ok := idx[id]; !ok {
				warns.Add(errors.ErrCodeInvalidGraph, w.ID, "workflow references missing node %q", id)
				continue
			}
			claims[id] = append(claims[id], w.ID)
		}
	}
	for id := range claims {
		slices.Sort(claims[id])
		claims[id] = slices.Compact(claims[id])
	}

	// Count connecting edges per distinct workflow pair, then merge the
	// pairs that clear the threshold.
	uf := newUnionFind()
	pairCount := make(map[[2]string]int)
	for _, e := range edges {
		for _, ws := range claims[e.Source] {
			for _, wt := range claims[e.Target] {
				if ws == wt {
					continue
				}
				key := [2]string{min(ws, wt), max(ws, wt)}
				pairCount[key]++
			}
		}
	}
	pairs := make([][2]string, 0, len(pairCount))
	for k := range pairCount {
		pairs = append(pairs, k)
	}
	slices.SortFunc(pairs, func(a, b [2]string) int {
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		if a[1] < b[1] {
			return -1
		}
		if a[1] > b[1] {
			return 1
		}
		return 0
	})
	for _, p := range pairs {
		if pairCount[p] >= opts.MergeThreshold {
			uf.union(p[0], p[1])
		}
	}

	// Orphan endpoints join the workflow of their connected endpoint.
	// When the endpoint belongs to several workflows the smallest ID wins.
	extras := make(map[string][]string) // union root -> orphan node IDs
	for _, e := range edges {
		srcWs, tgtWs := claims[e.Source], claims[e.Target]
		switch {
		case len(srcWs) == 0 && len(tgtWs) > 0:
			root := uf.find(tgtWs[0])
			extras[root] = append(extras[root], e.Source)
		case len(tgtWs) == 0 && len(srcWs) > 0:
			root := uf.find(srcWs[0])
			extras[root] = append(extras[root], e.Target)
		}
	}

	// Collect members per union root.
	byRoot := make(map[string]*mergedWorkflow)
	rootOrder := []string{}
	for _, w := range records {
		root := uf.find(w.ID)
		m, ok := byRoot[root]
		if !ok {
			m = &mergedWorkflow{id: root, nodeIDs: make(map[string]struct{})}
			byRoot[root] = m
			rootOrder = append(rootOrder, root)
		}
		if w.ID == root {
			m.name = w.DisplayName()
		}
		for _, id := range w.NodeIDs {
			if _, exists := idx[id]; exists {
				m.nodeIDs[id] = struct{}{}
			}
		}
		m.components = append(m.components, w.Components...)
	}
	for root, ids := range extras {
		if m, ok := byRoot[root]; ok {
			for _, id := range ids {
				m.nodeIDs[id] = struct{}{}
			}
		}
	}
	for _, m := range byRoot {
		if m.name == "" {
			m.name = m.id
		}
	}

	slices.Sort(rootOrder)
	out := make([]mergedWorkflow, 0, len(rootOrder))
	for _, root := range rootOrder {
		out = append(out, *byRoot[root])
	}
	return out
}

// dedupeRecords merges workflow records sharing an ID, which multi-file
// analysis emits routinely. Membership and components are unioned; the first
// non-empty name and description win.
func dedupeRecords(workflows []graph.Workflow) []graph.Workflow {
	byID := make(map[string]*graph.Workflow)
	order := []string{}
	for _, w := range workflows {
		existing, ok := byID[w.ID]
		if !ok {
			c := w
			c.NodeIDs = slices.Clone(w.NodeIDs)
			c.Components = slices.Clone(w.Components)
			byID[w.ID] = &c
			order = append(order, w.ID)
			continue
		}
		if existing.Name == "" {
			existing.Name = w.Name
		}
		if existing.Description == "" {
			existing.Description = w.Description
		}
		existing.NodeIDs = append(existing.NodeIDs, w.NodeIDs...)
		for _, cm := range w.Components {
			if !slices.ContainsFunc(existing.Components, func(c graph.ComponentMeta) bool { return c.ID == cm.ID }) {
				existing.Components = append(existing.Components, cm)
			}
		}
	}

	out := make([]graph.Workflow, 0, len(order))
	for _, id := range order {
		w := *byID[id]
		slices.Sort(w.NodeIDs)
		w.NodeIDs = slices.Compact(w.NodeIDs)
		out = append(out, w)
	}
	return out
}

// seedFromPivots implements the fallback mode: a bidirectional walk from
// every pivot-typed node, merging every touched node into one candidate
// workflow per walk.
func seedFromPivots(g *graph.Graph, idx map[string]*graph.Node, edges []graph.Edge, opts Options) []mergedWorkflow {
	out, in := adjacency(edges)

	pivots := []string{}
	for _, n := range g.Nodes {
		if n.Type == opts.PivotType {
			pivots = append(pivots, n.ID)
		}
	}
	slices.Sort(pivots)

	visited := make(map[string]struct{})
	var merged []mergedWorkflow
	for _, pivot := range pivots {
		if _, seen := visited[pivot]; seen {
			continue
		}
		members := walkBoth(pivot, out, in)
		for id := range members {
			visited[id] = struct{}{}
		}
		merged = append(merged, mergedWorkflow{
			id:      pivot,
			name:    idx[pivot].DisplayLabel(),
			nodeIDs: members,
		})
	}
	return merged
}

// walkBoth runs an explicit-worklist traversal from start following edges in
// both directions without restriction.
func walkBoth(start string, out, in map[string][]string) map[string]struct{} {
	members := map[string]struct{}{start: {}}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range append(slices.Clone(out[cur]), in[cur]...) {
			if _, seen := members[next]; !seen {
				members[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}
	return members
}

func adjacency(edges []graph.Edge) (out, in map[string][]string) {
	out = make(map[string][]string)
	in = make(map[string][]string)
	for _, e := range edges {
		out[e.Source] = append(out[e.Source], e.Target)
		in[e.Target] = append(in[e.Target], e.Source)
	}
	return out, in
}

// buildGroups splits one merged workflow into weakly-connected fragments and
// materializes a WorkflowGroup per fragment that clears the size floor.
func buildGroups(g *graph.Graph, idx map[string]*graph.Node, m mergedWorkflow, edges []graph.Edge, warns *errors.Warnings) []*graph.WorkflowGroup {
	fragments := splitFragments(m.nodeIDs, edges)

	var groups []*graph.WorkflowGroup
	for _, frag := range fragments {
		if len(frag) < graph.MinGroupSize {
			warns.Add(errors.ErrCodeGroupDropped, m.id,
				"fragment of %d node(s) below the %d-node floor, dropped", len(frag), graph.MinGroupSize)
			continue
		}

		groupID, groupName := m.id, m.name
		if n := len(groups); n > 0 {
			groupID = fmt.Sprintf("%s_%d", m.id, n+1)
			groupName = fmt.Sprintf("%s (%d)", m.name, n+1)
		}

		group := &graph.WorkflowGroup{ID: groupID, Name: groupName}
		fragSet := make(map[string]struct{}, len(frag))
		for _, id := range frag {
			fragSet[id] = struct{}{}
			group.Nodes = append(group.Nodes, idx[id])
		}

		group.Components = attachComponents(m.components, fragSet, idx)
		synthesizeTitle(g, group, fragSet, edges)
		groups = append(groups, group)
	}
	return groups
}

// attachComponents materializes the component annotations whose node sets
// are exactly contained in the fragment and have at least MinGroupSize
// members. Components default to collapsed.
func attachComponents(metas []graph.ComponentMeta, fragSet map[string]struct{}, idx map[string]*graph.Node) []*graph.Component {
	var comps []*graph.Component
	for _, cm := range metas {
		ids := slices.Clone(cm.NodeIDs)
		slices.Sort(ids)
		ids = slices.Compact(ids)
		if len(ids) < graph.MinGroupSize {
			continue
		}
		contained := true
		for _, id := range ids {
			if _, ok := fragSet[id]; !ok {
				contained = false
				break
			}
		}
		if !contained {
			continue
		}

		comp := &graph.Component{ID: cm.ID, Name: cm.Name, Collapsed: true}
		if comp.Name == "" {
			comp.Name = cm.ID
		}
		for _, id := range ids {
			comp.Nodes = append(comp.Nodes, idx[id])
		}
		if !slices.ContainsFunc(comps, func(c *graph.Component) bool { return c.ID == comp.ID }) {
			comps = append(comps, comp)
		}
	}
	slices.SortFunc(comps, func(a, b *graph.Component) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return comps
}
