package detect

import (
	"slices"

	"github.com/michaelzixizhou/codag/pkg/graph"
)

// splitFragments partitions the member set into weakly-connected fragments
// using only edges whose endpoints are both members. Fragments and their
// node lists come back sorted, so fragment numbering is reproducible.
func splitFragments(members map[string]struct{}, edges []graph.Edge) [][]string {
	neighbors := make(map[string][]string)
	for _, e := range edges {
		_, srcIn := members[e.Source]
		_, tgtIn := members[e.Target]
		if !srcIn || !tgtIn {
			continue
		}
		neighbors[e.Source] = append(neighbors[e.Source], e.Target)
		neighbors[e.Target] = append(neighbors[e.Target], e.Source)
	}

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	visited := make(map[string]struct{}, len(members))
	var fragments [][]string
	for _, start := range ids {
		if _, seen := visited[start]; seen {
			continue
		}
		frag := []string{}
		queue := []string{start}
		visited[start] = struct{}{}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			frag = append(frag, cur)
			for _, next := range neighbors[cur] {
				if _, seen := visited[next]; !seen {
					visited[next] = struct{}{}
					queue = append(queue, next)
				}
			}
		}
		slices.Sort(frag)
		fragments = append(fragments, frag)
	}

	slices.SortFunc(fragments, func(a, b []string) int {
		if a[0] < b[0] {
			return -1
		}
		if a[0] > b[0] {
			return 1
		}
		return 0
	})
	return fragments
}

// entryNodes returns the fragment members with no incoming edge originating
// inside the fragment, in sorted order.
func entryNodes(fragSet map[string]struct{}, edges []graph.Edge) []string {
	hasInternalIncoming := make(map[string]bool)
	for _, e := range edges {
		_, srcIn := fragSet[e.Source]
		_, tgtIn := fragSet[e.Target]
		if srcIn && tgtIn && e.Source != e.Target {
			hasInternalIncoming[e.Target] = true
		}
	}

	var entries []string
	for id := range fragSet {
		if !hasInternalIncoming[id] {
			entries = append(entries, id)
		}
	}
	slices.Sort(entries)
	return entries
}

// synthesizeTitle creates the group's title node and wires it into the
// fragment's entry nodes, appending both to the snapshot in place and to the
// group's member list.
//
// A cyclic fragment has no entry nodes; the smallest member ID then stands in
// as the single attachment point.
func synthesizeTitle(g *graph.Graph, group *graph.WorkflowGroup, fragSet map[string]struct{}, edges []graph.Edge) {
	entries := entryNodes(fragSet, edges)
	if len(entries) == 0 {
		ids := make([]string, 0, len(fragSet))
		for id := range fragSet {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		if len(ids) > 0 {
			entries = ids[:1]
		}
	}

	title := &graph.Node{
		ID:    group.TitleNodeID(),
		Label: group.Name,
		Type:  graph.TypeTitle,
	}
	g.Nodes = append(g.Nodes, title)
	group.Nodes = append(group.Nodes, title)

	for _, entry := range entries {
		g.Edges = append(g.Edges, graph.Edge{Source: title.ID, Target: entry})
	}
}
