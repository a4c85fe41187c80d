package detect

// unionFind is a parent-pointer disjoint-set over workflow IDs with
// path-compressed find. It is local to one detection call; never package
// state.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

// find returns the root representative of id, compressing the path walked.
// Unknown IDs are their own root.
func (u *unionFind) find(id string) string {
	p, ok := u.parent[id]
	if !ok || p == id {
		return id
	}
	root := u.find(p)
	u.parent[id] = root
	return root
}

// union merges the sets containing a and b. The lexicographically smaller
// root absorbs the larger one, which keeps representatives deterministic
// regardless of union order.
func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
