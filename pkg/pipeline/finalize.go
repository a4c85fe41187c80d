package pipeline

import (
	"github.com/michaelzixizhou/codag/pkg/graph"
	"github.com/michaelzixizhou/codag/pkg/layout"
	"github.com/michaelzixizhou/codag/pkg/pack"
)

// Finalize translates every workflow's local layout into global canvas
// coordinates using the packer offsets and writes final positions back onto
// the group's nodes.
//
// Each workflow's translation is its packer offset minus its local bounding
// box origin, so routes that bow into negative local space stay inside the
// packed box. Group bounds are the packer-computed boxes, not recomputed
// from node extents; recomputation could disagree with packing and produce
// visual seams between adjacent workflows. Component bounds are recomputed
// from final member positions. Every coordinate is rounded to integers to
// avoid sub-pixel drift across repeated passes on near-identical input.
func Finalize(arranged []*layout.Result, offsets []pack.Offset, groups []*graph.WorkflowGroup) *graph.Layout {
	byID := make(map[string]*graph.WorkflowGroup, len(groups))
	for _, grp := range groups {
		byID[grp.ID] = grp
	}

	out := &graph.Layout{
		Routes: make(map[string]graph.EdgeRoute),
		Labels: make(map[string]graph.Point),
	}

	for i, res := range arranged {
		grp := byID[res.GroupID]
		if grp == nil {
			continue
		}
		dx := offsets[i].X - res.Bounds.X
		dy := offsets[i].Y - res.Bounds.Y

		placed := make(map[string]layout.PlacedNode, len(res.Nodes))
		for id, pn := range res.Nodes {
			pn.Center = pn.Center.Translate(dx, dy).Round()
			placed[id] = pn
		}

		for _, n := range grp.Nodes {
			pn, ok := placed[n.ID]
			if !ok {
				continue
			}
			n.X = pn.Center.X
			n.Y = pn.Center.Y
		}

		for key, route := range res.Routes {
			out.Routes[key] = translateRoute(route, dx, dy)
		}
		for key, lp := range res.Labels {
			out.Labels[key] = lp.Translate(dx, dy).Round()
		}

		bounds := graph.Rect{
			X:      offsets[i].X,
			Y:      offsets[i].Y,
			Width:  res.Bounds.Width,
			Height: res.Bounds.Height,
		}.Round()
		grp.Bounds = &bounds
		center := graph.Point{X: bounds.CenterX(), Y: bounds.CenterY()}.Round()
		grp.CenterX = center.X
		grp.CenterY = center.Y

		for _, comp := range grp.Components {
			finalizeComponent(comp, placed)
		}

		out.Groups = append(out.Groups, grp)
		if bounds.Right() > out.Width {
			out.Width = bounds.Right()
		}
		if bounds.Bottom() > out.Height {
			out.Height = bounds.Bottom()
		}
	}

	return out
}

// finalizeComponent recomputes a component's bounds from final positions: a
// collapsed component takes its placeholder's box, an expanded one the
// union of its placed members' boxes.
func finalizeComponent(comp *graph.Component, placed map[string]layout.PlacedNode) {
	if comp.Collapsed {
		pn, ok := placed[comp.PlaceholderID()]
		if !ok {
			return
		}
		bounds := boxOf(pn)
		comp.Bounds = &bounds
		comp.CenterX = pn.Center.X
		comp.CenterY = pn.Center.Y
		return
	}

	var bounds graph.Rect
	first := true
	for _, n := range comp.Nodes {
		pn, ok := placed[n.ID]
		if !ok {
			continue
		}
		box := boxOf(pn)
		if first {
			bounds = box
			first = false
		} else {
			bounds = bounds.Union(box)
		}
	}
	if first {
		return
	}
	comp.Bounds = &bounds
	center := graph.Point{X: bounds.CenterX(), Y: bounds.CenterY()}.Round()
	comp.CenterX = center.X
	comp.CenterY = center.Y
}

// boxOf converts a centroid-anchored placed node into its integer rect.
func boxOf(pn layout.PlacedNode) graph.Rect {
	return graph.Rect{
		X:      pn.Center.X - pn.Width/2,
		Y:      pn.Center.Y - pn.Height/2,
		Width:  pn.Width,
		Height: pn.Height,
	}.Round()
}

func translateRoute(route graph.EdgeRoute, dx, dy float64) graph.EdgeRoute {
	route.StartPoint = route.StartPoint.Translate(dx, dy).Round()
	route.EndPoint = route.EndPoint.Translate(dx, dy).Round()
	if len(route.BendPoints) > 0 {
		bends := make([]graph.Point, len(route.BendPoints))
		for i, p := range route.BendPoints {
			bends[i] = p.Translate(dx, dy).Round()
		}
		route.BendPoints = bends
	}
	return route
}
