// Package pack places independently laid-out workflow bounding boxes onto
// one canvas without overlap.
//
// Workflows vary wildly in size. Naive shelf packing degenerates into a
// single long strip, so the packer uses a corner-candidate heuristic: each
// new box tries the outer-corner anchor positions formed by the edges of
// every already-placed box and keeps the candidate whose center lands
// closest to the centroid of everything placed so far. The result clusters
// roughly radially and keeps the canvas close to square, which is what pan,
// zoom, and the minimap need downstream.
package pack

import (
	"math"
	"slices"

	"github.com/michaelzixizhou/codag/pkg/graph"
)

// DefaultMargin is the minimum spacing kept between any two packed boxes.
const DefaultMargin = 48.0

// Box is the size of one workflow's local bounding box.
type Box struct {
	Width  float64
	Height float64
}

// Offset is the global translation assigned to one workflow.
type Offset struct {
	X float64
	Y float64
}

// Pack computes non-overlapping global offsets for the given boxes, one per
// input, in input order. Every pair of placed boxes keeps at least margin
// spacing on all sides; a margin of 0 gets DefaultMargin.
//
// Placement order is by area descending (largest first), but the returned
// offsets line up with the input slice. After all placements the offsets are
// translated so the minimum x and y are zero.
func Pack(boxes []Box, margin float64) []Offset {
	if margin <= 0 {
		margin = DefaultMargin
	}
	if len(boxes) == 0 {
		return nil
	}
	// Margin is added to all sides of every box, so the spacing between two
	// boxes must be at least twice the margin.
	spacing := 2 * margin

	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		areaA := boxes[a].Width * boxes[a].Height
		areaB := boxes[b].Width * boxes[b].Height
		switch {
		case areaA > areaB:
			return -1
		case areaA < areaB:
			return 1
		default:
			return a - b
		}
	})

	offsets := make([]Offset, len(boxes))
	var placed []graph.Rect

	for rank, idx := range order {
		box := boxes[idx]
		var rect graph.Rect
		switch rank {
		case 0:
			rect = graph.Rect{X: 0, Y: 0, Width: box.Width, Height: box.Height}
		case 1:
			// Second box sits flush right of the first, top-aligned.
			rect = graph.Rect{X: placed[0].Right() + spacing, Y: placed[0].Y, Width: box.Width, Height: box.Height}
		default:
			rect = bestCandidate(placed, box, spacing)
		}
		placed = append(placed, rect)
		offsets[idx] = Offset{X: rect.X, Y: rect.Y}
	}

	// Normalize so the canvas origin is (0, 0).
	minX, minY := math.Inf(1), math.Inf(1)
	for _, r := range placed {
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
	}
	for i := range offsets {
		offsets[i].X -= minX
		offsets[i].Y -= minY
	}
	return offsets
}

// bestCandidate tries the corner anchor positions derived from every placed
// box and returns the non-overlapping one whose center is closest to the
// centroid of the placed set. With no valid candidate the box goes flush
// right of the current rightmost edge. spacing is the full required gap
// between boxes.
func bestCandidate(placed []graph.Rect, box Box, spacing float64) graph.Rect {
	cx, cy := centroid(placed)

	var xs, ys []float64
	for _, p := range placed {
		xs = append(xs, p.Right()+spacing, p.X-box.Width-spacing)
		ys = append(ys, p.Y, p.Bottom()-box.Height, p.Bottom()+spacing, p.Y-box.Height-spacing)
	}

	best := graph.Rect{}
	bestDist := math.Inf(1)
	found := false
	for _, x := range xs {
		for _, y := range ys {
			cand := graph.Rect{X: x, Y: y, Width: box.Width, Height: box.Height}
			if overlapsAny(cand, placed, spacing) {
				continue
			}
			dx := cand.CenterX() - cx
			dy := cand.CenterY() - cy
			dist := dx*dx + dy*dy
			// Strict less keeps the earliest candidate on ties, which is
			// deterministic because xs/ys follow placement order.
			if dist < bestDist {
				best = cand
				bestDist = dist
				found = true
			}
		}
	}
	if found {
		return best
	}

	rightmost := 0.0
	top := math.Inf(1)
	for _, p := range placed {
		rightmost = math.Max(rightmost, p.Right())
		top = math.Min(top, p.Y)
	}
	return graph.Rect{X: rightmost + spacing, Y: top, Width: box.Width, Height: box.Height}
}

// overlapsAny reports whether the candidate keeps the required spacing from
// every placed box.
func overlapsAny(cand graph.Rect, placed []graph.Rect, spacing float64) bool {
	padded := cand.Inflate(spacing / 2)
	for _, p := range placed {
		if padded.Intersects(p.Inflate(spacing / 2)) {
			return true
		}
	}
	return false
}

func centroid(rects []graph.Rect) (float64, float64) {
	var sx, sy float64
	for _, r := range rects {
		sx += r.CenterX()
		sy += r.CenterY()
	}
	n := float64(len(rects))
	return sx / n, sy / n
}
