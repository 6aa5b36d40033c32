package vision

import "image"

// suppress runs the greedy accept-and-mask pass over candidates, which must
// be in correlation scan order. A candidate is kept when the mask is still
// clear at its would-be center; keeping it claims its whole reference sized
// footprint. area is the size of the searched region.
func suppress(candidates []image.Point, ref, area image.Point) []image.Point {
	if len(candidates) == 0 || area.X <= 0 || area.Y <= 0 {
		return nil
	}
	mask := make([]bool, area.X*area.Y)
	var accepted []image.Point
	for _, c := range candidates {
		cx, cy := c.X+ref.X/2, c.Y+ref.Y/2
		if cx < 0 || cy < 0 || cx >= area.X || cy >= area.Y {
			continue
		}
		if mask[cy*area.X+cx] {
			continue
		}
		accepted = append(accepted, c)

		maxY := min(c.Y+ref.Y, area.Y)
		maxX := min(c.X+ref.X, area.X)
		for y := max(c.Y, 0); y < maxY; y++ {
			row := mask[y*area.X : (y+1)*area.X]
			for x := max(c.X, 0); x < maxX; x++ {
				row[x] = true
			}
		}
	}
	return accepted
}
