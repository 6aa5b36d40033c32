package vision

import (
	"image"
	"image/color"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
)

var (
	ColorHit      = color.RGBA{128, 255, 128, 0}
	ColorLabel    = color.RGBA{255, 128, 128, 0}
	ColorNode     = color.RGBA{255, 255, 0, 0}
	ColorCooldown = color.RGBA{0, 0, 0, 0}
	ColorAgent    = color.RGBA{0, 0, 255, 0}
)

// DrawLabelled outlines detector output with its label.
func DrawLabelled(c *frame.Canvas, dets []Detection) {
	for _, d := range dets {
		c.Rectangles([]geom.Rect{d.Rect}, ColorLabel)
		c.Text(d.Label, d.Rect.Min.Add(image.Pt(4, 12)), ColorLabel)
	}
}

// DrawPoints marks positions, for nodes and the agent on the map.
func DrawPoints(c *frame.Canvas, points []geom.Point, col color.RGBA) {
	px := make([]image.Point, 0, len(points))
	for _, p := range points {
		px = append(px, p.Image())
	}
	c.Circles(px, 3, col)
}
