package geom

import (
	"fmt"
	"image"
)

// Polygon is an irregular capture region, like the diamond shaped world map.
type Polygon struct {
	points []image.Point
}

func NewPolygon(points ...image.Point) (Polygon, error) {
	if len(points) < 4 {
		return Polygon{}, fmt.Errorf("%w: got %d", ErrInvalidPolygon, len(points))
	}
	p := make([]image.Point, len(points))
	copy(p, points)
	return Polygon{points: p}, nil
}

// Diamond returns the four point polygon spanning radius around origin.
func Diamond(origin, radius image.Point) Polygon {
	p, _ := NewPolygon(
		image.Pt(origin.X-radius.X, origin.Y),
		image.Pt(origin.X, origin.Y-radius.Y),
		image.Pt(origin.X+radius.X, origin.Y),
		image.Pt(origin.X, origin.Y+radius.Y),
	)
	return p
}

// Points returns a copy of the vertices.
func (p Polygon) Points() []image.Point {
	out := make([]image.Point, len(p.points))
	copy(out, p.points)
	return out
}

// Bounds is the smallest rectangle containing every vertex.
func (p Polygon) Bounds() Rect {
	if len(p.points) == 0 {
		return Rect{}
	}
	min, max := p.points[0], p.points[0]
	for _, pt := range p.points[1:] {
		if pt.X < min.X {
			min.X = pt.X
		}
		if pt.Y < min.Y {
			min.Y = pt.Y
		}
		if pt.X > max.X {
			max.X = pt.X
		}
		if pt.Y > max.Y {
			max.Y = pt.Y
		}
	}
	return Rect{Min: min, Max: max}
}
