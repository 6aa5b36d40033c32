package geom

import (
	"fmt"
	"image"
)

// Rect is an axis aligned pixel rectangle. Max is exclusive, like image.Rectangle.
type Rect struct {
	Min, Max image.Point
}

// NewRect builds a rectangle from its top left and bottom right corners.
func NewRect(topLeft, bottomRight image.Point) (Rect, error) {
	if bottomRight.X < topLeft.X || bottomRight.Y < topLeft.Y {
		return Rect{}, fmt.Errorf("%w: %v is not below/right of %v", ErrInvalidRect, bottomRight, topLeft)
	}
	return Rect{Min: topLeft, Max: bottomRight}, nil
}

// RectWH builds a rectangle from its top left corner and size.
func RectWH(topLeft image.Point, width, height int) (Rect, error) {
	if width < 0 || height < 0 {
		return Rect{}, fmt.Errorf("%w: negative size %dx%d", ErrInvalidRect, width, height)
	}
	return Rect{Min: topLeft, Max: topLeft.Add(image.Pt(width, height))}, nil
}

// Square returns the rectangle of side 2*radius centered on c.
func Square(c image.Point, radius int) Rect {
	return Rect{
		Min: image.Pt(c.X-radius, c.Y-radius),
		Max: image.Pt(c.X+radius, c.Y+radius),
	}
}

func FromImageRect(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{Min: r.Min, Max: r.Max}
}

func (r Rect) Width() int  { return r.Max.X - r.Min.X }
func (r Rect) Height() int { return r.Max.Y - r.Min.Y }

func (r Rect) TopLeft() image.Point     { return r.Min }
func (r Rect) BottomRight() image.Point { return r.Max }

// Center is the exact midpoint, which is consistent with both corner and size
// forms of the rectangle.
func (r Rect) Center() Point {
	return Point{
		X: float64(r.Min.X+r.Max.X) / 2,
		Y: float64(r.Min.Y+r.Max.Y) / 2,
	}
}

// Translate moves the rectangle by d.
func (r Rect) Translate(d image.Point) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

func (r Rect) Image() image.Rectangle {
	return image.Rectangle{Min: r.Min, Max: r.Max}
}

// In reports whether r fits completely inside o.
func (r Rect) In(o Rect) bool {
	return r.Image().In(o.Image())
}

func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("%v-%v", r.Min, r.Max)
}
