// Package geom holds the screen-space value types shared by the vision and
// navigation code.
package geom

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	ErrInvalidRect    = errors.New("invalid rectangle")
	ErrInvalidPolygon = errors.New("polygon needs at least 4 points")
)

// Point is a screen coordinate. Screen y grows downward.
type Point struct {
	X, Y float64
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromImage converts a pixel position.
func FromImage(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Sub returns the plain difference p - o.
func (p Point) Sub(o Point) Vector {
	return Vector{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Point) Add(v Vector) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// Dist is the euclidean distance between two points.
func (p Point) Dist(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Image truncates to a pixel position.
func (p Point) Image() image.Point {
	return image.Point{X: int(p.X), Y: int(p.Y)}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Vector is a direction with magnitude.
type Vector struct {
	X, Y float64
}

func (v Vector) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// Angle in radians, counter clockwise from the positive x axis.
func (v Vector) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

func (v Vector) Scale(f float64) Vector {
	return Vector{X: v.X * f, Y: v.Y * f}
}
