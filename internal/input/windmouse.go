package input

import (
	"image"
	"math"
	"math/rand"
)

// WindMouse generates cursor paths that curve and wobble like a hand moved
// mouse: a constant pull toward the target (gravity) plus random drift
// (wind) that dies down close to the target.
type WindMouse struct {
	Gravity    float64 // pull toward the target
	Wind       float64 // random drift magnitude
	MaxStep    float64 // velocity clip
	TargetArea float64 // distance where drift starts to damp

	rnd *rand.Rand
}

func NewWindMouse(seed int64) *WindMouse {
	return &WindMouse{
		Gravity:    12,
		Wind:       3,
		MaxStep:    13,
		TargetArea: 13,
		rnd:        rand.New(rand.NewSource(seed)),
	}
}

const maxPathSteps = 10000

// Path returns the intermediate cursor positions from start to dest, without
// start and always ending exactly on dest.
func (w *WindMouse) Path(start, dest image.Point) []image.Point {
	sqrt3, sqrt5 := math.Sqrt(3), math.Sqrt(5)
	x, y := float64(start.X), float64(start.Y)
	dx, dy := float64(dest.X), float64(dest.Y)
	var vx, vy, wx, wy float64
	maxStep := w.MaxStep
	cur := start

	var path []image.Point
	for i := 0; i < maxPathSteps; i++ {
		dist := math.Hypot(dx-x, dy-y)
		if dist < 1 {
			break
		}
		wind := math.Min(w.Wind, dist)
		if dist >= w.TargetArea {
			wx = wx/sqrt3 + (2*w.rnd.Float64()-1)*wind/sqrt5
			wy = wy/sqrt3 + (2*w.rnd.Float64()-1)*wind/sqrt5
		} else {
			wx /= sqrt3
			wy /= sqrt3
			if maxStep < 3 {
				maxStep = w.rnd.Float64()*3 + 3
			} else {
				maxStep /= sqrt5
			}
		}
		vx += wx + w.Gravity*(dx-x)/dist
		vy += wy + w.Gravity*(dy-y)/dist
		if v := math.Hypot(vx, vy); v > maxStep {
			clip := maxStep/2 + w.rnd.Float64()*maxStep/2
			vx = vx / v * clip
			vy = vy / v * clip
		}
		x += vx
		y += vy

		next := image.Pt(int(math.Round(x)), int(math.Round(y)))
		if next != cur {
			path = append(path, next)
			cur = next
		}
	}
	if cur != dest {
		path = append(path, dest)
	}
	return path
}
