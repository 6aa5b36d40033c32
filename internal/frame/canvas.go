package frame

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/lkarlslund/gatherbot/internal/geom"
)

// Canvas is the mutable frame used by the live debug loop. Edits apply in
// place; Reset throws them away and restores the frame it was created from.
// Anything that crops and then needs the full frame again must Reset first.
type Canvas struct {
	pristine gocv.Mat
	current  gocv.Mat
}

// NewCanvas takes ownership of f.
func NewCanvas(f *Frame) *Canvas {
	return &Canvas{pristine: f.mat, current: f.mat.Clone()}
}

// Replace swaps in a new pristine frame, taking ownership of f.
func (c *Canvas) Replace(f *Frame) {
	c.pristine.Close()
	c.current.Close()
	c.pristine = f.mat
	c.current = f.mat.Clone()
}

func (c *Canvas) Reset() {
	c.current.Close()
	c.current = c.pristine.Clone()
}

func (c *Canvas) Mat() gocv.Mat { return c.current }

// Frame returns a copy of the current, possibly edited, state.
func (c *Canvas) Frame() *Frame {
	return &Frame{mat: c.current.Clone()}
}

func (c *Canvas) Crop(r geom.Rect) error {
	cur := Frame{mat: c.current}
	cropped, err := cur.Crop(r)
	if err != nil {
		return err
	}
	c.current.Close()
	c.current = cropped.mat
	return nil
}

func (c *Canvas) Resize(factor float64) error {
	cur := Frame{mat: c.current}
	resized, err := cur.Resize(factor)
	if err != nil {
		return err
	}
	c.current.Close()
	c.current = resized.mat
	return nil
}

func (c *Canvas) Rectangles(rects []geom.Rect, col color.RGBA) {
	for _, r := range rects {
		gocv.Rectangle(&c.current, r.Image(), col, 2)
	}
}

func (c *Canvas) Circles(points []image.Point, radius int, col color.RGBA) {
	for _, p := range points {
		gocv.Circle(&c.current, p, radius, col, -1)
	}
}

func (c *Canvas) Text(s string, at image.Point, col color.RGBA) {
	gocv.PutText(&c.current, s, at, gocv.FontHersheyPlain, 1, col, 2)
}

func (c *Canvas) Close() {
	c.current.Close()
	c.pristine.Close()
}
