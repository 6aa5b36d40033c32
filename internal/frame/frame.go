// Package frame wraps gocv matrices into the captured screen frames the bot
// passes around. Every transformation on a Frame returns a new Frame; the
// receiver is never touched, so a frame can be handed to several searches in
// a row without snapshots. Frames own native memory and must be closed.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/lkarlslund/gatherbot/internal/geom"
)

var (
	ErrEmpty      = errors.New("empty frame")
	ErrOutOfFrame = errors.New("region outside frame")
)

type Frame struct {
	mat gocv.Mat
}

// FromMat takes ownership of m.
func FromMat(m gocv.Mat) *Frame {
	return &Frame{mat: m}
}

// FromImage copies img into a new 3 channel BGR frame.
func FromImage(img image.Image) (*Frame, error) {
	m, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}
	return &Frame{mat: m}, nil
}

// Load reads an image file from disk as BGR.
func Load(path string) (*Frame, error) {
	m := gocv.IMRead(path, gocv.IMReadColor)
	if m.Empty() {
		m.Close()
		return nil, fmt.Errorf("%w: could not read %s", ErrEmpty, path)
	}
	return &Frame{mat: m}, nil
}

// Mat exposes the underlying matrix for read only use.
func (f *Frame) Mat() gocv.Mat { return f.mat }

func (f *Frame) Width() int    { return f.mat.Cols() }
func (f *Frame) Height() int   { return f.mat.Rows() }
func (f *Frame) Channels() int { return f.mat.Channels() }
func (f *Frame) Empty() bool   { return f == nil || f.mat.Empty() }

// Size returns the width and height as a point.
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width(), f.Height())
}

// Bounds is the full frame rectangle.
func (f *Frame) Bounds() geom.Rect {
	return geom.Rect{Max: f.Size()}
}

func (f *Frame) Clone() *Frame {
	return &Frame{mat: f.mat.Clone()}
}

func (f *Frame) Close() error {
	if f == nil {
		return nil
	}
	return f.mat.Close()
}

// Crop copies out the region r.
func (f *Frame) Crop(r geom.Rect) (*Frame, error) {
	if f.Empty() {
		return nil, ErrEmpty
	}
	if r.Empty() || !r.In(f.Bounds()) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrOutOfFrame, r, f.Bounds())
	}
	region := f.mat.Region(r.Image())
	defer region.Close()
	return &Frame{mat: region.Clone()}, nil
}

// CropPolygon blacks out everything outside p and crops to its bounds.
func (f *Frame) CropPolygon(p geom.Polygon) (*Frame, error) {
	if f.Empty() {
		return nil, ErrEmpty
	}
	bounds := p.Bounds()
	if !bounds.In(f.Bounds()) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrOutOfFrame, bounds, f.Bounds())
	}

	mask := gocv.Zeros(f.Height(), f.Width(), gocv.MatTypeCV8UC1)
	defer mask.Close()
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{p.Points()})
	defer pv.Close()
	gocv.FillPoly(&mask, pv, color.RGBA{255, 255, 255, 0})

	masked := gocv.Zeros(f.Height(), f.Width(), f.mat.Type())
	defer masked.Close()
	f.mat.CopyToWithMask(&masked, mask)

	region := masked.Region(bounds.Image())
	defer region.Close()
	return &Frame{mat: region.Clone()}, nil
}

// Resize scales both axes by factor.
func (f *Frame) Resize(factor float64) (*Frame, error) {
	if f.Empty() {
		return nil, ErrEmpty
	}
	if factor <= 0 {
		return nil, fmt.Errorf("invalid resize factor %v", factor)
	}
	dst := gocv.NewMat()
	gocv.Resize(f.mat, &dst, image.Point{}, factor, factor, gocv.InterpolationLinear)
	return &Frame{mat: dst}, nil
}

// Gray returns a single channel intensity copy.
func (f *Frame) Gray() (*Frame, error) {
	if f.Empty() {
		return nil, ErrEmpty
	}
	dst := gocv.NewMat()
	switch f.Channels() {
	case 1:
		f.mat.CopyTo(&dst)
	case 3:
		gocv.CvtColor(f.mat, &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(f.mat, &dst, gocv.ColorBGRAToGray)
	default:
		dst.Close()
		return nil, fmt.Errorf("unsupported channel count %d", f.Channels())
	}
	return &Frame{mat: dst}, nil
}

// Save writes the frame to disk, format chosen by extension.
func (f *Frame) Save(path string) error {
	if !gocv.IMWrite(path, f.mat) {
		return fmt.Errorf("could not write %s", path)
	}
	return nil
}
