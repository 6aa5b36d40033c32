package vision

import (
	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
)

// Pattern is a reference image plus the confidence it is normally matched at.
type Pattern struct {
	Name       string
	Confidence float32
	Frame      *frame.Frame
}

func (p *Pattern) Close() error {
	return p.Frame.Close()
}

// DetectionSet is the deduplicated result of one matcher call. Locations are
// in full frame coordinates, in the order they were accepted.
type DetectionSet struct {
	Reference  geom.Rect // size of the reference pattern, at the origin
	Searched   geom.Rect // area that was searched, in frame coordinates
	Confidence float32
	Locations  []geom.Rect
}

func (d *DetectionSet) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Locations)
}

func (d *DetectionSet) Empty() bool { return d.Len() == 0 }

// First returns the first accepted location.
func (d *DetectionSet) First() (geom.Rect, bool) {
	if d.Empty() {
		return geom.Rect{}, false
	}
	return d.Locations[0], true
}

// Detection is one labelled box from an object detector.
type Detection struct {
	Label      string
	Confidence float32
	Rect       geom.Rect
}
