package vision

import (
	"fmt"
	"image"
	"sort"

	"github.com/lkarlslund/gatherbot/internal/frame"
)

// Detector finds labelled objects in a frame.
type Detector interface {
	Detect(f *frame.Frame, confidence float32) ([]Detection, error)
}

// PatternDetector is a Detector backed by labelled reference patterns run
// through the matcher. It needs no model and is what dry runs use.
type PatternDetector struct {
	matcher *Matcher
	labels  map[string]*Pattern
}

func NewPatternDetector(matcher *Matcher, labels map[string]*Pattern) *PatternDetector {
	return &PatternDetector{matcher: matcher, labels: labels}
}

func (d *PatternDetector) Detect(f *frame.Frame, confidence float32) ([]Detection, error) {
	names := make([]string, 0, len(d.labels))
	for n := range d.labels {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []Detection
	for _, label := range names {
		p := d.labels[label]
		c := confidence
		if c <= 0 {
			c = p.Confidence
		}
		result, err := d.matcher.Match(p.Frame, f, c, nil)
		if err != nil {
			return nil, fmt.Errorf("detecting %s: %w", label, err)
		}
		for _, r := range result.Locations {
			out = append(out, Detection{Label: label, Confidence: c, Rect: r})
		}
	}
	return out, nil
}

// nms drops boxes overlapping a higher scored box by more than iou.
func nms(dets []Detection, iou float64) []Detection {
	sort.SliceStable(dets, func(i, j int) bool { return dets[i].Confidence > dets[j].Confidence })
	var kept []Detection
	for _, d := range dets {
		keep := true
		for _, k := range kept {
			if overlap(d.Rect.Image(), k.Rect.Image()) > iou {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, d)
		}
	}
	return kept
}

func overlap(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := inter.Dx() * inter.Dy()
	union := a.Dx()*a.Dy() + b.Dx()*b.Dy() - ia
	if union <= 0 {
		return 0
	}
	return float64(ia) / float64(union)
}
