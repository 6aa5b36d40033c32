package vision

import (
	"fmt"
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
)

// Searcher finds a reference inside a frame. Matcher is the real one.
type Searcher interface {
	Match(ref, search *frame.Frame, confidence float32, crop *geom.Rect) (*DetectionSet, error)
}

// Matcher locates every occurrence of a reference pattern using normalized
// cross correlation on intensity images.
type Matcher struct {
	logger *zap.Logger
	method gocv.TemplateMatchMode
}

func NewMatcher(logger *zap.Logger) *Matcher {
	return &Matcher{
		logger: logger.Named("matcher"),
		method: gocv.TmCcoeffNormed,
	}
}

// Match searches ref inside search, or inside crop of it when crop is set.
// No match is an empty set, not an error. Neither frame is modified.
func (m *Matcher) Match(ref, search *frame.Frame, confidence float32, crop *geom.Rect) (*DetectionSet, error) {
	if confidence <= 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %v outside (0,1]", confidence)
	}
	if ref.Empty() || search.Empty() {
		return nil, frame.ErrEmpty
	}

	area := search.Bounds()
	if crop != nil {
		area = *crop
	}
	if area.Width() < ref.Width() || area.Height() < ref.Height() {
		return nil, fmt.Errorf("reference %v larger than search area %v", ref.Size(), area)
	}

	refGray, err := ref.Gray()
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	defer refGray.Close()

	src := search
	if crop != nil {
		if src, err = search.Crop(area); err != nil {
			return nil, err
		}
		defer src.Close()
	}
	gray, err := src.Gray()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer gray.Close()

	scores := gocv.NewMat()
	defer scores.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(gray.Mat(), refGray.Mat(), &scores, m.method, mask)

	values, err := scores.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("scores: %w", err)
	}
	cols := scores.Cols()
	var candidates []image.Point
	for i, v := range values {
		if v >= confidence {
			candidates = append(candidates, image.Pt(i%cols, i/cols))
		}
	}

	refSize := ref.Size()
	accepted := suppress(candidates, refSize, area.Max.Sub(area.Min))

	result := &DetectionSet{
		Reference:  geom.Rect{Max: refSize},
		Searched:   area,
		Confidence: confidence,
		Locations:  make([]geom.Rect, 0, len(accepted)),
	}
	for _, p := range accepted {
		loc := geom.Rect{Min: p, Max: p.Add(refSize)}
		result.Locations = append(result.Locations, loc.Translate(area.Min))
	}

	if len(candidates) > 0 {
		m.logger.Debug("match",
			zap.Int("candidates", len(candidates)),
			zap.Int("accepted", len(accepted)),
			zap.Float32("confidence", confidence))
	}
	return result, nil
}

// MatchPattern is Match using the pattern's own confidence.
func (m *Matcher) MatchPattern(p *Pattern, search *frame.Frame, crop *geom.Rect) (*DetectionSet, error) {
	return m.Match(p.Frame, search, p.Confidence, crop)
}
