package vision

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
)

// LocalizerConfig describes where the agent indicator is on screen and how to
// search for it inside the reference map.
type LocalizerConfig struct {
	Indicator geom.Rect // minimap region around the agent marker
	Scale     float64   // indicator to reference map scale
	Start     float32
	Floor     float32
	Step      float32
}

// Localizer resolves the agent position on the reference map by matching the
// minimap crop at decreasing confidence until something is found.
type Localizer struct {
	logger    *zap.Logger
	searcher  Searcher
	reference *frame.Frame
	cfg       LocalizerConfig
	schedule  []float32
}

// NewLocalizer does not take ownership of reference.
func NewLocalizer(logger *zap.Logger, searcher Searcher, reference *frame.Frame, cfg LocalizerConfig) (*Localizer, error) {
	if reference.Empty() {
		return nil, fmt.Errorf("localizer: %w", frame.ErrEmpty)
	}
	if cfg.Indicator.Empty() {
		return nil, fmt.Errorf("localizer: empty indicator region")
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	schedule, err := ConfidenceSchedule(cfg.Start, cfg.Floor, cfg.Step)
	if err != nil {
		return nil, fmt.Errorf("localizer: %w", err)
	}
	return &Localizer{
		logger:    logger.Named("localizer"),
		searcher:  searcher,
		reference: reference,
		cfg:       cfg,
		schedule:  schedule,
	}, nil
}

// ConfidenceSchedule lists start, start-step, ... down to and including floor.
// It is computed by index so float drift cannot add or drop steps. That is
// ceil((start-floor)/step)+1 entries with the floor included, so 0.85 down to
// 0.6 by 0.01 makes 26 attempts.
func ConfidenceSchedule(start, floor, step float32) ([]float32, error) {
	if step <= 0 || start > 1 || floor <= 0 || floor > start {
		return nil, fmt.Errorf("invalid confidence range %v..%v step %v", start, floor, step)
	}
	n := int(math.Ceil(float64(start-floor)/float64(step) - 1e-4))
	out := make([]float32, 0, n+1)
	for i := 0; i <= n; i++ {
		c := start - float32(i)*step
		if c < floor {
			c = floor
		}
		out = append(out, c)
	}
	return out, nil
}

// Schedule returns the confidences Locate tries, in order.
func (l *Localizer) Schedule() []float32 {
	return append([]float32(nil), l.schedule...)
}

// Locate returns the agent position in reference map coordinates. ok is
// false when no confidence step matched; callers skip the tick.
func (l *Localizer) Locate(f *frame.Frame) (pos geom.Point, ok bool, err error) {
	crop, err := f.Crop(l.cfg.Indicator)
	if err != nil {
		return geom.Point{}, false, fmt.Errorf("indicator crop: %w", err)
	}
	defer crop.Close()

	needle, err := crop.Resize(l.cfg.Scale)
	if err != nil {
		return geom.Point{}, false, err
	}
	defer needle.Close()

	for _, confidence := range l.schedule {
		result, err := l.searcher.Match(needle, l.reference, confidence, nil)
		if err != nil {
			return geom.Point{}, false, err
		}
		if r, found := result.First(); found {
			l.logger.Debug("located",
				zap.Stringer("position", r.Center()),
				zap.Float32("confidence", confidence),
				zap.Int("hits", result.Len()))
			return r.Center(), true, nil
		}
	}
	return geom.Point{}, false, nil
}
