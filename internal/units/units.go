// Package units has the concrete behaviors the controller sequences.
package units

import (
	"context"
	"time"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
	"github.com/lkarlslund/gatherbot/internal/vision"
)

// PatternMatcher finds a reference pattern inside a frame, optionally
// restricted to a crop.
type PatternMatcher interface {
	MatchPattern(p *vision.Pattern, search *frame.Frame, crop *geom.Rect) (*vision.DetectionSet, error)
}

// visible reports whether p shows up anywhere in region of f.
func visible(m PatternMatcher, p *vision.Pattern, f *frame.Frame, region *geom.Rect) (bool, error) {
	set, err := m.MatchPattern(p, f, region)
	if err != nil {
		return false, err
	}
	return !set.Empty(), nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
