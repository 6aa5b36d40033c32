package units

import (
	"context"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/bot"
	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
	"github.com/lkarlslund/gatherbot/internal/input"
	"github.com/lkarlslund/gatherbot/internal/vision"
)

type GatherConfig struct {
	Labels     []string
	Confidence float32
	Screen     image.Point
	// Cue, when set, is visible while a gather action is in progress.
	Cue       *vision.Pattern
	CueRegion *geom.Rect
}

// Gather looks for resource nodes on every frame and, while started,
// harvests the one closest to the screen centre until none are left.
type Gather struct {
	logger   *zap.Logger
	detector vision.Detector
	matcher  PatternMatcher
	injector input.Injector
	cfg      GatherConfig
	labels   map[string]bool

	mu      sync.Mutex
	targets []vision.Detection
}

func NewGather(logger *zap.Logger, detector vision.Detector, matcher PatternMatcher, injector input.Injector, cfg GatherConfig) *Gather {
	labels := make(map[string]bool, len(cfg.Labels))
	for _, l := range cfg.Labels {
		labels[l] = true
	}
	return &Gather{
		logger:   logger.Named("gather"),
		detector: detector,
		matcher:  matcher,
		injector: injector,
		cfg:      cfg,
		labels:   labels,
	}
}

func (g *Gather) Name() string { return "gather" }

func (g *Gather) Observe(ctx context.Context, f *frame.Frame) error {
	dets, err := g.detector.Detect(f, g.cfg.Confidence)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	targets := make([]vision.Detection, 0, len(dets))
	for _, d := range dets {
		if len(g.labels) == 0 || g.labels[d.Label] {
			targets = append(targets, d)
		}
	}
	g.mu.Lock()
	g.targets = targets
	g.mu.Unlock()
	return nil
}

// Targets returns a copy of the last detections.
func (g *Gather) Targets() []vision.Detection {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]vision.Detection(nil), g.targets...)
}

func (g *Gather) HasTargets() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.targets) > 0
}

func (g *Gather) Step(ctx context.Context, f *frame.Frame) (bot.Outcome, error) {
	targets := g.Targets()
	if len(targets) == 0 {
		return bot.Finished, nil
	}
	if g.cfg.Cue != nil {
		busy, err := visible(g.matcher, g.cfg.Cue, f, g.cfg.CueRegion)
		if err != nil {
			return bot.InProgress, fmt.Errorf("gathering cue: %w", err)
		}
		if busy {
			return bot.InProgress, nil
		}
	}

	t := nearest(targets, geom.Pt(float64(g.cfg.Screen.X)/2, float64(g.cfg.Screen.Y)/2))
	aim := t.Rect.Center().Image()
	g.logger.Info("Gathering", zap.String("label", t.Label), zap.Float32("confidence", t.Confidence), zap.Stringer("at", aim))
	return bot.InProgress, input.MoveClick(ctx, g.injector, aim)
}

// nearest picks the detection closest to p, earliest on ties.
func nearest(dets []vision.Detection, p geom.Point) vision.Detection {
	best := dets[0]
	bestDist := best.Rect.Center().Dist(p)
	for _, d := range dets[1:] {
		if dist := d.Rect.Center().Dist(p); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}
