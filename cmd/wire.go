package cmd

import (
	"fmt"
	"image"
	"os"
	"syscall"

	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/bot"
	"github.com/lkarlslund/gatherbot/internal/capture"
	"github.com/lkarlslund/gatherbot/internal/config"
	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
	"github.com/lkarlslund/gatherbot/internal/input"
	"github.com/lkarlslund/gatherbot/internal/navigation"
	"github.com/lkarlslund/gatherbot/internal/units"
	"github.com/lkarlslund/gatherbot/internal/vision"
)

// rig holds every resource a command opened, so it can release them in one
// place.
type rig struct {
	logger   *zap.Logger
	cfg      *config.Config
	source   capture.Source
	window   uintptr
	origin   image.Point
	matcher  *vision.Matcher
	patterns *vision.Patterns
	worldMap *frame.Frame
	closers  []func()
}

func (r *rig) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

func newRig(logger *zap.Logger, cfg *config.Config) (_ *rig, err error) {
	r := &rig{logger: logger, cfg: cfg, matcher: vision.NewMatcher(logger)}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()

	if cfg.Screen.Replay != "" {
		replay, err := capture.NewReplay(cfg.Screen.Replay)
		if err != nil {
			return nil, err
		}
		logger.Info("Replaying captures", zap.String("dir", cfg.Screen.Replay), zap.Int("frames", replay.Len()))
		r.source = replay
	} else {
		w, err := capture.OpenWindow(logger, cfg.Screen.Window)
		if err != nil {
			return nil, fmt.Errorf("opening game window %q: %w", cfg.Screen.Window, err)
		}
		r.source = w
		r.window = w.Handle()
		if !w.IsForeground() {
			logger.Warn("Game window is not in the foreground, input will go to whatever window is")
		}
	}
	if err := r.restrict(); err != nil {
		return nil, err
	}

	specs := make([]vision.PatternSpec, 0, len(cfg.Patterns.Specs))
	for _, s := range cfg.Patterns.Specs {
		specs = append(specs, vision.PatternSpec{Name: s.Name, File: s.File, Confidence: s.Confidence, Scale: s.Scale})
	}
	r.patterns, err = vision.LoadPatterns(logger, cfg.Patterns.Dir, specs, cfg.Screen.Height)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, r.patterns.Close)

	r.worldMap, err = frame.Load(cfg.Localizer.Map)
	if err != nil {
		return nil, fmt.Errorf("loading map %s: %w", cfg.Localizer.Map, err)
	}
	r.closers = append(r.closers, func() { r.worldMap.Close() })
	return r, nil
}

func (r *rig) localizer() (*vision.Localizer, error) {
	l := r.cfg.Localizer
	return vision.NewLocalizer(r.logger, r.matcher, r.worldMap, vision.LocalizerConfig{
		Indicator: geom.Square(l.CenterPoint(), l.Radius),
		Scale:     l.Scale,
		Start:     l.Start,
		Floor:     l.Floor,
		Step:      l.Step,
	})
}

func (r *rig) navigator() (*navigation.Navigator, error) {
	n := r.cfg.Navigator
	positions := make([]geom.Point, 0, len(n.Nodes))
	for _, p := range n.Nodes {
		positions = append(positions, geom.Pt(p[0], p[1]))
	}
	return navigation.New(r.logger, navigation.Config{
		MinDistance: n.MinDistance,
		MaxDistance: n.MaxDistance,
		Cooldown:    n.Cooldown,
		Screen:      screen(r.cfg),
		OriginSkew:  n.OriginSkew,
		AimRadius:   n.AimRadius,
	}, positions)
}

// restrict crops the source to screen.region or screen.polygon, if set.
func (r *rig) restrict() error {
	s := r.cfg.Screen
	switch {
	case len(s.Region) == 4:
		rect := geom.FromImageRect(s.Region.Rect())
		r.source = capture.Region{Source: r.source, Rect: rect}
		r.origin = rect.Min
	case len(s.Polygon) > 0:
		p, err := geom.NewPolygon(s.PolygonPoints()...)
		if err != nil {
			return fmt.Errorf("screen.polygon: %w", err)
		}
		r.source = capture.PolygonRegion{Source: r.source, Polygon: p}
		r.origin = p.Bounds().Min
	default:
		return nil
	}
	r.logger.Info("Capture restricted", zap.Stringer("origin", r.origin))
	return nil
}

func (r *rig) injector() (input.Injector, error) {
	var inj input.Injector
	if r.cfg.Bot.DryRun {
		inj = input.NewRecorder(r.logger)
	} else {
		s, err := input.NewSendInput(r.logger, r.window)
		if err != nil {
			return nil, err
		}
		inj = s
	}
	if r.origin != (image.Point{}) {
		inj = input.NewOffset(inj, r.origin)
	}
	return input.NewPaced(inj, r.cfg.Input.Interval, r.cfg.Input.Burst), nil
}

func (r *rig) detector() (vision.Detector, error) {
	g := r.cfg.Gatherer
	if g.Detector == "dnn" {
		d, err := vision.NewDNN(r.logger, vision.DNNConfig{Model: g.Model, Classes: g.Classes, IoU: g.IoU, CUDA: g.CUDA})
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func() { d.Close() })
		return d, nil
	}
	labels := make(map[string]*vision.Pattern, len(g.Labels))
	for _, l := range g.Labels {
		p, err := r.patterns.Get(l)
		if err != nil {
			return nil, err
		}
		labels[l] = p
	}
	return vision.NewPatternDetector(r.matcher, labels), nil
}

// optionalPattern resolves name, treating an empty name as not configured.
func (r *rig) optionalPattern(name string) (*vision.Pattern, error) {
	if name == "" {
		return nil, nil
	}
	return r.patterns.Get(name)
}

// phases builds the mount, navigate, gather cycle.
func (r *rig) phases(inj input.Injector) ([]bot.Phase, error) {
	cfg := r.cfg

	castBar, err := r.patterns.Get(cfg.Mount.CastBar)
	if err != nil {
		return nil, err
	}
	mounted, err := r.patterns.Get(cfg.Mount.Mounted)
	if err != nil {
		return nil, err
	}
	mount, err := units.NewMount(r.logger, r.matcher, inj, units.MountConfig{
		Key:        cfg.Mount.Key,
		Hold:       cfg.Mount.Hold,
		Pause:      cfg.Mount.Pause,
		Casting:    geom.FromImageRect(cfg.Mount.Casting.Rect()),
		SkillPanel: geom.FromImageRect(cfg.Mount.SkillPanel.Rect()),
		CastBar:    castBar,
		Mounted:    mounted,
	})
	if err != nil {
		return nil, err
	}

	loc, err := r.localizer()
	if err != nil {
		return nil, err
	}
	nav, err := r.navigator()
	if err != nil {
		return nil, err
	}
	navigate := units.NewNavigate(r.logger, loc, nav, inj, cfg.Navigator.Arrivals)

	det, err := r.detector()
	if err != nil {
		return nil, err
	}
	cue, err := r.optionalPattern(cfg.Gatherer.Cue)
	if err != nil {
		return nil, err
	}
	var cueRegion *geom.Rect
	if len(cfg.Gatherer.CueRegion) == 4 {
		cr := geom.FromImageRect(cfg.Gatherer.CueRegion.Rect())
		cueRegion = &cr
	}
	gather := units.NewGather(r.logger, det, r.matcher, inj, units.GatherConfig{
		Labels:     cfg.Gatherer.Labels,
		Confidence: cfg.Gatherer.Confidence,
		Screen:     screen(cfg),
		Cue:        cue,
		CueRegion:  cueRegion,
	})

	return []bot.Phase{
		{State: bot.Mounting, Unit: bot.NewUnit(r.logger, mount), Next: bot.Navigating},
		{State: bot.Navigating, Unit: bot.NewUnit(r.logger, navigate), Next: bot.Gathering, Preempt: gather.HasTargets},
		{State: bot.Gathering, Unit: bot.NewUnit(r.logger, gather), Next: bot.Mounting},
	}, nil
}

func (r *rig) triggers() []bot.Trigger {
	triggers := []bot.Trigger{bot.SignalTrigger{Signals: []os.Signal{os.Interrupt, syscall.SIGTERM}}}
	if r.cfg.Watcher.Key != "" {
		triggers = append(triggers, bot.KeyTrigger{Key: r.cfg.Watcher.Key})
	}
	return triggers
}

func screen(cfg *config.Config) image.Point {
	return image.Pt(cfg.Screen.Width, cfg.Screen.Height)
}
