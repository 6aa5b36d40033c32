package units

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/bot"
	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
	"github.com/lkarlslund/gatherbot/internal/input"
	"github.com/lkarlslund/gatherbot/internal/vision"
)

type MountConfig struct {
	Key   string
	Hold  time.Duration
	Pause time.Duration
	// Casting is where the cast bar shows while mounting.
	Casting geom.Rect
	// SkillPanel shows the mounted skill icon once mounted.
	SkillPanel geom.Rect
	CastBar    *vision.Pattern
	Mounted    *vision.Pattern
}

// Mount summons the mount and waits for the mounted skill bar.
type Mount struct {
	logger   *zap.Logger
	matcher  PatternMatcher
	injector input.Injector
	cfg      MountConfig
}

func NewMount(logger *zap.Logger, matcher PatternMatcher, injector input.Injector, cfg MountConfig) (*Mount, error) {
	if cfg.CastBar == nil || cfg.Mounted == nil {
		return nil, fmt.Errorf("mount: %w", vision.ErrPatternMissing)
	}
	return &Mount{logger: logger.Named("mount"), matcher: matcher, injector: injector, cfg: cfg}, nil
}

func (m *Mount) Name() string { return "mount" }

func (m *Mount) Step(ctx context.Context, f *frame.Frame) (bot.Outcome, error) {
	casting, err := visible(m.matcher, m.cfg.CastBar, f, &m.cfg.Casting)
	if err != nil {
		return bot.InProgress, fmt.Errorf("cast bar: %w", err)
	}
	if casting {
		return bot.InProgress, nil
	}
	mounted, err := visible(m.matcher, m.cfg.Mounted, f, &m.cfg.SkillPanel)
	if err != nil {
		return bot.InProgress, fmt.Errorf("skill panel: %w", err)
	}
	if mounted {
		return bot.Finished, nil
	}

	m.logger.Debug("Mounting", zap.String("key", m.cfg.Key))
	if err := m.injector.Press(ctx, m.cfg.Key, m.cfg.Hold); err != nil {
		return bot.InProgress, err
	}
	return bot.InProgress, pause(ctx, m.cfg.Pause)
}
