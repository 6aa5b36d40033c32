package bot

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lkarlslund/gatherbot/internal/frame"
)

// Runner decides where unit ticks execute. Tick is called by the controller
// once per loop after a new frame was published; Run is started alongside
// the controller loop and returns once every unit stopped or ctx ends.
type Runner interface {
	Tick(ctx context.Context, latest *frame.Latest, units []*Unit)
	Run(ctx context.Context, latest *frame.Latest, units []*Unit) error
}

// InlineRunner ticks every unit on the controller goroutine, all units
// sharing one snapshot per tick.
type InlineRunner struct {
	logger *zap.Logger
}

func NewInlineRunner(logger *zap.Logger) *InlineRunner {
	return &InlineRunner{logger: logger}
}

func (r *InlineRunner) Tick(ctx context.Context, latest *frame.Latest, units []*Unit) {
	f, _, ok := latest.Snapshot()
	if !ok {
		return
	}
	defer f.Close()
	for _, u := range units {
		if err := u.Tick(ctx, f); err != nil {
			r.logger.Warn("unit tick failed", zap.String("unit", u.Name()), zap.Error(err))
		}
	}
}

func (r *InlineRunner) Run(ctx context.Context, latest *frame.Latest, units []*Unit) error {
	return nil
}

// BackgroundRunner gives each unit its own goroutine. Units poll the shared
// Latest and only act on frames they have not seen yet.
type BackgroundRunner struct {
	logger   *zap.Logger
	interval time.Duration
}

func NewBackgroundRunner(logger *zap.Logger, interval time.Duration) *BackgroundRunner {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &BackgroundRunner{logger: logger, interval: interval}
}

func (r *BackgroundRunner) Tick(ctx context.Context, latest *frame.Latest, units []*Unit) {}

func (r *BackgroundRunner) Run(ctx context.Context, latest *frame.Latest, units []*Unit) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, u := range units {
		u := u
		g.Go(func() error {
			r.loop(ctx, latest, u)
			return nil
		})
	}
	return g.Wait()
}

func (r *BackgroundRunner) loop(ctx context.Context, latest *frame.Latest, u *Unit) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var seen uint64
	for u.Running() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if latest.Seq() == seen {
			continue
		}
		f, seq, ok := latest.Snapshot()
		if !ok {
			continue
		}
		seen = seq
		if err := u.Tick(ctx, f); err != nil {
			r.logger.Warn("unit tick failed", zap.String("unit", u.Name()), zap.Error(err))
		}
		f.Close()
	}
}
