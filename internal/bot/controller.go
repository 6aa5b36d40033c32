package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lkarlslund/gatherbot/internal/frame"
)

// FrameSource produces screen captures. The caller owns the returned frame.
type FrameSource interface {
	Capture(ctx context.Context) (*frame.Frame, error)
}

// Phase binds a top level state to the unit that does its work and the
// state that follows once that unit is done.
type Phase struct {
	State State
	Unit  *Unit
	Next  State
	// Preempt, when set, is checked every tick while the phase's unit is
	// active; returning true finishes the unit early.
	Preempt func() bool
}

type Config struct {
	Tick    time.Duration
	Initial State
}

type ControllerOption func(*Controller)

// WithRunner replaces the inline runner.
func WithRunner(r Runner) ControllerOption {
	return func(c *Controller) { c.runner = r }
}

// WithWatcher stops the controller once the watcher stops running.
func WithWatcher(w *Watcher) ControllerOption {
	return func(c *Controller) { c.watcher = w }
}

// Controller owns the shared frame and the phase table. At most one unit is
// active (not Idle) at any time.
type Controller struct {
	logger  *zap.Logger
	cfg     Config
	source  FrameSource
	latest  *frame.Latest
	runner  Runner
	watcher *Watcher

	phases map[State]Phase
	units  []*Unit

	running atomic.Bool

	mu     sync.Mutex
	state  State
	active *Unit
}

func NewController(logger *zap.Logger, cfg Config, source FrameSource, phases []Phase, opts ...ControllerOption) (*Controller, error) {
	if source == nil {
		return nil, errors.New("controller needs a frame source")
	}
	if cfg.Tick <= 0 {
		return nil, fmt.Errorf("invalid tick %v", cfg.Tick)
	}
	c := &Controller{
		logger: logger.Named("controller"),
		cfg:    cfg,
		source: source,
		latest: &frame.Latest{},
		phases: make(map[State]Phase, len(phases)),
		state:  Init,
	}
	for _, p := range phases {
		if p.State == Init {
			return nil, errors.New("INIT cannot have a unit")
		}
		if p.Unit == nil {
			return nil, fmt.Errorf("phase %v has no unit", p.State)
		}
		if _, dup := c.phases[p.State]; dup {
			return nil, fmt.Errorf("phase %v declared twice", p.State)
		}
		c.phases[p.State] = p
		c.units = append(c.units, p.Unit)
	}
	for _, p := range phases {
		if _, ok := c.phases[p.Next]; !ok {
			return nil, fmt.Errorf("phase %v continues to undeclared %v", p.State, p.Next)
		}
	}
	if _, ok := c.phases[cfg.Initial]; !ok {
		return nil, fmt.Errorf("initial phase %v not declared", cfg.Initial)
	}
	c.runner = NewInlineRunner(c.logger)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Controller) Start() {
	c.logger.Info("Started")
	c.running.Store(true)
	for _, u := range c.units {
		u.Start()
	}
}

// Stop halts the controller and every unit.
func (c *Controller) Stop() {
	if !c.running.Swap(false) {
		return
	}
	for _, u := range c.units {
		u.Stop()
	}
	c.logger.Info("Stopped")
}

func (c *Controller) Running() bool { return c.running.Load() }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SetState(s State) {
	c.mu.Lock()
	old := c.state
	c.state = s
	c.mu.Unlock()
	if old != s {
		c.logger.Info("phase", zap.Stringer("from", old), zap.Stringer("to", s))
	}
}

// Active returns the unit currently driving the bot, nil between phases.
func (c *Controller) Active() *Unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Units returns the units in phase declaration order.
func (c *Controller) Units() []*Unit { return c.units }

// Latest is the shared frame handed to units.
func (c *Controller) Latest() *frame.Latest { return c.latest }

// Run starts the controller and its units and loops until the watcher stops,
// Stop is called or ctx ends. A capture failure ends the run with an error.
func (c *Controller) Run(ctx context.Context) error {
	c.Start()
	defer c.latest.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.runner.Run(gctx, c.latest, c.units)
	})
	g.Go(func() error {
		defer c.Stop()
		return c.loop(gctx)
	})
	err := g.Wait()
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

func (c *Controller) loop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Tick)
	defer ticker.Stop()
	for c.Running() {
		if c.watcher != nil && !c.watcher.Running() {
			c.logger.Info("Watcher stopped, shutting down")
			return nil
		}
		if err := c.Tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Tick runs one controller iteration: capture, publish, feed the units and
// advance the phase machine.
func (c *Controller) Tick(ctx context.Context) error {
	f, err := c.source.Capture(ctx)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	c.latest.Publish(f)
	c.runner.Tick(ctx, c.latest, c.units)
	c.manageState(ctx)
	return nil
}

func (c *Controller) manageState(ctx context.Context) {
	state := c.State()
	if state == Init {
		for _, u := range c.units {
			u.SetState(Idle)
		}
		c.SetState(c.cfg.Initial)
		return
	}
	phase := c.phases[state]
	active := c.Active()

	if active == phase.Unit && phase.Preempt != nil && phase.Preempt() {
		if active.transition(Start, Done) {
			c.logger.Info("preempted", zap.String("unit", active.Name()), zap.Stringer("phase", state))
		}
	}

	if active != nil && active.State() == Done {
		if active.Stepping() {
			c.logger.Debug("waiting for step to return", zap.String("unit", active.Name()))
			return
		}
		active.SetState(Idle)
		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()
		c.SetState(phase.Next)
		return
	}

	if active == nil && phase.Unit.State() == Idle {
		phase.Unit.Activate(ctx)
		c.mu.Lock()
		c.active = phase.Unit
		c.mu.Unlock()
	}
}
