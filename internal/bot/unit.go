package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/frame"
)

// Outcome is what a behavior reports after one step.
type Outcome int

const (
	InProgress Outcome = iota
	Finished
)

// Behavior is the task specific part of a unit: mount, navigate, gather.
// Step is only ever called while the unit is in Start, with a frame the
// behavior must treat as read only.
type Behavior interface {
	Name() string
	Step(ctx context.Context, f *frame.Frame) (Outcome, error)
}

// Resetter is implemented by behaviors that keep per-activation state.
// Reset is called each time the unit enters Start.
type Resetter interface {
	Reset()
}

// Observer is implemented by behaviors that need to look at every frame,
// whatever their state. Observe must not act on the game.
type Observer interface {
	Observe(ctx context.Context, f *frame.Frame) error
}

// Unit runs a Behavior inside the uniform IDLE -> START -> DONE -> IDLE
// machine. Only the controller moves a unit out of Idle and out of Done.
//
// Every activation gets its own context. It is cancelled as soon as the
// unit leaves Start, so a Step still in flight stops acting on the game.
type Unit struct {
	logger   *zap.Logger
	behavior Behavior
	running  atomic.Bool

	mu       sync.Mutex
	state    UnitState
	stepCtx  context.Context
	cancel   context.CancelFunc
	stepping bool
}

func NewUnit(logger *zap.Logger, b Behavior) *Unit {
	return &Unit{
		logger:   logger.Named(b.Name()),
		behavior: b,
		state:    Idle,
	}
}

func (u *Unit) Name() string { return u.behavior.Name() }

// Behavior returns the wrapped behavior.
func (u *Unit) Behavior() Behavior { return u.behavior }

func (u *Unit) Start() {
	u.logger.Info("Started")
	u.running.Store(true)
}

func (u *Unit) Stop() {
	if u.running.Swap(false) {
		u.logger.Info("Stopped")
	}
	u.mu.Lock()
	u.release()
	u.mu.Unlock()
}

func (u *Unit) Running() bool { return u.running.Load() }

func (u *Unit) State() UnitState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// SetState forces the unit into s. Entering Start opens a fresh activation
// bound to the background context; the controller uses Activate instead.
func (u *Unit) SetState(s UnitState) {
	if s == Start {
		u.Activate(context.Background())
		return
	}
	u.mu.Lock()
	old := u.state
	u.state = s
	u.release()
	u.mu.Unlock()
	if old != s {
		u.logger.Debug("state", zap.Stringer("from", old), zap.Stringer("to", s))
	}
}

// Activate moves the unit into Start with a step context derived from
// parent. Behaviors implementing Resetter are reset first.
func (u *Unit) Activate(parent context.Context) {
	u.mu.Lock()
	if r, ok := u.behavior.(Resetter); ok {
		r.Reset()
	}
	u.release()
	old := u.state
	u.state = Start
	u.stepCtx, u.cancel = context.WithCancel(parent)
	u.mu.Unlock()
	if old != Start {
		u.logger.Debug("state", zap.Stringer("from", old), zap.Stringer("to", Start))
	}
}

// Stepping reports whether a Step call is still in flight.
func (u *Unit) Stepping() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stepping
}

// release cancels the current activation. Callers hold mu.
func (u *Unit) release() {
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
}

// transition moves from -> to only if the unit is still in from.
func (u *Unit) transition(from, to UnitState) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != from {
		return false
	}
	u.state = to
	if to != Start {
		u.release()
	}
	return true
}

// begin claims the current activation for one Step call.
func (u *Unit) begin() (context.Context, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != Start || u.stepCtx == nil || u.stepCtx.Err() != nil {
		return nil, false
	}
	u.stepping = true
	return u.stepCtx, true
}

func (u *Unit) end() {
	u.mu.Lock()
	u.stepping = false
	u.mu.Unlock()
}

// Tick feeds one frame to the unit. Observers see every frame; Step only
// runs while the unit is started.
func (u *Unit) Tick(ctx context.Context, f *frame.Frame) error {
	if !u.Running() {
		return nil
	}
	if obs, ok := u.behavior.(Observer); ok {
		if err := obs.Observe(ctx, f); err != nil {
			return fmt.Errorf("%s observe: %w", u.Name(), err)
		}
	}
	stepCtx, ok := u.begin()
	if !ok {
		return nil
	}
	outcome, err := u.behavior.Step(stepCtx, f)
	u.end()
	if err != nil {
		if stepCtx.Err() != nil && errors.Is(err, stepCtx.Err()) {
			u.logger.Debug("step cancelled")
			return nil
		}
		return fmt.Errorf("%s step: %w", u.Name(), err)
	}
	if outcome == Finished && u.transition(Start, Done) {
		u.logger.Info("Done")
	}
	return nil
}
