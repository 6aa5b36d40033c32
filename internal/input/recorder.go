package input

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Action is one recorded device event.
type Action struct {
	Kind string // "move", "click" or "press"
	At   image.Point
	Key  string
	Hold time.Duration
}

func (a Action) String() string {
	switch a.Kind {
	case "move":
		return fmt.Sprintf("move %v", a.At)
	case "press":
		return fmt.Sprintf("press %s %v", a.Key, a.Hold)
	}
	return a.Kind
}

// Recorder is an Injector that only logs and remembers what it was asked to
// do. The run command uses it for dry runs.
type Recorder struct {
	logger  *zap.Logger
	mu      sync.Mutex
	actions []Action
	pos     image.Point
}

func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger.Named("input")}
}

func (r *Recorder) record(a Action) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	r.logger.Info("Input", zap.Stringer("action", a))
}

func (r *Recorder) MoveTo(ctx context.Context, p image.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.pos = p
	r.mu.Unlock()
	r.record(Action{Kind: "move", At: p})
	return nil
}

func (r *Recorder) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	at := r.pos
	r.mu.Unlock()
	r.record(Action{Kind: "click", At: at})
	return nil
}

func (r *Recorder) Press(ctx context.Context, key string, hold time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.record(Action{Kind: "press", Key: key, Hold: hold})
	return nil
}

// Actions returns everything recorded so far.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Action(nil), r.actions...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.actions = nil
	r.mu.Unlock()
}
