package bot

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Trigger blocks until its stop condition fires (nil) or ctx ends.
type Trigger interface {
	Name() string
	Wait(ctx context.Context) error
}

// Watcher listens for a stop request on its own goroutine. The first trigger
// to fire flips Running to false; nothing ever flips it back.
type Watcher struct {
	logger   *zap.Logger
	triggers []Trigger
	running  atomic.Bool
	done     chan struct{}
}

func NewWatcher(logger *zap.Logger, triggers ...Trigger) *Watcher {
	w := &Watcher{
		logger:   logger.Named("watcher"),
		triggers: triggers,
		done:     make(chan struct{}),
	}
	w.running.Store(true)
	return w
}

func (w *Watcher) Running() bool { return w.running.Load() }

// Stop requests shutdown without a trigger.
func (w *Watcher) Stop() {
	if w.running.Swap(false) {
		w.logger.Info("Stop requested")
	}
}

// Done is closed once Run returned.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Run waits for the first trigger, ctx cancellation or Stop, then releases
// every trigger goroutine before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)

	type result struct {
		name string
		err  error
	}
	results := make(chan result, len(w.triggers))
	var wg sync.WaitGroup
	for _, t := range w.triggers {
		wg.Add(1)
		go func(t Trigger) {
			defer wg.Done()
			results <- result{t.Name(), t.Wait(ctx)}
		}(t)
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	pending := len(w.triggers)
	for w.Running() {
		select {
		case <-ctx.Done():
			w.running.Store(false)
			return nil
		case r := <-results:
			pending--
			if r.err != nil && ctx.Err() == nil {
				w.logger.Warn("trigger unavailable", zap.String("trigger", r.name), zap.Error(r.err))
				if pending == 0 && len(w.triggers) > 0 {
					w.logger.Warn("no stop trigger left, stop with Ctrl+C or context")
				}
				continue
			}
			w.logger.Info("Stop trigger fired", zap.String("trigger", r.name))
			w.running.Store(false)
		case <-poll.C:
		}
	}
	return nil
}

// ChanTrigger fires when its channel is closed or receives a value.
type ChanTrigger struct {
	C <-chan struct{}
}

func (t ChanTrigger) Name() string { return "channel" }

func (t ChanTrigger) Wait(ctx context.Context) error {
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SignalTrigger fires on any of the given OS signals.
type SignalTrigger struct {
	Signals []os.Signal
}

func (t SignalTrigger) Name() string { return "signal" }

func (t SignalTrigger) Wait(ctx context.Context) error {
	if len(t.Signals) == 0 {
		return errors.New("no signals configured")
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, t.Signals...)
	defer signal.Stop(ch)
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
