// Package input is the boundary to synthetic mouse and keyboard events.
package input

import (
	"context"
	"errors"
	"image"
	"time"
)

var ErrUnsupported = errors.New("input injection not supported on this platform")

// Injector sends device events to the game client. Humanizing movement is
// the injector's business, callers only name the destination.
type Injector interface {
	MoveTo(ctx context.Context, p image.Point) error
	Click(ctx context.Context) error
	Press(ctx context.Context, key string, hold time.Duration) error
}

// MoveClick moves to p and clicks there.
func MoveClick(ctx context.Context, inj Injector, p image.Point) error {
	if err := inj.MoveTo(ctx, p); err != nil {
		return err
	}
	return inj.Click(ctx)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
