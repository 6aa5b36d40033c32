package input

import (
	"context"
	"image"
	"time"
)

// Offset translates frame coordinates back to the screen when frames are
// cropped to a region whose top left corner is origin.
type Offset struct {
	next   Injector
	origin image.Point
}

func NewOffset(next Injector, origin image.Point) *Offset {
	return &Offset{next: next, origin: origin}
}

func (o *Offset) MoveTo(ctx context.Context, p image.Point) error {
	return o.next.MoveTo(ctx, p.Add(o.origin))
}

func (o *Offset) Click(ctx context.Context) error {
	return o.next.Click(ctx)
}

func (o *Offset) Press(ctx context.Context, key string, hold time.Duration) error {
	return o.next.Press(ctx, key, hold)
}
