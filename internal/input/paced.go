package input

import (
	"context"
	"image"
	"time"

	"golang.org/x/time/rate"
)

// Paced limits how fast actions reach the wrapped injector. A move followed
// by its click counts as one action.
type Paced struct {
	next    Injector
	limiter *rate.Limiter
}

// NewPaced allows one action per interval with a burst of burst.
func NewPaced(next Injector, interval time.Duration, burst int) *Paced {
	if burst < 1 {
		burst = 1
	}
	return &Paced{next: next, limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

func (p *Paced) MoveTo(ctx context.Context, pt image.Point) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.next.MoveTo(ctx, pt)
}

func (p *Paced) Click(ctx context.Context) error {
	return p.next.Click(ctx)
}

func (p *Paced) Press(ctx context.Context, key string, hold time.Duration) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	return p.next.Press(ctx, key, hold)
}
