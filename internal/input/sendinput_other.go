//go:build !windows

package input

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"
)

type SendInput struct{}

func NewSendInput(logger *zap.Logger, window uintptr) (*SendInput, error) {
	return nil, ErrUnsupported
}

func (s *SendInput) MoveTo(ctx context.Context, p image.Point) error { return ErrUnsupported }
func (s *SendInput) Click(ctx context.Context) error                 { return ErrUnsupported }
func (s *SendInput) Press(ctx context.Context, key string, hold time.Duration) error {
	return ErrUnsupported
}
