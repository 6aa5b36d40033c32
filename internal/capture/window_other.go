//go:build !windows

package capture

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/frame"
)

type Window struct{}

func OpenWindow(logger *zap.Logger, title string) (*Window, error) {
	return nil, ErrUnsupported
}

func (w *Window) Handle() uintptr    { return 0 }
func (w *Window) IsForeground() bool { return false }
func (w *Window) Rect() (image.Rectangle, error) {
	return image.Rectangle{}, ErrUnsupported
}
func (w *Window) Capture(ctx context.Context) (*frame.Frame, error) {
	return nil, ErrUnsupported
}
