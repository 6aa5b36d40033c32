//go:build !windows

package bot

import (
	"context"
	"errors"
	"time"
)

// KeyTrigger is only available on Windows; elsewhere Wait fails at once and
// the watcher falls back on its other triggers.
type KeyTrigger struct {
	Key      string
	Interval time.Duration
}

func (t KeyTrigger) Name() string { return "key " + t.Key }

func (t KeyTrigger) Wait(ctx context.Context) error {
	return errors.New("hotkey trigger needs windows")
}
