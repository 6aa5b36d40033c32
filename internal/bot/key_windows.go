//go:build windows

package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lxn/win"
)

// KeyTrigger fires when the hotkey is held down, checked by polling the
// async key state.
type KeyTrigger struct {
	Key      string
	Interval time.Duration
}

func (t KeyTrigger) Name() string { return "key " + t.Key }

func (t KeyTrigger) Wait(ctx context.Context) error {
	vk, err := hotkey(t.Key)
	if err != nil {
		return err
	}
	interval := t.Interval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if uint16(win.GetAsyncKeyState(vk))&0x8000 != 0 {
				return nil
			}
		}
	}
}

func hotkey(key string) (int32, error) {
	switch k := strings.ToLower(key); k {
	case "esc", "escape":
		return win.VK_ESCAPE, nil
	case "pause":
		return win.VK_PAUSE, nil
	case "end":
		return win.VK_END, nil
	case "f12":
		return win.VK_F12, nil
	default:
		if len(k) == 1 && (k[0] >= 'a' && k[0] <= 'z' || k[0] >= '0' && k[0] <= '9') {
			return int32(strings.ToUpper(k)[0]), nil
		}
	}
	return 0, fmt.Errorf("unsupported hotkey %q", key)
}
