//go:build windows

package input

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"go.uber.org/zap"
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseLeftDown = 0x0002
	mouseLeftUp   = 0x0004

	keyEventKeyUp = 0x0002
)

// INPUT records as laid out on 64 bit Windows.
type mouseInput struct {
	itype                  uint32
	_                      uint32
	x, y                   int32
	mousedata, flags, time uint32
	extrainfo              uintptr
}

type keyInput struct {
	itype     uint32
	_         uint32
	vk        uint16
	wscan     uint16
	dwFlags   uint32
	time      uint32
	extrainfo uintptr
	_         [8]byte // pad to the size of the INPUT union
}

// SendInput drives the real cursor and keyboard through the Win32 SendInput
// call. Coordinates are client coordinates of window, when set.
type SendInput struct {
	logger *zap.Logger
	window win.HWND
	wind   *WindMouse
	step   time.Duration
}

func NewSendInput(logger *zap.Logger, window uintptr) (*SendInput, error) {
	return &SendInput{
		logger: logger.Named("sendinput"),
		window: win.HWND(window),
		wind:   NewWindMouse(time.Now().UnixNano()),
		step:   2 * time.Millisecond,
	}, nil
}

func (s *SendInput) toScreen(p image.Point) image.Point {
	if s.window == 0 {
		return p
	}
	pt := win.POINT{X: int32(p.X), Y: int32(p.Y)}
	win.ClientToScreen(s.window, &pt)
	return image.Pt(int(pt.X), int(pt.Y))
}

func (s *SendInput) MoveTo(ctx context.Context, p image.Point) error {
	var cur win.POINT
	if !win.GetCursorPos(&cur) {
		return fmt.Errorf("GetCursorPos failed")
	}
	dest := s.toScreen(p)
	for _, step := range s.wind.Path(image.Pt(int(cur.X), int(cur.Y)), dest) {
		win.SetCursorPos(int32(step.X), int32(step.Y))
		if err := sleep(ctx, s.step); err != nil {
			return err
		}
	}
	return nil
}

func (s *SendInput) Click(ctx context.Context) error {
	var cur win.POINT
	win.GetCursorPos(&cur)
	down := []mouseInput{{itype: inputMouse, x: cur.X, y: cur.Y, flags: mouseLeftDown}}
	up := []mouseInput{{itype: inputMouse, x: cur.X, y: cur.Y, flags: mouseLeftUp}}

	win.SendInput(1, unsafe.Pointer(&down[0]), int32(unsafe.Sizeof(mouseInput{})))
	err := sleep(ctx, 120*time.Millisecond)
	win.SendInput(1, unsafe.Pointer(&up[0]), int32(unsafe.Sizeof(mouseInput{})))
	return err
}

func (s *SendInput) Press(ctx context.Context, key string, hold time.Duration) error {
	vk, err := virtualKey(key)
	if err != nil {
		return err
	}
	down := []keyInput{{itype: inputKeyboard, vk: vk}}
	up := []keyInput{{itype: inputKeyboard, vk: vk, dwFlags: keyEventKeyUp}}

	win.SendInput(1, unsafe.Pointer(&down[0]), int32(unsafe.Sizeof(keyInput{})))
	err = sleep(ctx, hold)
	win.SendInput(1, unsafe.Pointer(&up[0]), int32(unsafe.Sizeof(keyInput{})))
	s.logger.Debug("pressed", zap.String("key", key), zap.Duration("hold", hold))
	return err
}

// virtualKey maps single letters and digits plus a few named keys.
func virtualKey(key string) (uint16, error) {
	switch k := strings.ToLower(key); {
	case len(k) == 1 && k[0] >= 'a' && k[0] <= 'z':
		return uint16(k[0] - 'a' + 'A'), nil
	case len(k) == 1 && k[0] >= '0' && k[0] <= '9':
		return uint16(k[0]), nil
	case k == "esc" || k == "escape":
		return win.VK_ESCAPE, nil
	case k == "space":
		return win.VK_SPACE, nil
	case k == "end":
		return win.VK_END, nil
	case k == "home":
		return win.VK_HOME, nil
	}
	return 0, fmt.Errorf("unknown key %q", key)
}
