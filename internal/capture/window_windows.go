//go:build windows

package capture

import (
	"context"
	"fmt"
	"image"
	"syscall"
	"unsafe"

	"github.com/disintegration/gift"
	"github.com/lxn/win"
	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/frame"
)

func init() {
	// Without per monitor DPI awareness GetClientRect reports scaled sizes
	// and the capture comes out cropped on hi-res displays.
	procSetProcessDpiAwareness.Call(uintptr(2))
}

var (
	modUser32     = syscall.NewLazyDLL("User32.dll")
	procGetDC     = modUser32.NewProc("GetDC")
	procReleaseDC = modUser32.NewProc("ReleaseDC")

	modGdi32               = syscall.NewLazyDLL("Gdi32.dll")
	procBitBlt             = modGdi32.NewProc("BitBlt")
	procCreateCompatibleDC = modGdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = modGdi32.NewProc("CreateDIBSection")
	procDeleteDC           = modGdi32.NewProc("DeleteDC")
	procDeleteObject       = modGdi32.NewProc("DeleteObject")
	procSelectObject       = modGdi32.NewProc("SelectObject")

	modShcore                  = syscall.NewLazyDLL("Shcore.dll")
	procSetProcessDpiAwareness = modShcore.NewProc("SetProcessDpiAwareness")
)

const bitBltSrcCopy = 0x00CC0020

type bitmapInfo struct {
	header win.BITMAPINFOHEADER
	colors *win.RGBQUAD
}

// Window captures the client area of a top level window found by title.
type Window struct {
	logger *zap.Logger
	title  string
	hwnd   win.HWND
}

func OpenWindow(logger *zap.Logger, title string) (*Window, error) {
	name, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		return nil, err
	}
	hwnd := win.FindWindow(nil, name)
	if hwnd == 0 {
		return nil, fmt.Errorf("window %q not found, is the client running?", title)
	}
	w := &Window{logger: logger.Named("window"), title: title, hwnd: hwnd}
	r, err := w.Rect()
	if err != nil {
		return nil, err
	}
	w.logger.Info("Window found", zap.String("title", title), zap.Int("width", r.Dx()), zap.Int("height", r.Dy()))
	return w, nil
}

// Handle is the native window handle, for the input injector.
func (w *Window) Handle() uintptr { return uintptr(w.hwnd) }

func (w *Window) IsForeground() bool {
	return win.GetForegroundWindow() == w.hwnd
}

// Rect is the client area size.
func (w *Window) Rect() (image.Rectangle, error) {
	var r win.RECT
	if !win.GetClientRect(w.hwnd, &r) {
		return image.Rectangle{}, fmt.Errorf("getting client rect of %q failed", w.title)
	}
	return image.Rect(0, 0, int(r.Right), int(r.Bottom)), nil
}

func (w *Window) Capture(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := w.Rect()
	if err != nil {
		return nil, err
	}
	img, err := captureWindow(w.hwnd, r)
	if err != nil {
		return nil, err
	}
	return frame.FromImage(img)
}

func captureWindow(hwnd win.HWND, rect image.Rectangle) (image.Image, error) {
	dcSrc, _, err := procGetDC.Call(uintptr(hwnd))
	if dcSrc == 0 {
		return nil, fmt.Errorf("preparing screen capture: %v", err)
	}
	defer procReleaseDC.Call(uintptr(hwnd), dcSrc)

	dcDst, _, err := procCreateCompatibleDC.Call(dcSrc)
	if dcDst == 0 {
		return nil, fmt.Errorf("creating DC for drawing: %v", err)
	}
	defer procDeleteDC.Call(dcDst)

	width, height := rect.Dx(), rect.Dy()

	var bmi bitmapInfo
	bmi.header = win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(bmi.header)),
		BiWidth:       int32(width),
		BiHeight:      int32(height),
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	var bits unsafe.Pointer
	bitmap, _, err := procCreateDIBSection.Call(
		dcDst,
		uintptr(unsafe.Pointer(&bmi)),
		0,
		uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bitmap == 0 {
		return nil, fmt.Errorf("creating bitmap for screen capture: %v", err)
	}
	defer procDeleteObject.Call(bitmap)

	procSelectObject.Call(dcDst, bitmap)
	ok, _, err := procBitBlt.Call(
		dcDst, 0, 0, uintptr(width), uintptr(height),
		dcSrc, uintptr(rect.Min.X), uintptr(rect.Min.Y), bitBltSrcCopy)
	if ok == 0 {
		return nil, fmt.Errorf("capturing screen: %v", err)
	}

	raw := unsafe.Slice((*byte)(bits), width*height*4)
	pix := make([]byte, len(raw))
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = raw[i+2], raw[i+1], raw[i], 255
	}

	// A positive BiHeight makes the DIB bottom up.
	img := &image.RGBA{Pix: pix, Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}
	dst := image.NewRGBA(img.Bounds())
	gift.New(gift.FlipVertical()).Draw(dst, img)
	return dst, nil
}
