// Package capture produces frames from the game client.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
)

var ErrUnsupported = errors.New("screen capture not supported on this platform")

// Source blocks until a new frame is available.
type Source interface {
	Capture(ctx context.Context) (*frame.Frame, error)
}

// Region restricts a source to a rectangle of its frames.
type Region struct {
	Source Source
	Rect   geom.Rect
}

func (r Region) Capture(ctx context.Context) (*frame.Frame, error) {
	f, err := r.Source.Capture(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Crop(r.Rect)
}

// PolygonRegion restricts a source to a polygon, everything outside it black.
type PolygonRegion struct {
	Source  Source
	Polygon geom.Polygon
}

func (r PolygonRegion) Capture(ctx context.Context) (*frame.Frame, error) {
	f, err := r.Source.Capture(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.CropPolygon(r.Polygon)
}

// Replay cycles through the images of a directory in name order. It stands
// in for the game window in dry runs and tests.
type Replay struct {
	mu    sync.Mutex
	files []string
	next  int
}

func NewReplay(dir string) (*Replay, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".png" || ext == ".jpg") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("replay: no images in %s", dir)
	}
	sort.Strings(files)
	return &Replay{files: files}, nil
}

func (r *Replay) Capture(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	path := r.files[r.next]
	r.next = (r.next + 1) % len(r.files)
	r.mu.Unlock()
	return frame.Load(path)
}

// Len is the number of images replayed.
func (r *Replay) Len() int { return len(r.files) }
