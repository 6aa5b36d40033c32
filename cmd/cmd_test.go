package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lkarlslund/gatherbot/internal/config"
	"github.com/lkarlslund/gatherbot/internal/vision"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	fh, err := os.Create(path)
	require.NoError(t, err)
	defer fh.Close()
	require.NoError(t, png.Encode(fh, img))
}

func noise(w, h int, seed int64) image.Image {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

// workspace lays out patterns, a map and one black replay frame, and
// returns the config file pointing at them.
func workspace(t *testing.T) (dir, cfgFile string) {
	t.Helper()
	dir = t.TempDir()
	for i, name := range []string{"cast_bar", "skill_teleport", "gathering", "ore"} {
		writePNG(t, filepath.Join(dir, "patterns", name+".1080.png"), noise(12, 12, int64(i+1)))
	}
	writePNG(t, filepath.Join(dir, "patterns", "map.png"), noise(200, 200, 42))
	writePNG(t, filepath.Join(dir, "replay", "0001.png"), image.NewRGBA(image.Rect(0, 0, 1920, 1080)))

	cfgFile = filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
logger:
  level: debug
patterns:
  dir: %[1]s/patterns
localizer:
  map: %[1]s/patterns/map.png
screen:
  replay: %[1]s/replay
mount:
  pause: 1ms
bot:
  tick: 5ms
watcher:
  key: ""
`, filepath.ToSlash(dir))
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))
	return dir, cfgFile
}

func execute(ctx context.Context, args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "gatherbot "+Version+"\n", out)
}

func TestRunDryReplay(t *testing.T) {
	_, cfgFile := workspace(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := execute(ctx, "run", "--config", cfgFile, "--dry-run")
	assert.NoError(t, err)
}

func TestRunThreaded(t *testing.T) {
	_, cfgFile := workspace(t)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := execute(ctx, "run", "--config", cfgFile, "--dry-run", "--threaded", "--phase", "navigating")
	assert.NoError(t, err)
}

func TestRunMissingPattern(t *testing.T) {
	dir, cfgFile := workspace(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "patterns", "ore.1080.png")))

	_, err := execute(context.Background(), "run", "--config", cfgFile, "--dry-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, vision.ErrPatternMissing)
}

func TestRunInvalidConfig(t *testing.T) {
	_, cfgFile := workspace(t)
	_, err := execute(context.Background(), "run", "--config", cfgFile, "--phase", "sleeping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InitialPhase")
}

func TestLocateOnce(t *testing.T) {
	dir, cfgFile := workspace(t)
	annotated := filepath.Join(dir, "located.png")

	out, err := execute(context.Background(), "locate", "--config", cfgFile, "--once", "--screen", "--save", annotated)
	require.NoError(t, err)
	assert.Equal(t, "not found", strings.TrimSpace(out))
	assert.FileExists(t, annotated)
	assert.FileExists(t, filepath.Join(dir, "located.screen.png"))
}

func TestRigRestrictsCapture(t *testing.T) {
	_, cfgFile := workspace(t)
	tests := []struct {
		name   string
		key    string
		val    any
		size   image.Point
		origin image.Point
	}{
		{"region", "screen.region", []int{1200, 100, 1800, 400}, image.Pt(600, 300), image.Pt(1200, 100)},
		{"polygon", "screen.polygon", [][]int{{1500, 100}, {1700, 300}, {1500, 500}, {1300, 300}}, image.Pt(400, 400), image.Pt(1300, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := config.NewViper(cfgFile)
			require.NoError(t, err)
			v.Set(tt.key, tt.val)
			cfg, err := config.Load(v)
			require.NoError(t, err)

			r, err := newRig(zaptest.NewLogger(t), cfg)
			require.NoError(t, err)
			defer r.Close()
			assert.Equal(t, tt.origin, r.origin)

			f, err := r.source.Capture(context.Background())
			require.NoError(t, err)
			defer f.Close()
			assert.Equal(t, tt.size, image.Pt(f.Width(), f.Height()))
		})
	}
}
