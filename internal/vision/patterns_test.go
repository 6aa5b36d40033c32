package vision

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 9), uint8(y * 13), 40, 255})
		}
	}
	fh, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(fh, img))
	require.NoError(t, fh.Close())
}

func TestLoadPatterns(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "cast_bar.png"), 20, 6)
	writePNG(t, filepath.Join(dir, "skill_teleport.540.png"), 10, 10)

	p, err := LoadPatterns(zaptest.NewLogger(t), dir, []PatternSpec{
		{Name: "cast_bar", File: "cast_bar.png", Confidence: 0.85},
		{Name: "skill_teleport", File: "skill_teleport.540.png", Confidence: 0.8},
	}, 1080)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, []string{"cast_bar", "skill_teleport"}, p.Names())

	cast, err := p.Get("cast_bar")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 6), cast.Frame.Size())
	assert.Equal(t, float32(0.85), cast.Confidence)

	skill, err := p.Get("skill_teleport")
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 20), skill.Frame.Size(), "captured at 540, rescaled to 1080")

	_, err = p.Get("mount_hp")
	assert.ErrorIs(t, err, ErrPatternMissing)
}

func TestLoadPatternsMissingFileIsFatal(t *testing.T) {
	_, err := LoadPatterns(zaptest.NewLogger(t), t.TempDir(), []PatternSpec{
		{Name: "cast_bar", File: "nope.png", Confidence: 0.85},
	}, 1080)
	assert.ErrorIs(t, err, ErrPatternMissing)
}

func TestCaptureScale(t *testing.T) {
	assert.Equal(t, 1.0, captureScale("cast_bar.png", 1080))
	assert.Equal(t, 2.0, captureScale("x.540.png", 1080))
	assert.Equal(t, 1.0, captureScale("x.abc.png", 1080))
	assert.Equal(t, 1.0, captureScale("x.540.png", 0))
}

func TestNMS(t *testing.T) {
	a := Detection{Label: "ore", Confidence: 0.9, Rect: rect(0, 0, 10, 10)}
	b := Detection{Label: "ore", Confidence: 0.8, Rect: rect(1, 1, 10, 10)}
	c := Detection{Label: "wood", Confidence: 0.7, Rect: rect(50, 50, 10, 10)}
	got := nms([]Detection{b, c, a}, 0.45)
	assert.Equal(t, []Detection{a, c}, got)
}
