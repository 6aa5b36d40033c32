package vision

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocv.io/x/gocv"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
)

// noisePattern is random texture, so shifted copies barely correlate.
func noisePattern(w, h int, seed int64) *frame.Frame {
	rnd := rand.New(rand.NewSource(seed))
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetUCharAt(y, x, uint8(rnd.Intn(256)))
		}
	}
	return frame.FromMat(m)
}

// scene returns a black frame with ref pasted at every position.
func scene(w, h int, ref *frame.Frame, at ...image.Point) *frame.Frame {
	m := gocv.Zeros(h, w, gocv.MatTypeCV8UC1)
	src := ref.Mat()
	for _, p := range at {
		for y := 0; y < src.Rows(); y++ {
			for x := 0; x < src.Cols(); x++ {
				m.SetUCharAt(p.Y+y, p.X+x, src.GetUCharAt(y, x))
			}
		}
	}
	return frame.FromMat(m)
}

func TestMatchFindsEveryCopy(t *testing.T) {
	ref := noisePattern(12, 10, 1)
	defer ref.Close()
	search := scene(120, 80, ref, image.Pt(20, 15), image.Pt(70, 50))
	defer search.Close()

	m := NewMatcher(zaptest.NewLogger(t))
	set, err := m.Match(ref, search, 0.9, nil)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	assert.Equal(t, image.Pt(20, 15), set.Locations[0].Min)
	assert.Equal(t, image.Pt(70, 50), set.Locations[1].Min)
	assert.Equal(t, 12, set.Locations[0].Width())
	assert.Equal(t, 10, set.Locations[0].Height())
	assert.Equal(t, float32(0.9), set.Confidence)

	// Search frame must come back untouched.
	assert.Equal(t, image.Pt(120, 80), search.Size())
	assert.Equal(t, 1, search.Channels())
}

func TestMatchCropTranslatesBack(t *testing.T) {
	ref := noisePattern(12, 10, 2)
	defer ref.Close()
	search := scene(120, 80, ref, image.Pt(20, 15), image.Pt(70, 50))
	defer search.Close()

	crop, _ := geom.NewRect(image.Pt(60, 40), image.Pt(110, 75))
	m := NewMatcher(zaptest.NewLogger(t))
	set, err := m.Match(ref, search, 0.9, &crop)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, image.Pt(70, 50), set.Locations[0].Min)
	assert.Equal(t, geom.Pt(76, 55), set.Locations[0].Center())
	assert.Equal(t, crop, set.Searched)
}

func TestMatchNothingIsNotAnError(t *testing.T) {
	ref := noisePattern(12, 10, 3)
	defer ref.Close()
	other := noisePattern(12, 10, 4)
	defer other.Close()
	search := scene(60, 40, other, image.Pt(5, 5))
	defer search.Close()

	m := NewMatcher(zaptest.NewLogger(t))
	set, err := m.Match(ref, search, 0.95, nil)
	require.NoError(t, err)
	assert.True(t, set.Empty())
	_, ok := set.First()
	assert.False(t, ok)
}

func TestMatchRejectsBadInput(t *testing.T) {
	ref := noisePattern(12, 10, 5)
	defer ref.Close()
	small := noisePattern(8, 8, 6)
	defer small.Close()

	m := NewMatcher(zaptest.NewLogger(t))
	_, err := m.Match(ref, small, 0.9, nil)
	assert.Error(t, err)

	_, err = m.Match(small, ref, 0, nil)
	assert.Error(t, err)
	_, err = m.Match(small, ref, 1.5, nil)
	assert.Error(t, err)
}
