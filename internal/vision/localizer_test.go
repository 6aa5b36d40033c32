package vision

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gocv.io/x/gocv"

	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
)

type countingSearcher struct {
	calls       []float32
	matchBelow  float32
	matchResult geom.Rect
}

func (s *countingSearcher) Match(ref, search *frame.Frame, confidence float32, crop *geom.Rect) (*DetectionSet, error) {
	s.calls = append(s.calls, confidence)
	set := &DetectionSet{Confidence: confidence}
	if s.matchBelow > 0 && confidence <= s.matchBelow {
		set.Locations = []geom.Rect{s.matchResult}
	}
	return set, nil
}

func testLocalizerConfig() LocalizerConfig {
	return LocalizerConfig{
		Indicator: geom.Square(image.Pt(40, 40), 10),
		Scale:     1,
		Start:     0.85,
		Floor:     0.6,
		Step:      0.01,
	}
}

func TestConfidenceSchedule(t *testing.T) {
	s, err := ConfidenceSchedule(0.85, 0.6, 0.01)
	require.NoError(t, err)
	require.Len(t, s, 26)
	assert.Equal(t, float32(0.85), s[0])
	assert.InDelta(t, 0.6, s[len(s)-1], 1e-6)
	for i := 1; i < len(s); i++ {
		assert.Less(t, s[i], s[i-1])
	}

	// uneven steps end on the floor
	s, err = ConfidenceSchedule(0.85, 0.6, 0.03)
	require.NoError(t, err)
	require.Len(t, s, 10)
	assert.InDelta(t, 0.61, s[8], 1e-6)
	assert.Equal(t, float32(0.6), s[9])

	s, err = ConfidenceSchedule(0.7, 0.7, 0.01)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.7}, s)

	_, err = ConfidenceSchedule(0.6, 0.85, 0.01)
	assert.Error(t, err)
	_, err = ConfidenceSchedule(0.85, 0.6, 0)
	assert.Error(t, err)
}

func TestLocateGivesUpAfterBoundedSteps(t *testing.T) {
	ref := noisePattern(100, 100, 7)
	defer ref.Close()
	screen := noisePattern(80, 80, 8)
	defer screen.Close()

	s := &countingSearcher{}
	cfg := testLocalizerConfig()
	l, err := NewLocalizer(zaptest.NewLogger(t), s, ref, cfg)
	require.NoError(t, err)

	_, ok, err := l.Locate(screen)
	require.NoError(t, err)
	assert.False(t, ok)

	bound := int(math.Ceil(float64((cfg.Start-cfg.Floor)/cfg.Step)-1e-4)) + 1
	assert.Len(t, s.calls, bound)
}

func TestLocateStopsAtFirstMatch(t *testing.T) {
	ref := noisePattern(100, 100, 9)
	defer ref.Close()
	screen := noisePattern(80, 80, 10)
	defer screen.Close()

	hit, _ := geom.RectWH(image.Pt(30, 20), 20, 20)
	s := &countingSearcher{matchBelow: 0.805, matchResult: hit}
	l, err := NewLocalizer(zaptest.NewLogger(t), s, ref, testLocalizerConfig())
	require.NoError(t, err)

	pos, ok, err := l.Locate(screen)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(40, 30), pos)
	assert.Len(t, s.calls, 6) // 0.85 .. 0.80
}

func TestLocateAgainstMap(t *testing.T) {
	worldMap := noisePattern(200, 150, 11)
	defer worldMap.Close()

	// The screen shows the map region at (50,40)-(70,60) inside the indicator.
	cfg := testLocalizerConfig()
	screenMat := gocv.Zeros(80, 80, gocv.MatTypeCV8UC1)
	src := worldMap.Mat()
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			screenMat.SetUCharAt(cfg.Indicator.Min.Y+y, cfg.Indicator.Min.X+x, src.GetUCharAt(40+y, 50+x))
		}
	}
	screen := frame.FromMat(screenMat)
	defer screen.Close()

	l, err := NewLocalizer(zaptest.NewLogger(t), NewMatcher(zaptest.NewLogger(t)), worldMap, cfg)
	require.NoError(t, err)

	pos, ok, err := l.Locate(screen)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(60, 50), pos)
}

func rect(x, y, w, h int) geom.Rect {
	r, _ := geom.RectWH(image.Pt(x, y), w, h)
	return r
}
