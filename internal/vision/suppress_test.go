package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuppressKeepsFirstOfCluster(t *testing.T) {
	candidates := []image.Point{
		{10, 10}, {11, 10}, {12, 10}, // one object, neighbours in scan order
		{10, 11},
		{40, 10}, // a second object
	}
	got := suppress(candidates, image.Pt(8, 8), image.Pt(60, 30))
	assert.Equal(t, []image.Point{{10, 10}, {40, 10}}, got)
}

func TestSuppressEmpty(t *testing.T) {
	assert.Empty(t, suppress(nil, image.Pt(4, 4), image.Pt(10, 10)))
}

func TestSuppressDedupInvariant(t *testing.T) {
	ref := image.Pt(6, 4)
	area := image.Pt(40, 30)

	// Every scan position above threshold is the worst case.
	var candidates []image.Point
	for y := 0; y <= area.Y-ref.Y; y++ {
		for x := 0; x <= area.X-ref.X; x++ {
			candidates = append(candidates, image.Pt(x, y))
		}
	}
	got := suppress(candidates, ref, area)
	assert.NotEmpty(t, got)

	for i, a := range got {
		footprint := image.Rectangle{Min: a, Max: a.Add(ref)}
		for _, b := range got[i+1:] {
			center := b.Add(image.Pt(ref.X/2, ref.Y/2))
			assert.False(t, center.In(footprint), "%v center inside footprint of %v", b, a)
		}
	}
}

func TestSuppressDeterministic(t *testing.T) {
	candidates := []image.Point{{3, 3}, {5, 4}, {20, 3}, {21, 9}, {2, 18}}
	a := suppress(candidates, image.Pt(5, 5), image.Pt(30, 30))
	b := suppress(candidates, image.Pt(5, 5), image.Pt(30, 30))
	assert.Equal(t, a, b)
}
