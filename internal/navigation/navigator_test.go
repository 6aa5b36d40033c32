package navigation

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lkarlslund/gatherbot/internal/geom"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newNav(t *testing.T, clock *fakeClock, positions ...geom.Point) *Navigator {
	t.Helper()
	n, err := New(zaptest.NewLogger(t), DefaultConfig(), positions, WithClock(clock.now))
	require.NoError(t, err)
	return n
}

func TestNewRequiresNodes(t *testing.T) {
	_, err := New(zaptest.NewLogger(t), DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNoNodes)
}

func TestNearestIsDeterministic(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	origin := geom.Pt(960, 540)
	n := newNav(t, clock,
		geom.Pt(origin.X-100, origin.Y-100),
		geom.Pt(origin.X-200, origin.Y-200),
		geom.Pt(origin.X-300, origin.Y-300),
	)

	cases := []struct {
		agent geom.Point
		want  int
	}{
		{origin, 0},
		{geom.Pt(origin.X+100, origin.Y+100), 0},
		{geom.Pt(810, 490), 0},
		{geom.Pt(origin.X-149, origin.Y-149), 0},
		{geom.Pt(origin.X-151, origin.Y-151), 1},
		{geom.Pt(origin.X-249, origin.Y-249), 1},
		{geom.Pt(origin.X-251, origin.Y-251), 2},
	}
	for _, c := range cases {
		for i := 0; i < 3; i++ {
			node, ok := n.Nearest(c.agent)
			require.True(t, ok)
			assert.Equal(t, c.want, node.ID, "agent %v", c.agent)
		}
	}
}

func TestNearestTieGoesToFirstDeclared(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	n := newNav(t, clock, geom.Pt(10, 0), geom.Pt(-10, 0), geom.Pt(0, 10))
	node, ok := n.Nearest(geom.Pt(0, 0))
	require.True(t, ok)
	assert.Equal(t, 0, node.ID)
}

func TestNodeVectorFlipsY(t *testing.T) {
	v := NodeVector(geom.Pt(560, 520), geom.Pt(585, 500))
	assert.Equal(t, geom.Vector{X: 25, Y: 20}, v)
}

func TestAim(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	n := newNav(t, clock, geom.Pt(0, 0))

	cases := []struct {
		node, agent geom.Point
		want        image.Point
	}{
		{geom.Pt(585, 520), geom.Pt(560, 520), image.Pt(1110, 440)},
		{geom.Pt(400, 400), geom.Pt(0, 0), image.Pt(1066, 546)},
		{geom.Pt(400, 400), geom.Pt(1920, 1080), image.Pt(823, 378)},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, n.Aim(NodeVector(c.agent, c.node)))
	}
}

func TestMovementGating(t *testing.T) {
	cases := []struct {
		distance float64
		want     Kind
	}{
		{1.5, Arrived},
		{10, Move},
		{49.9, Move},
		{50.1, Idle},
		{1.9, Arrived},
		{2, Idle},
	}
	for _, c := range cases {
		clock := &fakeClock{t: time.Unix(1000, 0)}
		n := newNav(t, clock, geom.Pt(0, 0))

		d := n.Step(geom.Pt(-c.distance, 0))
		assert.Equal(t, c.want, d.Kind, "distance %v", c.distance)
		assert.InDelta(t, c.distance, d.Distance, 1e-9)

		node := n.Nodes()[0]
		if c.want == Arrived {
			assert.Equal(t, clock.t.Add(20*time.Second), node.Cooldown)
			assert.Equal(t, image.Point{}, d.Aim)
		} else {
			assert.True(t, node.Cooldown.IsZero())
		}
		if c.want == Move {
			// The node is due east, so the aim point is east of the origin.
			assert.Equal(t, image.Pt(960+150, 440), d.Aim)
		}
	}
}

func TestCooldownRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	n := newNav(t, clock, geom.Pt(0, 0), geom.Pt(30, 0))

	d := n.Step(geom.Pt(0.5, 0))
	require.Equal(t, Arrived, d.Kind)
	require.Equal(t, 0, d.Node.ID)

	// Immediately after, node 0 is skipped and node 1 is the target.
	d = n.Step(geom.Pt(0.5, 0))
	assert.Equal(t, Move, d.Kind)
	assert.Equal(t, 1, d.Node.ID)

	clock.advance(20*time.Second + time.Millisecond)
	n.Sweep()
	nodes := n.Nodes()
	assert.True(t, nodes[0].Cooldown.IsZero())
	assert.True(t, nodes[1].Cooldown.IsZero())

	node, ok := n.Nearest(geom.Pt(0.5, 0))
	require.True(t, ok)
	assert.Equal(t, 0, node.ID)
}

func TestAllOnCooldownIsNoop(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	n := newNav(t, clock, geom.Pt(0, 0))

	require.Equal(t, Arrived, n.Step(geom.Pt(1, 0)).Kind)
	d := n.Step(geom.Pt(1, 0))
	assert.Equal(t, Idle, d.Kind)
	assert.Equal(t, Node{}, d.Node)
}
