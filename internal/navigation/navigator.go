// Package navigation walks the agent along a fixed set of pre-surveyed
// waypoints on the reference map.
package navigation

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/geom"
)

var ErrNoNodes = errors.New("no waypoint nodes")

type Config struct {
	MinDistance float64       // closer than this counts as arrived
	MaxDistance float64       // further than this is not walked to
	Cooldown    time.Duration // how long an arrived node is skipped
	Screen      image.Point   // client resolution
	OriginSkew  float64       // camera origin sits this far above screen centre
	AimRadius   float64       // distance of the aim point from the origin
}

func DefaultConfig() Config {
	return Config{
		MinDistance: 2,
		MaxDistance: 50,
		Cooldown:    20 * time.Second,
		Screen:      image.Pt(1920, 1080),
		OriginSkew:  100,
		AimRadius:   150,
	}
}

// Node is a waypoint. ID is its index in the navigator's arena. A zero
// Cooldown means available.
type Node struct {
	ID       int
	Pos      geom.Point
	Cooldown time.Time
}

type Kind int

const (
	Idle Kind = iota
	Move
	Arrived
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Move:
		return "move"
	case Arrived:
		return "arrived"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Decision is what one navigation step wants the input layer to do.
type Decision struct {
	Kind     Kind
	Node     Node
	Vector   geom.Vector
	Distance float64
	Aim      image.Point
}

type Option func(*Navigator)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) { n.now = now }
}

// Navigator owns the node arena and is the only thing that changes cooldowns.
type Navigator struct {
	logger *zap.Logger
	cfg    Config
	nodes  []Node
	now    func() time.Time
}

func New(logger *zap.Logger, cfg Config, positions []geom.Point, opts ...Option) (*Navigator, error) {
	if len(positions) == 0 {
		return nil, ErrNoNodes
	}
	if cfg.MinDistance <= 0 || cfg.MaxDistance <= cfg.MinDistance {
		return nil, fmt.Errorf("invalid distance window %v..%v", cfg.MinDistance, cfg.MaxDistance)
	}
	n := &Navigator{
		logger: logger.Named("navigator"),
		cfg:    cfg,
		nodes:  make([]Node, len(positions)),
		now:    time.Now,
	}
	for i, p := range positions {
		n.nodes[i] = Node{ID: i, Pos: p}
	}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

// Nodes returns a copy of the arena.
func (n *Navigator) Nodes() []Node {
	return append([]Node(nil), n.nodes...)
}

// Sweep clears every cooldown that has expired.
func (n *Navigator) Sweep() {
	now := n.now()
	for i := range n.nodes {
		if !n.nodes[i].Cooldown.IsZero() && n.nodes[i].Cooldown.Before(now) {
			n.nodes[i].Cooldown = time.Time{}
		}
	}
}

// Nearest returns the closest node not on cooldown. Ties go to the node
// declared first.
func (n *Navigator) Nearest(agent geom.Point) (Node, bool) {
	best, bestDist := -1, math.Inf(1)
	for i, node := range n.nodes {
		if !node.Cooldown.IsZero() {
			continue
		}
		if d := NodeVector(agent, node.Pos).Magnitude(); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Node{}, false
	}
	return n.nodes[best], true
}

// NodeVector points from the agent to the node with y flipped, since screen
// y grows downward and steering treats up as positive.
func NodeVector(agent, node geom.Point) geom.Vector {
	return geom.Vector{X: node.X - agent.X, Y: agent.Y - node.Y}
}

// Origin is the virtual camera position the aim point is projected around.
func (n *Navigator) Origin() geom.Point {
	return geom.Point{
		X: float64(n.cfg.Screen.X) / 2,
		Y: float64(n.cfg.Screen.Y)/2 - n.cfg.OriginSkew,
	}
}

// Aim projects a fixed radius point around the origin in the direction of v.
func (n *Navigator) Aim(v geom.Vector) image.Point {
	o := n.Origin()
	a := v.Angle()
	return image.Point{
		X: int(o.X + n.cfg.AimRadius*math.Cos(a)),
		Y: int(o.Y - n.cfg.AimRadius*math.Sin(a)),
	}
}

// Step sweeps cooldowns, picks the nearest node and decides what to do
// about it. Arriving puts the node on cooldown.
func (n *Navigator) Step(agent geom.Point) Decision {
	n.Sweep()

	node, ok := n.Nearest(agent)
	if !ok {
		n.logger.Debug("all nodes on cooldown")
		return Decision{Kind: Idle}
	}

	v := NodeVector(agent, node.Pos)
	d := Decision{Kind: Idle, Node: node, Vector: v, Distance: v.Magnitude()}

	switch {
	case d.Distance < n.cfg.MinDistance:
		d.Kind = Arrived
		n.nodes[node.ID].Cooldown = n.now().Add(n.cfg.Cooldown)
		d.Node = n.nodes[node.ID]
	case d.Distance > n.cfg.MinDistance && d.Distance < n.cfg.MaxDistance:
		d.Kind = Move
		d.Aim = n.Aim(v)
	}

	n.logger.Debug("step",
		zap.Stringer("agent", agent),
		zap.Int("node", node.ID),
		zap.Float64("distance", d.Distance),
		zap.Stringer("decision", d.Kind))
	return d
}
