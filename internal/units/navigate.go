package units

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/bot"
	"github.com/lkarlslund/gatherbot/internal/frame"
	"github.com/lkarlslund/gatherbot/internal/geom"
	"github.com/lkarlslund/gatherbot/internal/input"
	"github.com/lkarlslund/gatherbot/internal/navigation"
)

// Locator finds the agent on the reference map.
type Locator interface {
	Locate(f *frame.Frame) (geom.Point, bool, error)
}

// Planner turns an agent position into a movement decision.
type Planner interface {
	Step(agent geom.Point) navigation.Decision
}

// Navigate walks the waypoint graph, one click toward the nearest available
// node per frame, until it reached the configured number of nodes.
type Navigate struct {
	logger   *zap.Logger
	locator  Locator
	planner  Planner
	injector input.Injector
	arrivals int
	reached  int
}

func NewNavigate(logger *zap.Logger, locator Locator, planner Planner, injector input.Injector, arrivals int) *Navigate {
	if arrivals < 1 {
		arrivals = 1
	}
	return &Navigate{
		logger:   logger.Named("navigate"),
		locator:  locator,
		planner:  planner,
		injector: injector,
		arrivals: arrivals,
	}
}

func (n *Navigate) Name() string { return "navigate" }

// Reset drops the arrival count of an interrupted leg.
func (n *Navigate) Reset() { n.reached = 0 }

func (n *Navigate) Step(ctx context.Context, f *frame.Frame) (bot.Outcome, error) {
	pos, ok, err := n.locator.Locate(f)
	if err != nil {
		return bot.InProgress, fmt.Errorf("locate: %w", err)
	}
	if !ok {
		n.logger.Debug("Agent not found on map")
		return bot.InProgress, nil
	}

	d := n.planner.Step(pos)
	switch d.Kind {
	case navigation.Move:
		n.logger.Debug("Moving", zap.Int("node", d.Node.ID), zap.Float64("distance", d.Distance), zap.Stringer("aim", d.Aim))
		if err := input.MoveClick(ctx, n.injector, d.Aim); err != nil {
			return bot.InProgress, err
		}
	case navigation.Arrived:
		n.reached++
		n.logger.Info("Reached node", zap.Int("node", d.Node.ID), zap.Int("reached", n.reached))
		if n.reached >= n.arrivals {
			n.reached = 0
			return bot.Finished, nil
		}
	default:
		n.logger.Debug("No node in range", zap.Stringer("agent", pos))
	}
	return bot.InProgress, nil
}

var _ bot.Resetter = (*Navigate)(nil)
