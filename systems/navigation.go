package systems

import (
	"math"

	"github.com/pthm-cable/squim/components"
)

// Navigator estimates travel times for squims over the nav grid.
type Navigator struct {
	planner *AStarPlanner
	speed   float32
}

// NewNavigator returns a navigator for agents moving at speed units per second.
func NewNavigator(planner *AStarPlanner, speed float32) *Navigator {
	return &Navigator{planner: planner, speed: speed}
}

// EstimateTravelSeconds returns the A* path length divided by speed, or +Inf
// when no path exists.
func (n *Navigator) EstimateTravelSeconds(from, to components.Position) float64 {
	if n.speed <= 0 {
		return math.Inf(1)
	}
	path := n.planner.FindPath(from.X, from.Y, to.X, to.Y)
	if path == nil {
		return math.Inf(1)
	}
	return float64(PathLength(from, path) / n.speed)
}

// Reachable reports whether a path exists between two points.
func (n *Navigator) Reachable(from, to components.Position) bool {
	return n.planner.FindPath(from.X, from.Y, to.X, to.Y) != nil
}
