package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/components"
)

// MovementSystem advances every navigating entity along its path.
type MovementSystem struct {
	filter *ecs.Filter2[components.Position, components.Nav]
}

// NewMovementSystem creates a movement system.
func NewMovementSystem(world *ecs.World) *MovementSystem {
	return &MovementSystem{
		filter: ecs.NewFilter2[components.Position, components.Nav](world),
	}
}

// Update moves all entities by one step of dt seconds.
func (s *MovementSystem) Update(dt float32) {
	query := s.filter.Query()
	for query.Next() {
		pos, nav := query.Get()
		Advance(pos, nav, dt)
	}
}

// Advance moves pos along nav's path by up to Speed*dt and marks arrival once
// the remaining distance is within the stopping tolerance.
func Advance(pos *components.Position, nav *components.Nav, dt float32) {
	if !nav.Active || nav.Arrived {
		return
	}

	budget := nav.Speed * dt
	for budget > 0 && nav.Index < len(nav.Path) {
		wp := nav.Path[nav.Index]
		d := pos.Dist(wp)
		if d <= budget {
			*pos = wp
			budget -= d
			nav.Index++
			continue
		}
		pos.X += (wp.X - pos.X) / d * budget
		pos.Y += (wp.Y - pos.Y) / d * budget
		budget = 0
	}

	if nav.Remaining(*pos) <= nav.Stopping {
		nav.Arrived = true
	}
}

// SetDestination plans a path from pos to dest and starts following it.
// Returns false if the planner finds no path; nav is left unchanged.
func SetDestination(planner *AStarPlanner, pos components.Position, nav *components.Nav, dest components.Position) bool {
	path := planner.FindPath(pos.X, pos.Y, dest.X, dest.Y)
	if path == nil {
		return false
	}

	// End exactly on the destination when it is open
	if !planner.grid.IsBlockedWorld(dest.X, dest.Y) {
		path[len(path)-1] = dest
	}

	nav.Dest = dest
	nav.Path = path
	nav.Index = 0
	// The first waypoint is the start cell center; skip it to avoid backtracking.
	if len(path) > 1 {
		nav.Index = 1
	}
	nav.Active = true
	nav.Arrived = nav.Remaining(pos) <= nav.Stopping
	return true
}

// Halt stops path following.
func Halt(nav *components.Nav) {
	nav.Active = false
	nav.Arrived = false
	nav.Path = nav.Path[:0]
	nav.Index = 0
}
