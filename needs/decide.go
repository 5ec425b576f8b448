package needs

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/components"
)

// Target is a resolved action target: a concrete fish entity or a fixed waypoint.
type Target struct {
	Kind   TargetKind
	Entity ecs.Entity // Zero for waypoints and in-place actions
	Pos    components.Position
}

// Locator resolves targets in the world.
type Locator interface {
	// Nearest returns the nearest reachable entity of a mobile target kind.
	Nearest(kind TargetKind, from components.Position) (Target, bool)
	// Waypoint returns the fixed location for a waypoint target kind.
	Waypoint(kind TargetKind) (Target, bool)
}

// PathEstimator estimates travel time between two points.
// Unreachable destinations return +Inf.
type PathEstimator interface {
	EstimateTravelSeconds(from, to components.Position) float64
}

// Reservations reports whether the single-occupancy resource can be used by id.
type Reservations interface {
	Available(id uint32) bool
}

// Request is the input to ChooseAction.
type Request struct {
	AgentID      uint32
	Position     components.Position
	Goals        Goals
	Menu         []Action
	Tick         Action
	TickInterval float64

	Locator Locator
	Paths   PathEstimator
	Bed     Reservations
}

// Choice is the action ChooseAction selected, with its resolved target.
type Choice struct {
	Action   Action
	Target   Target
	Duration float64 // Effective duration used for scoring
	Score    float64 // Predicted discontentment
}

// ChooseAction scores every feasible action in the menu and returns the one
// with the lowest predicted discontentment. Ties keep the earlier menu entry.
// ok is false when no action is feasible.
func ChooseAction(req Request) (best Choice, ok bool) {
	best.Score = math.Inf(1)

	for _, a := range req.Menu {
		target, effective, feasible := resolve(req, a)
		if !feasible {
			continue
		}
		score := PredictedDiscontentment(req.Goals, a, req.Tick, req.TickInterval, effective)
		if math.IsInf(score, 1) {
			continue
		}
		if !ok || score < best.Score {
			best = Choice{Action: a, Target: target, Duration: effective, Score: score}
			ok = true
		}
	}

	return best, ok
}

// resolve finds the action's target and effective duration.
func resolve(req Request, a Action) (Target, float64, bool) {
	kind := a.Kind.Target()

	switch kind {
	case TargetNone:
		return Target{}, a.Duration, true

	case TargetFish:
		if req.Locator == nil {
			return Target{}, 0, false
		}
		t, found := req.Locator.Nearest(kind, req.Position)
		if !found {
			return Target{}, 0, false
		}
		travel := travelSeconds(req, t.Pos)
		if math.IsInf(travel, 1) {
			return Target{}, 0, false
		}
		// Eating is instantaneous on contact: only travel counts.
		return t, travel, true

	default:
		if kind == TargetBed && req.Bed != nil && !req.Bed.Available(req.AgentID) {
			return Target{}, 0, false
		}
		if req.Locator == nil {
			return Target{}, 0, false
		}
		t, found := req.Locator.Waypoint(kind)
		if !found {
			return Target{}, 0, false
		}
		travel := travelSeconds(req, t.Pos)
		if math.IsInf(travel, 1) {
			return Target{}, 0, false
		}
		return t, travel + a.Duration, true
	}
}

func travelSeconds(req Request, to components.Position) float64 {
	if req.Paths == nil {
		return 0
	}
	return req.Paths.EstimateTravelSeconds(req.Position, to)
}
