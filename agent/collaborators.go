package agent

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/components"
	"github.com/pthm-cable/squim/needs"
)

// Mover moves one agent through the world.
type Mover interface {
	// MoveTo requests travel to dest. It returns false if no path exists.
	MoveTo(dest components.Position) bool
	Halt()
	// HasArrived reports whether the remaining path is within the stopping tolerance.
	HasArrived() bool
	IsProgressingToward(dest components.Position) bool
	Position() components.Position
}

// World answers target queries and owns prey removal.
type World interface {
	needs.Locator
	// Consume removes a prey entity. It fails if the entity is already gone.
	Consume(e ecs.Entity) bool
}

// Appearance reads and changes an agent's visible color.
type Appearance interface {
	Color() string
	SetColor(c string)
}

// DeathReporter is notified once when an agent dies.
type DeathReporter interface {
	ReportDeath(agentName, goalName string)
}

// AbortReason says why an action was abandoned.
type AbortReason uint8

const (
	AbortBedConflict AbortReason = iota
	AbortLostTarget
	AbortNavFailure
)

func (r AbortReason) String() string {
	switch r {
	case AbortBedConflict:
		return "bed_conflict"
	case AbortLostTarget:
		return "target_lost"
	case AbortNavFailure:
		return "nav_failure"
	}
	return "unknown"
}

// Observer receives action lifecycle events for telemetry. Optional.
type Observer interface {
	ActionStarted(a *Agent, choice needs.Choice)
	ActionCompleted(a *Agent, kind needs.ActionKind)
	ActionAborted(a *Agent, reason AbortReason)
}

// Env holds the collaborators shared by every agent in a simulation.
type Env struct {
	World    World
	Paths    needs.PathEstimator
	Deaths   DeathReporter
	Observer Observer
	Rand     *rand.Rand
}
