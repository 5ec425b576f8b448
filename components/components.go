// Package components defines ECS components for the simulation.
package components

// Squim marks an agent entity. ID indexes the agent controller owned by the game.
type Squim struct {
	ID   uint32
	Name string
}

// Fish marks a prey entity.
type Fish struct {
	Dest    Position // Current wander or flee destination
	Fleeing bool
	HasDest bool
}

// WaypointKind identifies a fixed location in the pond.
type WaypointKind uint8

const (
	WaypointWater WaypointKind = iota
	WaypointBed
)

func (k WaypointKind) String() string {
	if k == WaypointBed {
		return "bed"
	}
	return "water"
}

// Waypoint marks a fixed target entity.
type Waypoint struct {
	Kind WaypointKind
}

// Appearance holds the visible color of a squim.
type Appearance struct {
	Color string
}
