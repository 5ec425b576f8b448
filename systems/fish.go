package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/components"
)

// FishParams controls prey behavior.
type FishParams struct {
	WanderRadius float32
	FleeRadius   float32 // Squims closer than this trigger fleeing
	FleeDistance float32
}

// fleeRetarget is how far a new flee point must be from the current one
// before the fish replans.
const fleeRetarget = 1.0

// FishSystem steers fish: flee the nearest squim in range, otherwise wander.
type FishSystem struct {
	filter  *ecs.Filter3[components.Position, components.Nav, components.Fish]
	posMap  *ecs.Map1[components.Position]
	planner *AStarPlanner
	params  FishParams
	buf     []Neighbor
}

// NewFishSystem creates a fish behavior system.
func NewFishSystem(world *ecs.World, planner *AStarPlanner, params FishParams) *FishSystem {
	return &FishSystem{
		filter:  ecs.NewFilter3[components.Position, components.Nav, components.Fish](world),
		posMap:  ecs.NewMap1[components.Position](world),
		planner: planner,
		params:  params,
		buf:     make([]Neighbor, 0, MaxQueryResults),
	}
}

// Update chooses destinations for every fish. squims must hold this step's
// squim positions.
func (s *FishSystem) Update(squims *SpatialGrid, rng *rand.Rand) {
	query := s.filter.Query()
	for query.Next() {
		pos, nav, fish := query.Get()

		threat, found := squims.Nearest(s.buf, pos.X, pos.Y, s.params.FleeRadius, s.posMap)
		if found {
			s.flee(pos, nav, fish, threat)
			continue
		}

		fish.Fleeing = false
		if !nav.Active || nav.Arrived {
			s.wander(pos, nav, fish, rng)
		}
	}
}

func (s *FishSystem) flee(pos *components.Position, nav *components.Nav, fish *components.Fish, threat Neighbor) {
	// threat.DX/DY point from the fish to the squim; run the other way
	dist := sqrt32(threat.DistSq)
	var dx, dy float32
	if dist < 1e-4 {
		dx, dy = 1, 0
	} else {
		dx, dy = -threat.DX/dist, -threat.DY/dist
	}

	grid := s.planner.grid
	w, h := grid.Size()
	fx := clampFloat(pos.X+dx*s.params.FleeDistance, 0, w-0.01)
	fy := clampFloat(pos.Y+dy*s.params.FleeDistance, 0, h-0.01)
	target, ok := grid.NearestOpen(fx, fy)
	if !ok {
		return
	}

	if fish.Fleeing && fish.HasDest && fish.Dest.DistSq(target) <= fleeRetarget*fleeRetarget && nav.Active {
		return
	}
	if SetDestination(s.planner, *pos, nav, target) {
		fish.Dest = target
		fish.HasDest = true
		fish.Fleeing = true
	}
}

func (s *FishSystem) wander(pos *components.Position, nav *components.Nav, fish *components.Fish, rng *rand.Rand) {
	target, ok := s.planner.grid.RandomOpenNear(rng, pos.X, pos.Y, s.params.WanderRadius)
	if !ok {
		return
	}
	if SetDestination(s.planner, *pos, nav, target) {
		fish.Dest = target
		fish.HasDest = true
	}
}
