package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/agent"
	"github.com/pthm-cable/squim/components"
	"github.com/pthm-cable/squim/systems"
	"github.com/pthm-cable/squim/telemetry"
)

// fishStopping is the arrival tolerance for fish destinations.
const fishStopping = 0.2

// buildWorld generates terrain, the nav grid, path services and waypoints.
func (g *Game) buildWorld() {
	cfg := g.cfg
	w, h := float32(cfg.World.Width), float32(cfg.World.Height)
	cell := float32(cfg.Nav.CellSize)

	if cfg.Waypoints.Water != nil {
		g.waypoints[components.WaypointWater] = components.Position{X: float32(cfg.Waypoints.Water.X), Y: float32(cfg.Waypoints.Water.Y)}
	}
	if cfg.Waypoints.Bed != nil {
		g.waypoints[components.WaypointBed] = components.Position{X: float32(cfg.Waypoints.Bed.X), Y: float32(cfg.Waypoints.Bed.Y)}
	}

	g.terrain = systems.NewTerrainSystem(w, h, cell)
	if cfg.Terrain.Enabled {
		keepClear := []components.Position{
			{X: float32(cfg.Squim.SpawnX), Y: float32(cfg.Squim.SpawnY)},
			{X: float32(cfg.Fish.SpawnX), Y: float32(cfg.Fish.SpawnY)},
		}
		for _, p := range g.waypoints {
			keepClear = append(keepClear, p)
		}
		g.terrain.Generate(g.rngSeed, systems.TerrainParams{
			Scale:       cfg.Terrain.Scale,
			Octaves:     cfg.Terrain.Octaves,
			Threshold:   cfg.Terrain.RockThreshold,
			ClearRadius: float32(cfg.Terrain.ClearRadius),
		}, keepClear)
	}

	g.navGrid = systems.NewNavGridFromTerrain(g.terrain, cell, float32(cfg.Terrain.ObstacleRadius))
	g.planner = systems.NewAStarPlanner(g.navGrid)
	g.navigator = systems.NewNavigator(g.planner, float32(cfg.Squim.Speed))

	g.squimGrid = systems.NewSpatialGrid(w, h, GridCellSize)
	g.fishGrid = systems.NewSpatialGrid(w, h, GridCellSize)
	g.movement = systems.NewMovementSystem(g.world)
	g.fishSystem = systems.NewFishSystem(g.world, g.planner, systems.FishParams{
		WanderRadius: float32(cfg.Fish.WanderRadius),
		FleeRadius:   float32(cfg.Fish.FleeRadius),
		FleeDistance: float32(cfg.Fish.FleeDistance),
	})
	g.contacts = systems.NewContactSystem(g.world, float32(cfg.Fish.Radius))

	for _, kind := range []components.WaypointKind{components.WaypointWater, components.WaypointBed} {
		p, ok := g.waypoints[kind]
		if !ok {
			continue
		}
		wp := components.Waypoint{Kind: kind}
		g.wpEntity[kind] = g.waypointMapper.NewEntity(&p, &wp)
	}
}

// SpawnSquim adds a squim named "Squim N" near the configured spawn point.
// Returns nil if no open cell is available.
func (g *Game) SpawnSquim() *agent.Agent {
	cfg := g.cfg
	pos, ok := g.openPointNear(float32(cfg.Squim.SpawnX), float32(cfg.Squim.SpawnY), float32(cfg.Squim.SpawnSpread))
	if !ok {
		slog.Warn("no open cell for squim")
		return nil
	}

	id := g.nextID
	g.nextID++
	name := fmt.Sprintf("Squim %d", id)

	nav := components.Nav{Speed: float32(cfg.Squim.Speed), Stopping: float32(cfg.Squim.StoppingDistance)}
	body := components.Body{Radius: float32(cfg.Squim.Radius)}
	tag := components.Squim{ID: id, Name: name}
	look := components.Appearance{}
	if len(cfg.Squim.Colors) > 0 {
		look.Color = cfg.Squim.Colors[g.rng.Intn(len(cfg.Squim.Colors))]
	}

	e := g.squimMapper.NewEntity(&pos, &nav, &body, &tag, &look)

	a := agent.New(id, name, g.profile, g.bed, squimMover{g: g, e: e}, squimLook{g: g, e: e})
	if g.disabled != "" {
		a.Disable(g.disabled)
	}

	g.agents = append(g.agents, a)
	g.entities[id] = e
	g.byID[id] = a
	g.lifetimeTracker.Register(id, name, g.tick)
	g.collector.RecordBirth()

	slog.Debug("squim_spawned", "squim", name, "x", pos.X, "y", pos.Y)
	return a
}

// spawnFish adds one fish near the fish spawn point.
func (g *Game) spawnFish() bool {
	cfg := g.cfg
	pos, ok := g.openPointNear(float32(cfg.Fish.SpawnX), float32(cfg.Fish.SpawnY), float32(cfg.Fish.SpawnRadius))
	if !ok {
		return false
	}

	nav := components.Nav{Speed: float32(cfg.Fish.Speed), Stopping: fishStopping}
	body := components.Body{Radius: float32(cfg.Fish.Radius)}
	fish := components.Fish{}
	g.fishMapper.NewEntity(&pos, &nav, &body, &fish)
	g.numFish++
	g.collector.RecordFishSpawned()
	return true
}

// openPointNear samples an open point within radius, falling back to the
// nearest open cell.
func (g *Game) openPointNear(x, y, radius float32) (components.Position, bool) {
	if radius > 0 {
		if p, ok := g.navGrid.RandomOpenNear(g.rng, x, y, radius); ok {
			return p, true
		}
	}
	return g.navGrid.NearestOpen(x, y)
}

// removeFish deletes a fish entity. Fails if it is already gone.
func (g *Game) removeFish(e ecs.Entity) bool {
	if !g.world.Alive(e) {
		return false
	}
	g.world.RemoveEntity(e)
	g.numFish--
	return true
}

// cleanupDead records and removes squims that died this step.
func (g *Game) cleanupDead() {
	alive := g.agents[:0]
	for _, a := range g.agents {
		if !a.Dead() {
			alive = append(alive, a)
			continue
		}

		cause, _ := a.Cause()
		g.collector.RecordDeath(cause)
		g.lifetimeTracker.UpdateSurvivalTime(a.ID, g.tick, float32(g.cfg.Physics.DT))
		record := telemetry.NewDeathRecord(g.tick, a.ID, cause.String(), g.lifetimeTracker.Remove(a.ID))

		if err := g.outputManager.WriteDeath(record); err != nil {
			slog.Error("failed to write death", "error", err)
		}
		if g.db != nil && g.runID != "" {
			if err := g.db.SaveDeath(g.runID, record); err != nil {
				slog.Error("failed to save death", "error", err)
			}
		}
		if g.deathCallback != nil {
			g.deathCallback(record)
		}

		if e, ok := g.entities[a.ID]; ok && g.world.Alive(e) {
			g.world.RemoveEntity(e)
		}
		delete(g.entities, a.ID)
		delete(g.byID, a.ID)
	}
	clear(g.agents[len(alive):])
	g.agents = alive
}
