package game

import (
	"github.com/pthm-cable/squim/telemetry"
)

// simulationStep runs one fixed step. Contacts detected at the end of a step
// are handled at the start of the next, before any agent moves.
func (g *Game) simulationStep() {
	dt := g.cfg.Physics.DT
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseContacts)
	g.handleContacts()

	g.perfCollector.StartPhase(telemetry.PhaseAgents)
	for _, a := range g.agents {
		a.Decay(dt, g.env)
		a.Step(dt, g.env)
	}

	g.perfCollector.StartPhase(telemetry.PhaseMovement)
	g.movement.Update(float32(dt))

	g.perfCollector.StartPhase(telemetry.PhaseFish)
	g.updateSquimGrid()
	g.fishSystem.Update(g.squimGrid, g.rng)

	g.perfCollector.StartPhase(telemetry.PhaseSpawn)
	for range g.spawner.Update(dt, g.numFish) {
		g.spawnFish()
	}

	g.perfCollector.StartPhase(telemetry.PhaseDetect)
	g.updateFishGrid()
	g.contacts.Detect(g.fishGrid, &g.queue)

	g.perfCollector.StartPhase(telemetry.PhaseCleanup)
	g.cleanupDead()

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// handleContacts delivers queued contacts in detection order.
func (g *Game) handleContacts() {
	g.drained = g.queue.Drain(g.drained[:0])
	for _, c := range g.drained {
		a, ok := g.byID[c.SquimID]
		if !ok || a.Dead() {
			continue
		}
		a.OnContact(c.Fish, g.env)
	}
}

// updateSquimGrid rebuilds the squim spatial index.
func (g *Game) updateSquimGrid() {
	g.squimGrid.Clear()
	query := g.squimFilter.Query()
	for query.Next() {
		pos, _ := query.Get()
		g.squimGrid.Insert(query.Entity(), pos.X, pos.Y)
	}
}

// updateFishGrid rebuilds the fish spatial index.
func (g *Game) updateFishGrid() {
	g.fishGrid.Clear()
	query := g.fishFilter.Query()
	for query.Next() {
		pos, _ := query.Get()
		g.fishGrid.Insert(query.Entity(), pos.X, pos.Y)
	}
}
