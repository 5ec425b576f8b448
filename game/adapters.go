package game

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/agent"
	"github.com/pthm-cable/squim/components"
	"github.com/pthm-cable/squim/needs"
	"github.com/pthm-cable/squim/systems"
)

// destTolerance is how close two destinations must be to count as the same.
const destTolerance = 0.1

// squimMover drives one squim entity's Nav component.
type squimMover struct {
	g *Game
	e ecs.Entity
}

func (m squimMover) MoveTo(dest components.Position) bool {
	return systems.SetDestination(m.g.planner, *m.g.posMap.Get(m.e), m.g.navMap.Get(m.e), dest)
}

func (m squimMover) Halt() {
	systems.Halt(m.g.navMap.Get(m.e))
}

func (m squimMover) HasArrived() bool {
	nav := m.g.navMap.Get(m.e)
	return nav.Active && nav.Arrived
}

func (m squimMover) IsProgressingToward(dest components.Position) bool {
	nav := m.g.navMap.Get(m.e)
	return nav.Active && nav.Dest.DistSq(dest) <= destTolerance*destTolerance
}

func (m squimMover) Position() components.Position {
	return *m.g.posMap.Get(m.e)
}

// squimLook reads and writes a squim's Appearance component.
type squimLook struct {
	g *Game
	e ecs.Entity
}

func (l squimLook) Color() string {
	return l.g.lookMap.Get(l.e).Color
}

func (l squimLook) SetColor(c string) {
	l.g.lookMap.Get(l.e).Color = c
}

// worldQuery answers agent target queries against the ECS world.
type worldQuery struct {
	g *Game
}

// Nearest returns the closest fish by straight-line distance that has a
// path from the squim.
func (w worldQuery) Nearest(kind needs.TargetKind, from components.Position) (needs.Target, bool) {
	if kind != needs.TargetFish {
		return needs.Target{}, false
	}

	var best needs.Target
	bestDist := float32(math.MaxFloat32)
	found := false

	query := w.g.fishFilter.Query()
	for query.Next() {
		pos, _ := query.Get()
		d := from.DistSq(*pos)
		if d >= bestDist {
			continue
		}
		if !w.g.navigator.Reachable(from, *pos) {
			continue
		}
		best = needs.Target{Kind: needs.TargetFish, Entity: query.Entity(), Pos: *pos}
		bestDist = d
		found = true
	}
	return best, found
}

func (w worldQuery) Waypoint(kind needs.TargetKind) (needs.Target, bool) {
	var wk components.WaypointKind
	switch kind {
	case needs.TargetWater:
		wk = components.WaypointWater
	case needs.TargetBed:
		wk = components.WaypointBed
	default:
		return needs.Target{}, false
	}
	p, ok := w.g.waypoints[wk]
	if !ok {
		return needs.Target{}, false
	}
	return needs.Target{Kind: kind, Entity: w.g.wpEntity[wk], Pos: p}, true
}

func (w worldQuery) Consume(e ecs.Entity) bool {
	return w.g.removeFish(e)
}

// deathLog announces deaths. Telemetry for the death is recorded when the
// squim is cleaned up at the end of the step.
type deathLog struct {
	g *Game
}

func (d deathLog) ReportDeath(agentName, goalName string) {
	msg := fmt.Sprintf("%s died of %s!", agentName, goalName)
	d.g.addMessage(msg)
	slog.Info("squim_died", "squim", agentName, "cause", goalName, "tick", d.g.tick, "message", msg)
}

// observer feeds action lifecycle events into telemetry.
type observer struct {
	g *Game
}

func (o observer) ActionStarted(a *agent.Agent, choice needs.Choice) {
	o.g.collector.RecordActionStarted(choice.Action.Kind)
	o.g.lifetimeTracker.RecordStarted(a.ID)
	slog.Debug("action_started",
		"squim", a.Name,
		"action", choice.Action.Kind.String(),
		"target", choice.Target.Kind.String(),
		"duration", choice.Duration,
		"score", choice.Score,
	)
}

func (o observer) ActionCompleted(a *agent.Agent, kind needs.ActionKind) {
	o.g.collector.RecordActionCompleted(kind)
	o.g.lifetimeTracker.RecordCompleted(a.ID, kind == needs.ActionEatFish)
	slog.Debug("action_completed", "squim", a.Name, "action", kind.String())
}

func (o observer) ActionAborted(a *agent.Agent, reason agent.AbortReason) {
	switch reason {
	case agent.AbortBedConflict:
		o.g.collector.RecordBedConflict()
	case agent.AbortLostTarget:
		o.g.collector.RecordLostTarget()
	case agent.AbortNavFailure:
		o.g.collector.RecordNavFailure()
	}
	o.g.lifetimeTracker.RecordAbort(a.ID)
	slog.Debug(reason.String(), "squim", a.Name)
}
