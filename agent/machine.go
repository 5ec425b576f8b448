package agent

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/needs"
)

// Step advances the state machine by dt seconds. Decay is separate; call
// Decay first so choices see this step's goal values.
func (a *Agent) Step(dt float64, env *Env) {
	if a.state == StateDead || a.disabled != "" {
		return
	}

	switch a.state {
	case StateChoosing:
		a.choose(env)
	case StateMoving:
		a.move(dt, env)
	case StateWaiting:
		a.wait(dt, env)
	}
}

// OnContact handles the agent touching a fish. The fish is eaten only when
// the agent is hunting and the world still has it. Returns true if eaten.
func (a *Agent) OnContact(fish ecs.Entity, env *Env) bool {
	if a.state != StateMoving || a.disabled != "" || a.current.Action.Kind != needs.ActionEatFish {
		return false
	}
	if !env.World.Consume(fish) {
		return false
	}

	needs.ApplyEffects(a.current.Action, &a.Goals)
	if env.Observer != nil {
		env.Observer.ActionCompleted(a, needs.ActionEatFish)
	}
	if a.checkDeath(env) {
		return true
	}
	a.reset()
	return true
}

func (a *Agent) request(env *Env) needs.Request {
	return needs.Request{
		AgentID:      a.ID,
		Position:     a.mover.Position(),
		Goals:        a.Goals,
		Menu:         a.profile.Menu,
		Tick:         a.profile.Tick,
		TickInterval: a.profile.TickInterval,
		Locator:      env.World,
		Paths:        env.Paths,
		Bed:          a.bed,
	}
}

func (a *Agent) choose(env *Env) {
	// A failed bed claim makes the bed ineligible, so the second pass
	// settles on the next best action.
	for range 2 {
		choice, ok := needs.ChooseAction(a.request(env))
		if !ok {
			a.mover.Halt()
			return
		}
		if choice.Action.Kind == needs.ActionSleepInBed && !a.bed.TryClaim(a.ID) {
			a.abort(AbortBedConflict, env)
			continue
		}
		a.commit(choice, env)
		return
	}
}

func (a *Agent) commit(choice needs.Choice, env *Env) {
	a.current = choice
	if env.Observer != nil {
		env.Observer.ActionStarted(a, choice)
	}

	if choice.Target.Kind == needs.TargetNone {
		a.mover.Halt()
		a.state = StateWaiting
		a.timer = choice.Action.Duration
		return
	}

	if !a.mover.MoveTo(choice.Target.Pos) {
		a.abort(AbortNavFailure, env)
		return
	}
	a.state = StateMoving
	a.retarget = a.profile.RetargetInterval
}

func (a *Agent) move(dt float64, env *Env) {
	target := a.current.Target
	if target.Kind == needs.TargetFish {
		a.hunt(dt, env)
		return
	}

	if a.arrived(target) {
		a.mover.Halt()
		a.state = StateWaiting
		a.timer = a.current.Action.Duration
		return
	}

	if !a.mover.IsProgressingToward(target.Pos) && !a.mover.MoveTo(target.Pos) {
		a.abort(AbortNavFailure, env)
	}
}

func (a *Agent) arrived(target needs.Target) bool {
	if target.Kind == needs.TargetWater {
		d := a.profile.WaterArriveDistance
		return a.mover.Position().DistSq(target.Pos) <= d*d
	}
	return a.mover.HasArrived()
}

// hunt re-resolves the nearest fish on the retarget interval. Arrival is
// only ever signalled through OnContact.
func (a *Agent) hunt(dt float64, env *Env) {
	a.retarget -= dt
	if a.retarget > 0 {
		return
	}
	a.retarget = a.profile.RetargetInterval

	nearest, ok := env.World.Nearest(needs.TargetFish, a.mover.Position())
	if !ok {
		a.abort(AbortLostTarget, env)
		return
	}

	// Keep the current move only while it is still under way. A mover parked
	// at a stale aim point short of contact range has to close in again.
	prev := a.current.Target
	drift := a.profile.RepathDistance
	if nearest.Entity == prev.Entity && nearest.Pos.DistSq(prev.Pos) <= drift*drift &&
		!a.mover.HasArrived() && a.mover.IsProgressingToward(prev.Pos) {
		return
	}

	a.current.Target = nearest
	if !a.mover.MoveTo(nearest.Pos) {
		a.abort(AbortNavFailure, env)
	}
}

func (a *Agent) wait(dt float64, env *Env) {
	a.timer -= dt
	if a.timer > 0 {
		return
	}

	act := a.current.Action
	needs.ApplyEffects(act, &a.Goals)
	switch act.Kind {
	case needs.ActionChangeColor:
		a.changeColor(env)
	case needs.ActionSleepInBed:
		a.bed.Release(a.ID)
	}
	if env.Observer != nil {
		env.Observer.ActionCompleted(a, act.Kind)
	}

	if a.checkDeath(env) {
		return
	}
	a.reset()
}

// changeColor picks uniformly among the configured colors other than the
// current one. With a single option nothing changes.
func (a *Agent) changeColor(env *Env) {
	if a.look == nil || len(a.profile.Colors) <= 1 {
		return
	}
	current := a.look.Color()
	options := make([]string, 0, len(a.profile.Colors))
	for _, c := range a.profile.Colors {
		if c != current {
			options = append(options, c)
		}
	}
	if len(options) == 0 {
		return
	}
	i := 0
	if env.Rand != nil {
		i = env.Rand.Intn(len(options))
	}
	a.look.SetColor(options[i])
}

func (a *Agent) abort(reason AbortReason, env *Env) {
	a.reset()
	if env.Observer != nil {
		env.Observer.ActionAborted(a, reason)
	}
}

// reset is the only way out of an action. The bed goes first.
func (a *Agent) reset() {
	a.bed.Release(a.ID)
	a.current = needs.Choice{}
	a.timer = 0
	a.retarget = 0
	a.state = StateChoosing
	a.mover.Halt()
}
