// Package agent runs the per-squim execution state machine: choose an action,
// travel to its target, wait it out, apply its effects, repeat until a goal
// saturates.
package agent

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/squim/needs"
)

// State is the execution state of an agent.
type State uint8

const (
	StateChoosing State = iota
	StateMoving
	StateWaiting
	StateDead
)

func (s State) String() string {
	switch s {
	case StateChoosing:
		return "choosing"
	case StateMoving:
		return "moving"
	case StateWaiting:
		return "waiting"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// Profile is the read-only configuration shared by agents of one kind.
type Profile struct {
	Menu                []needs.Action
	Tick                needs.Action
	TickInterval        float64 // Seconds between decay ticks
	Saturation          float64 // Goal value that kills
	RetargetInterval    float64 // Seconds between prey re-checks while hunting
	RepathDistance      float32 // Prey drift that forces a new move request
	WaterArriveDistance float32
	Colors              []string
}

// Agent is one squim's goals and execution state.
type Agent struct {
	ID    uint32
	Name  string
	Goals needs.Goals

	profile *Profile
	bed     *Arbiter
	mover   Mover
	look    Appearance

	state    State
	current  needs.Choice
	timer    float64 // Remaining wait
	retarget float64 // Countdown to the next prey re-check
	decay    DecayDriver

	cause    needs.Goal
	disabled string
}

// New creates an agent in StateChoosing with zeroed goals.
func New(id uint32, name string, profile *Profile, bed *Arbiter, mover Mover, look Appearance) *Agent {
	return &Agent{
		ID:      id,
		Name:    name,
		profile: profile,
		bed:     bed,
		mover:   mover,
		look:    look,
		decay:   DecayDriver{Interval: profile.TickInterval},
	}
}

// State returns the current execution state.
func (a *Agent) State() State { return a.state }

// Current returns the committed action and target. Only meaningful while
// moving or waiting.
func (a *Agent) Current() needs.Choice { return a.current }

// Timer returns the remaining wait in seconds.
func (a *Agent) Timer() float64 { return a.timer }

// Dead reports whether the agent has died.
func (a *Agent) Dead() bool { return a.state == StateDead }

// Cause returns the goal that killed the agent.
func (a *Agent) Cause() (needs.Goal, bool) {
	return a.cause, a.state == StateDead
}

// Disable marks the agent non-functional. A disabled agent never steps or decays.
func (a *Agent) Disable(reason string) {
	a.disabled = reason
	a.mover.Halt()
}

// Disabled returns the reason the agent was disabled, or "".
func (a *Agent) Disabled() string { return a.disabled }

// Decay advances the agent's decay driver by dt and applies one Tick per
// interval elapsed. It runs in every state.
func (a *Agent) Decay(dt float64, env *Env) {
	if a.state == StateDead || a.disabled != "" {
		return
	}
	n := a.decay.Advance(dt)
	for range n {
		needs.ApplyEffects(a.profile.Tick, &a.Goals)
		if a.checkDeath(env) {
			return
		}
	}
}

// checkDeath kills the agent if any goal has saturated.
func (a *Agent) checkDeath(env *Env) bool {
	g, ok := a.Goals.Saturated(a.profile.Saturation)
	if !ok {
		return false
	}
	a.bed.Release(a.ID)
	a.state = StateDead
	a.cause = g
	a.timer = 0
	a.current = needs.Choice{}
	a.mover.Halt()
	if env != nil && env.Deaths != nil {
		env.Deaths.ReportDeath(a.Name, g.String())
	}
	return true
}

// Status renders the agent's goals and current activity as text.
func (a *Agent) Status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", a.Name)
	fmt.Fprintf(&b, "Goals increase every %g seconds\n", a.profile.TickInterval)
	for g := needs.Goal(0); g < needs.NumGoals; g++ {
		fmt.Fprintf(&b, "%s: %.1f (%+g)\n", g, a.Goals[g], a.profile.Tick.Effects[g])
	}
	fmt.Fprintf(&b, "Discontentment: %.1f\n", a.Goals.Total())

	switch {
	case a.state == StateDead:
		fmt.Fprintf(&b, "Died of %s", a.cause)
	case a.disabled != "":
		fmt.Fprintf(&b, "Disabled: %s", a.disabled)
	case a.state == StateWaiting:
		fmt.Fprintf(&b, "Performing %s in %.1f seconds", a.current.Action.Kind, a.timer)
	case a.state == StateMoving:
		fmt.Fprintf(&b, "Moving to %s for %s", a.current.Target.Kind, a.current.Action.Kind)
	default:
		b.WriteString("Choosing an action")
	}
	return b.String()
}
