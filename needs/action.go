package needs

import (
	"fmt"
	"strings"
)

// ActionKind identifies an action a squim can perform.
type ActionKind uint8

const (
	ActionTick ActionKind = iota // Periodic decay, never chosen
	ActionEatFish
	ActionDrinkWater
	ActionSleepInBed
	ActionChangeColor
	NumActionKinds
)

var actionNames = [NumActionKinds]string{"tick", "eat_fish", "drink_water", "sleep_in_bed", "change_color"}

func (k ActionKind) String() string {
	if k < NumActionKinds {
		return actionNames[k]
	}
	return fmt.Sprintf("ActionKind(%d)", uint8(k))
}

// ParseActionKind resolves a configured action name such as "eat_fish".
func ParseActionKind(name string) (ActionKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k := ActionKind(0); k < NumActionKinds; k++ {
		if actionNames[k] == n {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// TargetKind classifies where an action has to be performed.
type TargetKind uint8

const (
	TargetNone  TargetKind = iota // Performed in place
	TargetFish                    // Nearest live fish, moves
	TargetWater                   // Fixed waypoint
	TargetBed                     // Fixed waypoint, single occupant
)

func (t TargetKind) String() string {
	switch t {
	case TargetFish:
		return "fish"
	case TargetWater:
		return "water"
	case TargetBed:
		return "bed"
	}
	return "none"
}

// Target returns the spatial target class the action needs.
func (k ActionKind) Target() TargetKind {
	switch k {
	case ActionEatFish:
		return TargetFish
	case ActionDrinkWater:
		return TargetWater
	case ActionSleepInBed:
		return TargetBed
	}
	return TargetNone
}

// Effects maps a goal to the signed change an action applies to it.
type Effects map[Goal]float64

// Action is an immutable template shared by every squim using it.
// Duration is the wait at the target; zero for EatFish (completes on contact)
// and unused for Tick (the decay interval drives it).
type Action struct {
	Kind     ActionKind
	Duration float64
	Effects  Effects
}

func (a Action) String() string { return a.Kind.String() }

// ApplyEffects adds every effect of a to the matching goal in goals.
func ApplyEffects(a Action, goals *Goals) {
	for g, delta := range a.Effects {
		if g >= NumGoals {
			continue
		}
		goals.Add(g, delta)
	}
}
