// Package needs models squim goals, the actions that change them, and the
// discontentment-minimizing decision rule that picks between actions.
package needs

import (
	"fmt"
	"strings"
)

// Goal identifies one of the needs a squim tracks.
type Goal uint8

const (
	GoalHunger Goal = iota
	GoalThirst
	GoalFatigue
	GoalBoredom
	NumGoals
)

var goalNames = [NumGoals]string{"Hunger", "Thirst", "Fatigue", "Boredom"}

func (g Goal) String() string {
	if g < NumGoals {
		return goalNames[g]
	}
	return fmt.Sprintf("Goal(%d)", uint8(g))
}

// ParseGoal resolves a case-insensitive goal name.
func ParseGoal(name string) (Goal, error) {
	n := strings.TrimSpace(name)
	for g := Goal(0); g < NumGoals; g++ {
		if strings.EqualFold(goalNames[g], n) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown goal %q", name)
}

// Goals holds one value per goal. The zero value is a freshly spawned squim.
type Goals [NumGoals]float64

// Add applies delta to goal g. Values never drop below zero.
func (gs *Goals) Add(g Goal, delta float64) {
	v := gs[g] + delta
	if v < 0 {
		v = 0
	}
	gs[g] = v
}

// Total returns the summed discontentment over all goals.
func (gs *Goals) Total() float64 {
	total := 0.0
	for _, v := range gs {
		total += Discontentment(v)
	}
	return total
}

// Saturated returns the first goal whose value has reached threshold.
func (gs *Goals) Saturated(threshold float64) (Goal, bool) {
	for g := Goal(0); g < NumGoals; g++ {
		if gs[g] >= threshold {
			return g, true
		}
	}
	return 0, false
}
