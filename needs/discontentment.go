package needs

import "math"

// Discontentment is the squared goal value.
func Discontentment(v float64) float64 {
	return v * v
}

// PredictedDiscontentment estimates total discontentment after performing a,
// including the decay that accrues while the action takes effectiveDuration
// seconds. tick is applied effectiveDuration/tickInterval times, fractionally.
func PredictedDiscontentment(goals Goals, a Action, tick Action, tickInterval, effectiveDuration float64) float64 {
	if math.IsInf(effectiveDuration, 1) || math.IsNaN(effectiveDuration) {
		return math.Inf(1)
	}

	ticks := 0.0
	if tickInterval > 0 {
		ticks = effectiveDuration / tickInterval
	}

	total := 0.0
	for g := Goal(0); g < NumGoals; g++ {
		v := goals[g] + a.Effects[g] + tick.Effects[g]*ticks
		if v < 0 {
			v = 0
		}
		total += Discontentment(v)
	}
	return total
}
