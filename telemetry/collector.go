package telemetry

import "github.com/pthm-cable/squim/needs"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	started      [needs.NumActionKinds]int
	completed    [needs.NumActionKinds]int
	fishEaten    int
	fishSpawned  int
	bedConflicts int
	lostTargets  int
	navFailures  int
	deaths       [needs.NumGoals]int
	births       int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec/dt + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordActionStarted records a squim committing to an action.
func (c *Collector) RecordActionStarted(kind needs.ActionKind) {
	if kind < needs.NumActionKinds {
		c.started[kind]++
	}
}

// RecordActionCompleted records an action whose effects were applied.
func (c *Collector) RecordActionCompleted(kind needs.ActionKind) {
	if kind < needs.NumActionKinds {
		c.completed[kind]++
	}
	if kind == needs.ActionEatFish {
		c.fishEaten++
	}
}

// RecordBedConflict records a lost race for the bed.
func (c *Collector) RecordBedConflict() { c.bedConflicts++ }

// RecordLostTarget records a hunt abandoned because no fish remained.
func (c *Collector) RecordLostTarget() { c.lostTargets++ }

// RecordNavFailure records a move request with no path.
func (c *Collector) RecordNavFailure() { c.navFailures++ }

// RecordFishSpawned records a new fish.
func (c *Collector) RecordFishSpawned() { c.fishSpawned++ }

// RecordBirth records a new squim.
func (c *Collector) RecordBirth() { c.births++ }

// RecordDeath records a squim dying of goal g.
func (c *Collector) RecordDeath(g needs.Goal) {
	if g < needs.NumGoals {
		c.deaths[g]++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// discontentment holds the total discontentment of each living squim.
func (c *Collector) Flush(currentTick int32, squimCount, fishCount int, discontentment []float64, bedHeld bool) WindowStats {
	ds := ComputeDiscontentmentStats(discontentment)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Squims: squimCount,
		Fish:   fishCount,
		Births: c.births,

		EatStarted:   c.started[needs.ActionEatFish],
		DrinkStarted: c.started[needs.ActionDrinkWater],
		SleepStarted: c.started[needs.ActionSleepInBed],
		ColorStarted: c.started[needs.ActionChangeColor],

		EatCompleted:   c.completed[needs.ActionEatFish],
		DrinkCompleted: c.completed[needs.ActionDrinkWater],
		SleepCompleted: c.completed[needs.ActionSleepInBed],
		ColorCompleted: c.completed[needs.ActionChangeColor],

		FishEaten:    c.fishEaten,
		FishSpawned:  c.fishSpawned,
		BedConflicts: c.bedConflicts,
		LostTargets:  c.lostTargets,
		NavFailures:  c.navFailures,
		BedHeld:      bedHeld,

		DeathsHunger:  c.deaths[needs.GoalHunger],
		DeathsThirst:  c.deaths[needs.GoalThirst],
		DeathsFatigue: c.deaths[needs.GoalFatigue],
		DeathsBoredom: c.deaths[needs.GoalBoredom],

		DiscontentMean: ds.Mean,
		DiscontentStd:  ds.Std,
		DiscontentP50:  ds.P50,
		DiscontentP90:  ds.P90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.started = [needs.NumActionKinds]int{}
	c.completed = [needs.NumActionKinds]int{}
	c.fishEaten = 0
	c.fishSpawned = 0
	c.bedConflicts = 0
	c.lostTargets = 0
	c.navFailures = 0
	c.deaths = [needs.NumGoals]int{}
	c.births = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
