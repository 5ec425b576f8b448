package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Squims int `csv:"squims"`
	Fish   int `csv:"fish"`
	Births int `csv:"births"`

	// Actions committed during window
	EatStarted   int `csv:"eat_started"`
	DrinkStarted int `csv:"drink_started"`
	SleepStarted int `csv:"sleep_started"`
	ColorStarted int `csv:"color_started"`

	// Actions whose effects were applied
	EatCompleted   int `csv:"eat_completed"`
	DrinkCompleted int `csv:"drink_completed"`
	SleepCompleted int `csv:"sleep_completed"`
	ColorCompleted int `csv:"color_completed"`

	// Prey and recoveries
	FishEaten    int  `csv:"fish_eaten"`
	FishSpawned  int  `csv:"fish_spawned"`
	BedConflicts int  `csv:"bed_conflicts"`
	LostTargets  int  `csv:"lost_targets"`
	NavFailures  int  `csv:"nav_failures"`
	BedHeld      bool `csv:"bed_held"`

	// Deaths by cause
	DeathsHunger  int `csv:"deaths_hunger"`
	DeathsThirst  int `csv:"deaths_thirst"`
	DeathsFatigue int `csv:"deaths_fatigue"`
	DeathsBoredom int `csv:"deaths_boredom"`

	// Discontentment distribution (sampled at window end)
	DiscontentMean float64 `csv:"discontent_mean"`
	DiscontentStd  float64 `csv:"discontent_std"`
	DiscontentP50  float64 `csv:"discontent_p50"`
	DiscontentP90  float64 `csv:"discontent_p90"`
}

// Deaths returns the total deaths in the window.
func (s WindowStats) Deaths() int {
	return s.DeathsHunger + s.DeathsThirst + s.DeathsFatigue + s.DeathsBoredom
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// DistStats summarizes a sample.
type DistStats struct {
	Mean, Std, P50, P90 float64
}

// ComputeDiscontentmentStats calculates mean, std, and percentiles from
// per-squim discontentment values.
func ComputeDiscontentmentStats(values []float64) DistStats {
	n := len(values)
	if n == 0 {
		return DistStats{}
	}

	var ds DistStats
	if n == 1 {
		ds.Mean = values[0]
	} else {
		ds.Mean, ds.Std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	ds.P50 = Percentile(sorted, 0.50)
	ds.P90 = Percentile(sorted, 0.90)
	return ds
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("squims", s.Squims),
		slog.Int("fish", s.Fish),
		slog.Int("fish_eaten", s.FishEaten),
		slog.Int("bed_conflicts", s.BedConflicts),
		slog.Int("deaths", s.Deaths()),
		slog.Float64("discontent_mean", s.DiscontentMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"squims", s.Squims,
		"fish", s.Fish,
		"births", s.Births,
		"eat_started", s.EatStarted,
		"drink_started", s.DrinkStarted,
		"sleep_started", s.SleepStarted,
		"color_started", s.ColorStarted,
		"eat_completed", s.EatCompleted,
		"drink_completed", s.DrinkCompleted,
		"sleep_completed", s.SleepCompleted,
		"color_completed", s.ColorCompleted,
		"fish_eaten", s.FishEaten,
		"fish_spawned", s.FishSpawned,
		"bed_conflicts", s.BedConflicts,
		"lost_targets", s.LostTargets,
		"nav_failures", s.NavFailures,
		"bed_held", s.BedHeld,
		"deaths_hunger", s.DeathsHunger,
		"deaths_thirst", s.DeathsThirst,
		"deaths_fatigue", s.DeathsFatigue,
		"deaths_boredom", s.DeathsBoredom,
		"discontent_mean", s.DiscontentMean,
		"discontent_std", s.DiscontentStd,
		"discontent_p50", s.DiscontentP50,
		"discontent_p90", s.DiscontentP90,
	)
}
