// Package telemetry provides population statistics, per-squim lifetime
// tracking, performance timing and CSV output.
package telemetry

// DeathRecord is one row of deaths.csv.
type DeathRecord struct {
	Tick               int32   `csv:"tick"`
	SquimID            uint32  `csv:"squim_id"`
	Name               string  `csv:"name"`
	Cause              string  `csv:"cause"`
	SurvivalTimeSec    float32 `csv:"survival_sec"`
	ActionsCompleted   int     `csv:"actions_completed"`
	FishEaten          int     `csv:"fish_eaten"`
	Aborts             int     `csv:"aborts"`
	PeakDiscontentment float64 `csv:"peak_discontentment"`
}

// NewDeathRecord builds a death record from a squim's lifetime stats.
// stats may be nil for squims that were never registered.
func NewDeathRecord(tick int32, id uint32, cause string, stats *LifetimeStats) DeathRecord {
	d := DeathRecord{Tick: tick, SquimID: id, Cause: cause}
	if stats != nil {
		d.Name = stats.Name
		d.SurvivalTimeSec = stats.SurvivalTimeSec
		d.ActionsCompleted = stats.ActionsCompleted
		d.FishEaten = stats.FishEaten
		d.Aborts = stats.Aborts
		d.PeakDiscontentment = stats.PeakDiscontentment
	}
	return d
}
