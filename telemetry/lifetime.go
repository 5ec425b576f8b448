package telemetry

// LifetimeStats tracks per-squim statistics over its lifetime.
type LifetimeStats struct {
	Name            string
	BirthTick       int32
	SurvivalTimeSec float32

	ActionsStarted   int
	ActionsCompleted int
	FishEaten        int
	Aborts           int

	// Worst total discontentment seen
	PeakDiscontentment float64
}

// LifetimeTracker manages per-squim lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new squim.
func (lt *LifetimeTracker) Register(id uint32, name string, birthTick int32) {
	lt.stats[id] = &LifetimeStats{
		Name:      name,
		BirthTick: birthTick,
	}
}

// Get returns the lifetime stats for a squim, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes a squim's stats and returns them (for logging).
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordStarted increments the started action count.
func (lt *LifetimeTracker) RecordStarted(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.ActionsStarted++
	}
}

// RecordCompleted increments the completed action count.
func (lt *LifetimeTracker) RecordCompleted(id uint32, ateFish bool) {
	if s := lt.stats[id]; s != nil {
		s.ActionsCompleted++
		if ateFish {
			s.FishEaten++
		}
	}
}

// RecordAbort increments the aborted action count.
func (lt *LifetimeTracker) RecordAbort(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.Aborts++
	}
}

// UpdateDiscontentment tracks peak discontentment.
func (lt *LifetimeTracker) UpdateDiscontentment(id uint32, d float64) {
	if s := lt.stats[id]; s != nil && d > s.PeakDiscontentment {
		s.PeakDiscontentment = d
	}
}

// UpdateSurvivalTime updates the survival time based on current tick.
func (lt *LifetimeTracker) UpdateSurvivalTime(id uint32, currentTick int32, dt float32) {
	if s := lt.stats[id]; s != nil {
		s.SurvivalTimeSec = float32(currentTick-s.BirthTick) * dt
	}
}

// Count returns the number of tracked squims.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
