package systems

// FishSpawner decides when a new fish appears.
type FishSpawner struct {
	Interval float64 // Seconds between spawns
	Max      int     // No spawns while this many fish exist
	timer    float64
}

// Update advances the spawn timer and returns how many fish to spawn.
// The timer keeps running while the pond is full.
func (s *FishSpawner) Update(dt float64, count int) int {
	if s.Interval <= 0 {
		return 0
	}
	s.timer += dt
	n := 0
	for s.timer >= s.Interval {
		s.timer -= s.Interval
		if count+n < s.Max {
			n++
		}
	}
	return n
}
