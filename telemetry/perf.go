package telemetry

import (
	"log/slog"
	"slices"
	"time"
)

// Phase identifies a section of the simulation step.
type Phase uint8

const (
	PhaseContacts Phase = iota
	PhaseAgents
	PhaseMovement
	PhaseFish
	PhaseSpawn
	PhaseDetect
	PhaseCleanup
	PhaseTelemetry
	NumPhases
)

var phaseNames = [NumPhases]string{
	"contacts", "agents", "movement", "fish", "spawn", "detect", "cleanup", "telemetry",
}

func (p Phase) String() string {
	if p < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// noPhase marks that no phase is being timed.
const noPhase = NumPhases

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	Tick   time.Duration
	Phases [NumPhases]time.Duration
}

// PerfCollector keeps the most recent windowSize tick samples in a ring.
type PerfCollector struct {
	samples []PerfSample
	next    int
	filled  bool

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]PerfSample, windowSize),
		phase:   noPhase,
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PerfSample{}
	p.phase = noPhase
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase < NumPhases {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = noPhase
	p.current.Tick = now.Sub(p.tickStart)

	p.samples[p.next] = p.current
	p.next++
	if p.next == len(p.samples) {
		p.next = 0
		p.filled = true
	}
}

func (p *PerfCollector) recorded() []PerfSample {
	if p.filled {
		return p.samples
	}
	return p.samples[:p.next]
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Samples int

	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration
	P95Tick time.Duration

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // Share of the average tick, in percent

	TicksPerSecond float64
}

// Stats computes aggregated statistics over the recorded window.
func (p *PerfCollector) Stats() PerfStats {
	samples := p.recorded()
	if len(samples) == 0 {
		return PerfStats{}
	}

	s := PerfStats{Samples: len(samples)}
	ticks := make([]time.Duration, len(samples))
	var total time.Duration
	var phaseSum [NumPhases]time.Duration
	for i, sample := range samples {
		ticks[i] = sample.Tick
		total += sample.Tick
		for ph, d := range sample.Phases {
			phaseSum[ph] += d
		}
	}

	slices.Sort(ticks)
	n := time.Duration(len(samples))
	s.AvgTick = total / n
	s.MinTick = ticks[0]
	s.MaxTick = ticks[len(ticks)-1]
	s.P95Tick = ticks[(len(ticks)-1)*95/100]

	for ph := range NumPhases {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTick > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTick) * 100
		}
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	return s
}

// Slowest returns the phase with the largest average duration.
func (s PerfStats) Slowest() Phase {
	slowest := PhaseContacts
	for ph := range NumPhases {
		if s.PhaseAvg[ph] > s.PhaseAvg[slowest] {
			slowest = ph
		}
	}
	return slowest
}

// LogStats logs performance statistics, skipping negligible phases.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"p95_tick_us", s.P95Tick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
		"slowest", s.Slowest().String(),
	}
	for ph := range NumPhases {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("samples", s.Samples),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for ph := range NumPhases {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	ContactsPct  float64 `csv:"contacts_pct"`
	AgentsPct    float64 `csv:"agents_pct"`
	MovementPct  float64 `csv:"movement_pct"`
	FishPct      float64 `csv:"fish_pct"`
	SpawnPct     float64 `csv:"spawn_pct"`
	DetectPct    float64 `csv:"detect_pct"`
	CleanupPct   float64 `csv:"cleanup_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTick.Microseconds(),
		MinTickUS:    s.MinTick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		P95TickUS:    s.P95Tick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		ContactsPct:  s.PhasePct[PhaseContacts],
		AgentsPct:    s.PhasePct[PhaseAgents],
		MovementPct:  s.PhasePct[PhaseMovement],
		FishPct:      s.PhasePct[PhaseFish],
		SpawnPct:     s.PhasePct[PhaseSpawn],
		DetectPct:    s.PhasePct[PhaseDetect],
		CleanupPct:   s.PhasePct[PhaseCleanup],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
