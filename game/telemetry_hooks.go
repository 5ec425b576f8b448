package game

import (
	"log/slog"
)

// flushTelemetry checks if the stats window should be flushed and writes it out.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	discontentment := g.sampleDiscontentment()
	_, bedHeld := g.bed.Holder()

	stats := g.collector.Flush(g.tick, len(g.agents), g.numFish, discontentment, bedHeld)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if g.db != nil && g.runID != "" {
		if err := g.db.SaveWindow(g.runID, stats); err != nil {
			slog.Error("failed to save window", "error", err)
		}
	}

	if g.watch {
		g.logStatus()
	}
}

// sampleDiscontentment collects the total discontentment of every active
// squim and updates lifetime peaks.
func (g *Game) sampleDiscontentment() []float64 {
	values := make([]float64, 0, len(g.agents))
	for _, a := range g.agents {
		if a.Disabled() != "" {
			continue
		}
		d := a.Goals.Total()
		values = append(values, d)
		g.lifetimeTracker.UpdateDiscontentment(a.ID, d)
	}
	return values
}
