package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/squim/needs"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDiscontentmentStats(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	ds := ComputeDiscontentmentStats(values)

	if math.Abs(ds.Mean-55) > 0.001 {
		t.Errorf("mean = %v, want 55", ds.Mean)
	}
	// Sample standard deviation of 10..100 step 10
	if math.Abs(ds.Std-30.277) > 0.01 {
		t.Errorf("std = %v, want ~30.28", ds.Std)
	}
	if math.Abs(ds.P50-55) > 0.01 {
		t.Errorf("p50 = %v, want 55", ds.P50)
	}
	if math.Abs(ds.P90-91) > 0.01 {
		t.Errorf("p90 = %v, want 91", ds.P90)
	}
	if values[0] != 10 || values[9] != 100 {
		t.Error("input slice was reordered")
	}
}

func TestComputeDiscontentmentStatsSmall(t *testing.T) {
	if ds := ComputeDiscontentmentStats(nil); ds != (DistStats{}) {
		t.Errorf("empty = %+v, want zero", ds)
	}
	ds := ComputeDiscontentmentStats([]float64{42})
	if ds.Mean != 42 || ds.Std != 0 || ds.P90 != 42 {
		t.Errorf("single = %+v", ds)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(30, 0.1)
	if c.WindowDurationTicks() != 300 {
		t.Fatalf("window ticks = %d, want 300", c.WindowDurationTicks())
	}

	c.RecordActionStarted(needs.ActionEatFish)
	c.RecordActionCompleted(needs.ActionEatFish)
	c.RecordActionStarted(needs.ActionSleepInBed)
	c.RecordBedConflict()
	c.RecordDeath(needs.GoalThirst)
	c.RecordFishSpawned()

	if c.ShouldFlush(299) {
		t.Error("flush before window end")
	}
	if !c.ShouldFlush(300) {
		t.Error("no flush at window end")
	}

	s := c.Flush(300, 2, 5, []float64{100, 300}, true)
	if s.EatStarted != 1 || s.EatCompleted != 1 || s.FishEaten != 1 {
		t.Errorf("eat counts = %d/%d/%d", s.EatStarted, s.EatCompleted, s.FishEaten)
	}
	if s.SleepStarted != 1 || s.SleepCompleted != 0 || s.BedConflicts != 1 {
		t.Errorf("sleep counts = %d/%d, conflicts %d", s.SleepStarted, s.SleepCompleted, s.BedConflicts)
	}
	if s.DeathsThirst != 1 || s.Deaths() != 1 {
		t.Errorf("deaths = %d", s.Deaths())
	}
	if s.Squims != 2 || s.Fish != 5 || !s.BedHeld || s.DiscontentMean != 200 {
		t.Errorf("snapshot = %+v", s)
	}
	if math.Abs(s.SimTimeSec-30) > 1e-9 {
		t.Errorf("sim time = %v, want 30", s.SimTimeSec)
	}

	next := c.Flush(600, 2, 5, nil, false)
	if next.WindowStartTick != 300 || next.EatStarted != 0 || next.Deaths() != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, tick := range []int32{300, 600} {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: tick, Squims: 1}); err != nil {
			t.Fatal(err)
		}
	}
	lt := NewLifetimeTracker()
	lt.Register(1, "Squim 1", 0)
	lt.RecordCompleted(1, true)
	lt.UpdateSurvivalTime(1, 500, 0.1)
	if err := om.WriteDeath(NewDeathRecord(500, 1, "Thirst", lt.Remove(1))); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,squims") {
		t.Errorf("header = %q", lines[0])
	}

	data, err = os.ReadFile(filepath.Join(dir, "deaths.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Squim 1,Thirst,50,1,1,0") {
		t.Errorf("deaths.csv = %q", data)
	}
	if lt.Count() != 0 {
		t.Error("lifetime stats not removed")
	}
}

func TestNilOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}
