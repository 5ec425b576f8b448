package main

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/squim/config"
	"github.com/pthm-cable/squim/game"
	"github.com/pthm-cable/squim/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	squims      int
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
	lastSurvive float64 // mean survival seconds from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, squims int, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		squims:      squims,
		baseConfig:  baseCfg,
		statsWindow: 10.0, // 10 seconds per window
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastSurvival returns the mean squim survival in seconds from the most
// recent evaluation.
func (fe *FitnessEvaluator) LastSurvival() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSurvive
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalSec []float64 // per squim, full run length for survivors
	windowStats []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run in parallel; a failed run scores as no survival.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))

	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			r, err := fe.runSimulation(x, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		slog.Error("evaluation failed", "error", err)
		return 0
	}

	var totalFitness, totalQuality, totalSurvival float64
	for _, r := range results {
		survival := mean(r.survivalSec)
		quality := fe.computeQuality(r.windowStats)
		totalFitness += computeFitness(survival, quality)
		totalQuality += quality
		totalSurvival += survival
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.lastSurvive = totalSurvival / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless simulation run until every squim
// is dead or maxTicks is reached.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg, err := fe.copyConfig()
	if err != nil {
		return nil, err
	}
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}
	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Squims:         fe.squims,
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
		DeathCallback: func(d telemetry.DeathRecord) {
			result.survivalSec = append(result.survivalSec, float64(d.SurvivalTimeSec))
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks && g.SquimCount() > 0 {
		g.UpdateHeadless()
	}

	for range g.SquimCount() {
		result.survivalSec = append(result.survivalSec, g.SimTime())
	}
	return result, nil
}

// copyConfig creates a deep copy of the base config through YAML.
func (fe *FitnessEvaluator) copyConfig() (*config.Config, error) {
	data, err := fe.baseConfig.YAML()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Defaults()
	if err != nil {
		return nil, err
	}
	if err := cfg.Merge(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalSec × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% bonus to differentiate
// configs with similar survival.
func computeFitness(survivalSec, quality float64) float64 {
	return -(survivalSec * (1.0 + 0.2*quality))
}

// qualityWarmupWindows skips the first N windows, when every squim is content.
const qualityWarmupWindows = 1

// computeQuality scores how content the squims stayed, in [0, 1]: one minus
// mean discontentment as a fraction of the worst survivable total.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	sat := fe.baseConfig.Goals.Saturation
	worst := 4 * sat * sat
	if worst <= 0 {
		return 0
	}

	var sum float64
	var count int
	for _, w := range windows[qualityWarmupWindows:] {
		if w.Squims == 0 {
			continue
		}
		sum += 1 - w.DiscontentMean/worst
		count++
	}
	if count == 0 {
		return 0
	}
	return clamp01(sum / float64(count))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
