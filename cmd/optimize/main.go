// Package main tunes squim action parameters with CMA-ES so squims survive
// longer and stay more content.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/squim/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 36000, "Tick cap per simulation run")
	numSeeds := flag.Int("seeds", 3, "Simulation seeds per evaluation")
	squims := flag.Int("squims", 0, "Squims per run (0 = use config)")
	maxEvals := flag.Int("max-evals", 200, "Evaluation budget")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Directory for optimize_log.csv and best_config.yaml")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}

	// Runs log world_built and squim_died at info level
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	params := NewParamVector()
	seeds := make([]int64, *numSeeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, int32(*maxTicks), seeds, *squims, config.Cfg())

	evalLog, err := newEvalLog(filepath.Join(*outputDir, "optimize_log.csv"), params)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer evalLog.Close()

	popSize := *population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	tracker := &progress{total: *maxEvals, best: 1e9, start: time.Now()}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Clamped values are the ones the simulation actually used
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			survival, quality := evaluator.LastSurvival(), evaluator.LastQuality()

			tracker.record(fitness, values)
			if err := evalLog.Write(tracker.evals, fitness, survival, quality, values); err != nil {
				slog.Error("failed to write eval log", "error", err)
			}
			tracker.print(survival, quality)
			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES with %d parameters, population=%d, max_evals=%d\n",
		params.Dim(), popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, tick cap per run: %d\n", *numSeeds, *maxTicks)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()),
		&optimize.Settings{FuncEvaluations: *maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize})
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	best := tracker.bestParams
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", tracker.evals, formatDuration(time.Since(tracker.start)))
	fmt.Printf("Best fitness: %.0f\n\nBest parameters:\n", tracker.best)
	for i, spec := range params.Specs {
		fmt.Printf("  %-22s %10.4f  (%s)\n", spec.Name, best[i], spec.Path)
	}

	if err := writeBestConfig(*configPath, params, best, filepath.Join(*outputDir, "best_config.yaml")); err != nil {
		log.Printf("failed to write best config: %v", err)
	}
}

// progress tracks the best evaluation and prints a progress line per eval.
type progress struct {
	total      int
	evals      int
	best       float64
	bestParams []float64
	start      time.Time
}

func (p *progress) record(fitness float64, values []float64) {
	p.evals++
	if fitness < p.best {
		p.best = fitness
		p.bestParams = append(p.bestParams[:0], values...)
	}
}

func (p *progress) print(survival, quality float64) {
	elapsed := time.Since(p.start)
	remaining := time.Duration(p.total-p.evals) * (elapsed / time.Duration(p.evals))
	fmt.Printf("Eval %d/%d: survived=%.0fs quality=%.2f (best=%.0f) | elapsed: %s, ETA: %s\n",
		p.evals, p.total, survival, quality, p.best,
		formatDuration(elapsed), formatDuration(remaining))
}

// writeBestConfig reloads the base config, applies best and writes it to path.
func writeBestConfig(basePath string, params *ParamVector, best []float64, path string) error {
	cfg, err := config.Load(basePath)
	if err != nil {
		return err
	}
	params.ApplyToConfig(cfg, best)
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}
	fmt.Printf("\nBest config saved to: %s\n", path)
	return nil
}

// formatDuration formats a duration as 1h02m03s, or 2m03s below an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
