package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/squim/config"
	"github.com/pthm-cable/squim/game"
	"github.com/pthm-cable/squim/persistence"
)

// runFlags holds the parsed command line.
type runFlags struct {
	configPath      string
	seed            int64
	maxTicks        int
	squims          int
	outputDir       string
	dbPath          string
	logStats        bool
	statsWindow     float64
	watch           bool
	stopWhenExtinct bool
	stepsPerUpdate  int
}

func main() {
	var f runFlags
	flag.StringVar(&f.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.Int64Var(&f.seed, "seed", 0, "RNG seed (0 = time-based)")
	flag.IntVar(&f.maxTicks, "max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	flag.IntVar(&f.squims, "squims", 0, "Initial squims (0 = use config)")
	flag.StringVar(&f.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	flag.StringVar(&f.dbPath, "db", "", "SQLite file recording runs and deaths (empty = disabled)")
	flag.BoolVar(&f.logStats, "log-stats", false, "Output stats via slog")
	flag.Float64Var(&f.statsWindow, "stats-window", 0, "Stats window size in seconds (0 = use config)")
	flag.BoolVar(&f.watch, "watch", false, "Log every squim's status each stats window")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&f.stopWhenExtinct, "stop-when-extinct", false, "Stop once every squim has died")
	flag.IntVar(&f.stepsPerUpdate, "steps-per-update", 1, "Simulation ticks per update call")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(f.configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(f, config.Cfg()); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

// run builds the pond and steps it until a stop condition. Returning instead
// of exiting lets the database close on every path.
func run(f runFlags, cfg *config.Config) error {
	rngSeed := f.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Config:         cfg,
		Seed:           rngSeed,
		Squims:         f.squims,
		LogStats:       f.logStats,
		StatsWindowSec: f.statsWindow,
		OutputDir:      f.outputDir,
		StepsPerUpdate: f.stepsPerUpdate,
		Watch:          f.watch,
	}

	if f.dbPath != "" {
		db, err := persistence.Open(f.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		initial := cfg.Squim.Initial
		if f.squims > 0 {
			initial = f.squims
		}
		runID, err := startRun(db, cfg, rngSeed, initial)
		if err != nil {
			return err
		}
		opts.DB = db
		opts.RunID = runID
	}

	g, err := newGame(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	slog.Info("starting headless simulation",
		"seed", rngSeed,
		"max_ticks", f.maxTicks,
		"steps_per_update", f.stepsPerUpdate,
	)

	var eg errgroup.Group
	eg.Go(func() error {
		defer cancel()
		for runCtx.Err() == nil {
			g.UpdateHeadless()

			if f.maxTicks > 0 && int(g.Tick()) >= f.maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return nil
			}
			if f.stopWhenExtinct && g.SquimCount() == 0 {
				slog.Info("all squims died", "tick", g.Tick(), "sim_time", g.SimTime())
				return nil
			}
		}
		return nil
	})
	eg.Go(func() error {
		<-runCtx.Done()
		if sigCtx.Err() != nil {
			slog.Info("signal received, stopping")
		}
		return nil
	})
	return eg.Wait()
}

// startRun records the effective config as a new run.
func startRun(db *persistence.DB, cfg *config.Config, seed int64, squims int) (string, error) {
	snapshot, err := cfg.YAML()
	if err != nil {
		return "", err
	}
	return db.StartRun(seed, squims, string(snapshot))
}

// newGame builds the simulation. A run already recorded in the ledger is
// closed at tick 0 when the world cannot be built.
func newGame(opts game.Options) (*game.Game, error) {
	g, err := game.NewGameWithOptions(opts)
	if err == nil {
		return g, nil
	}
	err = fmt.Errorf("build world: %w", err)
	if opts.DB != nil && opts.RunID != "" {
		if ferr := opts.DB.FinishRun(opts.RunID, 0); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	return nil, err
}
