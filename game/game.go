// Package game owns the ECS world and runs the pond simulation step.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/squim/agent"
	"github.com/pthm-cable/squim/components"
	"github.com/pthm-cable/squim/config"
	"github.com/pthm-cable/squim/persistence"
	"github.com/pthm-cable/squim/systems"
	"github.com/pthm-cable/squim/telemetry"
)

// GridCellSize is the spatial grid cell size in world units.
const GridCellSize = 4.0

// maxMessages bounds the death message log.
const maxMessages = 32

// Options configures a simulation instance.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Seed           int64
	Squims         int // Initial squims (0 = use config)
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string
	StepsPerUpdate int
	Watch          bool // Log every squim's status block each stats window

	DB    *persistence.DB // Optional run ledger
	RunID string

	StatsCallback func(telemetry.WindowStats)
	DeathCallback func(telemetry.DeathRecord)
}

// Game holds the complete simulation state.
type Game struct {
	cfg     *config.Config
	world   *ecs.World
	rng     *rand.Rand
	rngSeed int64

	// Entity mappers
	squimMapper    *ecs.Map5[components.Position, components.Nav, components.Body, components.Squim, components.Appearance]
	fishMapper     *ecs.Map4[components.Position, components.Nav, components.Body, components.Fish]
	waypointMapper *ecs.Map2[components.Position, components.Waypoint]

	squimFilter *ecs.Filter2[components.Position, components.Squim]
	fishFilter  *ecs.Filter2[components.Position, components.Fish]

	// Individual component mappers for lookups
	posMap  *ecs.Map1[components.Position]
	navMap  *ecs.Map1[components.Nav]
	lookMap *ecs.Map1[components.Appearance]

	// Agents in creation order
	agents   []*agent.Agent
	entities map[uint32]ecs.Entity
	byID     map[uint32]*agent.Agent
	profile  *agent.Profile
	bed      *agent.Arbiter
	env      *agent.Env
	disabled string // Non-empty when a config gap disables every squim

	waypoints map[components.WaypointKind]components.Position
	wpEntity  map[components.WaypointKind]ecs.Entity

	// World services
	terrain   *systems.TerrainSystem
	navGrid   *systems.NavGrid
	planner   *systems.AStarPlanner
	navigator *systems.Navigator

	// Systems
	squimGrid  *systems.SpatialGrid
	fishGrid   *systems.SpatialGrid
	movement   *systems.MovementSystem
	fishSystem *systems.FishSystem
	spawner    systems.FishSpawner
	contacts   *systems.ContactSystem
	queue      systems.ContactQueue
	drained    []systems.Contact

	// Telemetry
	collector       *telemetry.Collector
	perfCollector   *telemetry.PerfCollector
	lifetimeTracker *telemetry.LifetimeTracker
	outputManager   *telemetry.OutputManager
	statsCallback   func(telemetry.WindowStats)
	deathCallback   func(telemetry.DeathRecord)
	logStats        bool
	watch           bool
	db              *persistence.DB
	runID           string

	// State
	tick           int32
	nextID         uint32
	numFish        int
	stepsPerUpdate int
	messages       []string
}

// NewGameWithOptions builds a simulation: terrain, nav grid, waypoints, the
// initial squims and fish.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	gaps, err := splitConfigErrors(cfg.Validate())
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	profile, err := buildProfile(cfg)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:     cfg,
		world:   world,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		rngSeed: opts.Seed,

		squimMapper:    ecs.NewMap5[components.Position, components.Nav, components.Body, components.Squim, components.Appearance](world),
		fishMapper:     ecs.NewMap4[components.Position, components.Nav, components.Body, components.Fish](world),
		waypointMapper: ecs.NewMap2[components.Position, components.Waypoint](world),
		squimFilter:    ecs.NewFilter2[components.Position, components.Squim](world),
		fishFilter:     ecs.NewFilter2[components.Position, components.Fish](world),
		posMap:         ecs.NewMap1[components.Position](world),
		navMap:         ecs.NewMap1[components.Nav](world),
		lookMap:        ecs.NewMap1[components.Appearance](world),

		entities:  make(map[uint32]ecs.Entity),
		byID:      make(map[uint32]*agent.Agent),
		profile:   profile,
		bed:       agent.NewArbiter(),
		waypoints: make(map[components.WaypointKind]components.Position),
		wpEntity:  make(map[components.WaypointKind]ecs.Entity),

		spawner: systems.FishSpawner{Interval: cfg.Fish.SpawnInterval, Max: cfg.Fish.Max},

		collector:       telemetry.NewCollector(statsWindow, cfg.Physics.DT),
		lifetimeTracker: telemetry.NewLifetimeTracker(),
		statsCallback:   opts.StatsCallback,
		deathCallback:   opts.DeathCallback,
		logStats:        opts.LogStats,
		watch:           opts.Watch,
		db:              opts.DB,
		runID:           opts.RunID,

		nextID:         1,
		stepsPerUpdate: steps,
	}
	g.perfCollector = telemetry.NewPerfCollector(int(g.collector.WindowDurationTicks()))

	g.env = &agent.Env{
		World:    worldQuery{g},
		Deaths:   deathLog{g},
		Observer: observer{g},
		Rand:     g.rng,
	}

	g.buildWorld()
	g.env.Paths = g.navigator

	for _, gap := range gaps {
		slog.Error("config_gap", "error", gap)
	}
	if len(gaps) > 0 {
		g.disabled = errors.Join(gaps...).Error()
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	squims := cfg.Squim.Initial
	if opts.Squims > 0 {
		squims = opts.Squims
	}
	for range squims {
		g.SpawnSquim()
	}
	for range cfg.Fish.Initial {
		g.spawnFish()
	}

	slog.Info("world_built",
		"seed", opts.Seed,
		"squims", len(g.agents),
		"fish", g.numFish,
		"rock_fraction", g.terrain.RockFraction(),
		"open_cells", g.navGrid.OpenCells(),
	)

	return g, nil
}

// splitConfigErrors separates missing waypoints, which only disable squims,
// from errors that make the config unusable.
func splitConfigErrors(err error) (gaps []error, fatal error) {
	if err == nil {
		return nil, nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	var rest []error
	for _, e := range errs {
		if errors.Is(e, config.ErrMissingWaypoint) {
			gaps = append(gaps, e)
		} else {
			rest = append(rest, e)
		}
	}
	return gaps, errors.Join(rest...)
}

// UpdateHeadless runs StepsPerUpdate simulation steps.
func (g *Game) UpdateHeadless() {
	for range g.stepsPerUpdate {
		g.simulationStep()
	}
}

// Unload flushes output and closes the run.
func (g *Game) Unload() {
	if g.db != nil && g.runID != "" {
		if err := g.db.FinishRun(g.runID, g.tick); err != nil {
			slog.Error("failed to finish run", "error", err)
		}
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// Tick returns the number of completed steps.
func (g *Game) Tick() int32 {
	return g.tick
}

// SimTime returns elapsed simulation seconds.
func (g *Game) SimTime() float64 {
	return float64(g.tick) * g.cfg.Physics.DT
}

// Agents returns the living squims in creation order.
func (g *Game) Agents() []*agent.Agent {
	return g.agents
}

// SquimCount returns the number of living squims.
func (g *Game) SquimCount() int {
	return len(g.agents)
}

// FishCount returns the number of fish in the pond.
func (g *Game) FishCount() int {
	return g.numFish
}

// Bed returns the bed arbiter.
func (g *Game) Bed() *agent.Arbiter {
	return g.bed
}

// Messages returns recent death messages, oldest first.
func (g *Game) Messages() []string {
	return g.messages
}

// Status renders the status block of every living squim.
func (g *Game) Status() string {
	blocks := make([]string, 0, len(g.agents))
	for _, a := range g.agents {
		blocks = append(blocks, a.Status())
	}
	return strings.Join(blocks, "\n\n")
}

func (g *Game) addMessage(msg string) {
	g.messages = append(g.messages, msg)
	if len(g.messages) > maxMessages {
		g.messages = g.messages[len(g.messages)-maxMessages:]
	}
}
