// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	World     WorldConfig     `yaml:"world"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Nav       NavConfig       `yaml:"nav"`
	Squim     SquimConfig     `yaml:"squim"`
	Goals     GoalsConfig     `yaml:"goals"`
	Tick      TickConfig      `yaml:"tick"`
	Actions   []ActionConfig  `yaml:"actions"`
	Waypoints WaypointsConfig `yaml:"waypoints"`
	Fish      FishConfig      `yaml:"fish"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds simulation stepping parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"` // Seconds of simulation time per step
}

// WorldConfig holds the pond dimensions in world units.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// TerrainConfig holds rock generation parameters.
type TerrainConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Scale          float64 `yaml:"scale"`           // Noise frequency
	Octaves        int     `yaml:"octaves"`         // FBM octaves
	RockThreshold  float64 `yaml:"rock_threshold"`  // Noise above this becomes rock
	ClearRadius    float64 `yaml:"clear_radius"`    // Rock-free radius around spawn points and waypoints
	ObstacleRadius float64 `yaml:"obstacle_radius"` // Inflation applied when building the nav grid
}

// NavConfig holds navigation grid parameters.
type NavConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// SquimConfig holds agent parameters.
type SquimConfig struct {
	Initial             int      `yaml:"initial"`
	SpawnX              float64  `yaml:"spawn_x"`
	SpawnY              float64  `yaml:"spawn_y"`
	SpawnSpread         float64  `yaml:"spawn_spread"`
	Speed               float64  `yaml:"speed"`                 // World units per second
	Radius              float64  `yaml:"radius"`                // Contact radius
	StoppingDistance    float64  `yaml:"stopping_distance"`     // Mover counts as arrived within this distance
	WaterArriveDistance float64  `yaml:"water_arrive_distance"` // Proximity that counts as reaching water
	RetargetInterval    float64  `yaml:"retarget_interval"`     // Seconds between prey re-evaluations while hunting
	RepathDistance      float64  `yaml:"repath_distance"`       // Prey drift that forces a new move request
	Colors              []string `yaml:"colors"`                // Appearance options for ChangeColor
}

// GoalsConfig holds goal parameters.
type GoalsConfig struct {
	Saturation float64 `yaml:"saturation"` // Any goal reaching this value is fatal
}

// TickConfig defines the periodic decay action.
type TickConfig struct {
	Length  float64            `yaml:"length"`  // Seconds between ticks
	Effects map[string]float64 `yaml:"effects"` // goal name -> delta per tick
}

// ActionConfig defines one entry of the squim action menu.
type ActionConfig struct {
	Name     string             `yaml:"name"`
	Duration float64            `yaml:"duration"`
	Effects  map[string]float64 `yaml:"effects"`
}

// WaypointsConfig holds fixed target locations.
type WaypointsConfig struct {
	Water *PointConfig `yaml:"water"`
	Bed   *PointConfig `yaml:"bed"`
}

// PointConfig is a world position.
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// FishConfig holds prey parameters.
type FishConfig struct {
	Initial       int     `yaml:"initial"`
	Max           int     `yaml:"max"`
	SpawnInterval float64 `yaml:"spawn_interval"` // Seconds between spawn attempts
	SpawnRadius   float64 `yaml:"spawn_radius"`
	SpawnX        float64 `yaml:"spawn_x"`
	SpawnY        float64 `yaml:"spawn_y"`
	Speed         float64 `yaml:"speed"`
	Radius        float64 `yaml:"radius"`
	WanderRadius  float64 `yaml:"wander_radius"`
	FleeRadius    float64 `yaml:"flee_radius"`   // Squims closer than this trigger fleeing
	FleeDistance  float64 `yaml:"flee_distance"` // How far a fleeing fish runs
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Seconds per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TicksPerSecond float64 // 1 / Physics.DT
	WindowTicks    int32   // Telemetry.StatsWindow in ticks
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := cfg.Merge(data); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Defaults returns a fresh copy of the embedded default configuration.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// Merge overlays YAML data onto the config. Only fields present in data are
// overwritten; lists such as actions are replaced wholesale.
func (c *Config) Merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Physics.DT > 0 {
		c.Derived.TicksPerSecond = 1 / c.Physics.DT
	}
	c.Derived.WindowTicks = int32(c.Telemetry.StatsWindow*c.Derived.TicksPerSecond + 0.5)
	if c.Derived.WindowTicks < 1 {
		c.Derived.WindowTicks = 1
	}
}

// Validation errors. Missing waypoints are reported separately so the runner
// can keep going with the affected squims disabled.
var (
	ErrMissingWaypoint = errors.New("missing waypoint")
	ErrUnknownGoal     = errors.New("unknown goal")
	ErrUnknownAction   = errors.New("unknown action")
	ErrInvalidValue    = errors.New("invalid value")
)

// Validate checks the configuration for gaps. The returned error joins every
// problem found; use errors.Is with the sentinel errors to classify them.
func (c *Config) Validate() error {
	var errs []error

	if c.Physics.DT <= 0 {
		errs = append(errs, fmt.Errorf("%w: physics.dt must be positive", ErrInvalidValue))
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: world dimensions must be positive", ErrInvalidValue))
	}
	if c.Nav.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: nav.cell_size must be positive", ErrInvalidValue))
	}
	if c.Tick.Length <= 0 {
		errs = append(errs, fmt.Errorf("%w: tick.length must be positive", ErrInvalidValue))
	}
	if c.Goals.Saturation <= 0 {
		errs = append(errs, fmt.Errorf("%w: goals.saturation must be positive", ErrInvalidValue))
	}
	for name := range c.Tick.Effects {
		if !KnownGoal(name) {
			errs = append(errs, fmt.Errorf("%w: tick effect %q", ErrUnknownGoal, name))
		}
	}
	if len(c.Actions) == 0 {
		errs = append(errs, fmt.Errorf("%w: action menu is empty", ErrInvalidValue))
	}
	for _, a := range c.Actions {
		if !KnownAction(a.Name) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownAction, a.Name))
		}
		if a.Duration < 0 {
			errs = append(errs, fmt.Errorf("%w: action %q has negative duration", ErrInvalidValue, a.Name))
		}
		for name := range a.Effects {
			if !KnownGoal(name) {
				errs = append(errs, fmt.Errorf("%w: action %q effect %q", ErrUnknownGoal, a.Name, name))
			}
		}
	}
	if c.Waypoints.Water == nil && c.usesAction("drink_water") {
		errs = append(errs, fmt.Errorf("%w: water", ErrMissingWaypoint))
	}
	if c.Waypoints.Bed == nil && c.usesAction("sleep_in_bed") {
		errs = append(errs, fmt.Errorf("%w: bed", ErrMissingWaypoint))
	}

	return errors.Join(errs...)
}

func (c *Config) usesAction(name string) bool {
	for _, a := range c.Actions {
		if normalize(a.Name) == name {
			return true
		}
	}
	return false
}

// KnownGoal reports whether name is a goal the simulation models.
func KnownGoal(name string) bool {
	switch normalize(name) {
	case "hunger", "thirst", "fatigue", "boredom":
		return true
	}
	return false
}

// KnownAction reports whether name is an action the simulation can execute.
func KnownAction(name string) bool {
	switch normalize(name) {
	case "eat_fish", "drink_water", "sleep_in_bed", "change_color":
		return true
	}
	return false
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// YAML returns the configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
