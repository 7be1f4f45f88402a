// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Population PopulationConfig `yaml:"population"`
	Rules      RulesConfig      `yaml:"rules"`
	Workers    WorkersConfig    `yaml:"workers"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`
	Log        LogConfig        `yaml:"log"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions and the initial plant layout.
type WorldConfig struct {
	Width            int `yaml:"width"`
	Height           int `yaml:"height"`
	InitialPlantsMax int `yaml:"initial_plants_max"` // Each cell starts with [0, max) plants; 0 = bare grid
}

// ScheduleConfig holds the periodic task timing.
type ScheduleConfig struct {
	Interval        time.Duration `yaml:"interval"`         // Period shared by growth, behavior and report tasks
	BehaviorTimeout time.Duration `yaml:"behavior_timeout"` // Per-tick completion deadline, must be < interval
	Duration        time.Duration `yaml:"duration"`         // Run length before stopping (0 or 0s = until signalled)
}

// MarshalYAML writes durations as "1s"-style strings; yaml.v3 reads them
// back that way but rejects bare nanosecond integers.
func (s ScheduleConfig) MarshalYAML() (any, error) {
	return struct {
		Interval        string `yaml:"interval"`
		BehaviorTimeout string `yaml:"behavior_timeout"`
		Duration        string `yaml:"duration"`
	}{s.Interval.String(), s.BehaviorTimeout.String(), s.Duration.String()}, nil
}

// UnmarshalYAML accepts Go duration strings ("1s", "500ms") or bare
// integers, which count seconds. Keys missing from the node keep their
// current value so an overlay only touches what it names.
func (s *ScheduleConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval        yaml.Node `yaml:"interval"`
		BehaviorTimeout yaml.Node `yaml:"behavior_timeout"`
		Duration        yaml.Node `yaml:"duration"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	fields := []struct {
		name string
		node *yaml.Node
		dst  *time.Duration
	}{
		{"interval", &raw.Interval, &s.Interval},
		{"behavior_timeout", &raw.BehaviorTimeout, &s.BehaviorTimeout},
		{"duration", &raw.Duration, &s.Duration},
	}
	for _, f := range fields {
		if f.node.Kind == 0 || f.node.Tag == "!!null" {
			continue
		}
		d, err := parseDuration(f.node.Value)
		if err != nil {
			return fmt.Errorf("schedule.%s: %w", f.name, err)
		}
		*f.dst = d
	}
	return nil
}

func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// PopulationConfig maps kind name ("wolf", "rabbit") to initial count.
type PopulationConfig map[string]int

// RulesConfig holds the eat/reproduce/grow parameters.
type RulesConfig struct {
	MaxHunger          int     `yaml:"max_hunger"`
	HungerDecay        int     `yaml:"hunger_decay"`        // Hunger lost on a failed meal
	PredationChance    float64 `yaml:"predation_chance"`    // Probability a predator catches the chosen prey
	ReproductionChance float64 `yaml:"reproduction_chance"` // Coin flip for a birth when kin share the cell
	GrowthPerCycle     int     `yaml:"growth_per_cycle"`    // Plants added to every cell per growth tick
}

// WorkersConfig holds behavior worker pool sizing.
type WorkersConfig struct {
	PoolSize  int `yaml:"pool_size"`
	QueueSize int `yaml:"queue_size"` // Task channel buffer (0 = pool_size)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	HistorySize         int  `yaml:"history_size"`          // Reports kept for bookmark detection
	PerfCollectorWindow int  `yaml:"perf_collector_window"` // Samples per task in the rolling perf window
	LogEvents           bool `yaml:"log_events"`            // Emit one line per graze/hunt/birth
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	PreyCrash  PreyCrashConfig  `yaml:"prey_crash"`
	PlantBloom PlantBloomConfig `yaml:"plant_bloom"`
}

// PreyCrashConfig holds prey crash detection parameters.
type PreyCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// PlantBloomConfig holds plant bloom detection parameters.
type PlantBloomConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinPlants  int     `yaml:"min_plants"`
}

// LogConfig holds slog handler settings.
type LogConfig struct {
	Format string `yaml:"format"` // json or text
	Level  string `yaml:"level"`  // debug, info, warn, error
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells      int      // World.Width * World.Height
	QueueSize  int      // Effective worker queue size
	KindsOrder []string // Population kinds, sorted for stable placement
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
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Overlay(cfg, data); err != nil {
			return nil, err
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay unmarshals data on top of cfg. Only fields present in data are
// overwritten, except population which is replaced as a whole when given.
func Overlay(cfg *Config, data []byte) error {
	var peek struct {
		Population PopulationConfig `yaml:"population"`
	}
	if err := yaml.Unmarshal(data, &peek); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if peek.Population != nil {
		cfg.Population = nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Finalize validates the config and computes derived values. Callers that
// build or mutate a Config by hand (flag overrides, tests) must call it again.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world size must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.World.InitialPlantsMax < 0 {
		return fmt.Errorf("world.initial_plants_max must be >= 0, got %d", c.World.InitialPlantsMax)
	}
	if c.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %s", c.Schedule.Interval)
	}
	if c.Schedule.BehaviorTimeout <= 0 || c.Schedule.BehaviorTimeout >= c.Schedule.Interval {
		return fmt.Errorf("schedule.behavior_timeout %s must be positive and shorter than interval %s",
			c.Schedule.BehaviorTimeout, c.Schedule.Interval)
	}
	if c.Schedule.Duration < 0 {
		return fmt.Errorf("schedule.duration must be >= 0, got %s", c.Schedule.Duration)
	}
	for name, n := range c.Population {
		if n < 0 {
			return fmt.Errorf("population.%s must be >= 0, got %d", name, n)
		}
	}
	if c.Rules.MaxHunger <= 0 {
		return fmt.Errorf("rules.max_hunger must be positive, got %d", c.Rules.MaxHunger)
	}
	if c.Rules.HungerDecay < 0 || c.Rules.GrowthPerCycle < 0 {
		return fmt.Errorf("rules.hunger_decay and rules.growth_per_cycle must be >= 0")
	}
	if !isProbability(c.Rules.PredationChance) || !isProbability(c.Rules.ReproductionChance) {
		return fmt.Errorf("rules chances must be within [0, 1]")
	}
	if c.Workers.PoolSize <= 0 {
		return fmt.Errorf("workers.pool_size must be positive, got %d", c.Workers.PoolSize)
	}
	if c.Workers.QueueSize < 0 {
		return fmt.Errorf("workers.queue_size must be >= 0, got %d", c.Workers.QueueSize)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Cells = c.World.Width * c.World.Height

	c.Derived.QueueSize = c.Workers.QueueSize
	if c.Derived.QueueSize == 0 {
		c.Derived.QueueSize = c.Workers.PoolSize
	}

	c.Derived.KindsOrder = c.Derived.KindsOrder[:0]
	for name := range c.Population {
		c.Derived.KindsOrder = append(c.Derived.KindsOrder, name)
	}
	sort.Strings(c.Derived.KindsOrder)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Population = make(PopulationConfig, len(c.Population))
	for name, n := range c.Population {
		out.Population[name] = n
	}
	out.Derived.KindsOrder = append([]string(nil), c.Derived.KindsOrder...)
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
