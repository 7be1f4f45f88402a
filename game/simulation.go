// Package game wires the grid, behavior rules and telemetry into a running
// island simulation driven by three periodic tasks.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/island/components"
	"github.com/pthm-cable/island/config"
	"github.com/pthm-cable/island/systems"
	"github.com/pthm-cable/island/telemetry"
)

// Options holds simulation options.
type Options struct {
	Seed      int64        // RNG seed
	OutputDir string       // Directory for CSV logs and config snapshot (empty = disabled)
	Logger    *slog.Logger // nil = slog.Default()
}

// Simulation holds the complete simulation state.
type Simulation struct {
	cfg    *config.Config
	runID  string
	seed   int64
	logger *slog.Logger

	rng      *systems.LockedRand
	grid     *systems.Grid
	flora    *systems.FloraSystem
	behavior *systems.BehaviorSystem
	registry *systems.SystemRegistry

	pool       *WorkerPool
	dispatcher *Dispatcher

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	reporter  *telemetry.Reporter
	output    *telemetry.OutputManager

	// Cycle counters, each owned by its task goroutine.
	growthCycle int
	reportCycle int
}

// NewSimulation creates a simulation from a finalized config. The grid is
// empty until Populate is called.
func NewSimulation(cfg *config.Config, opts Options) (*Simulation, error) {
	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}

	s := &Simulation{
		cfg:      cfg,
		runID:    runID,
		seed:     opts.Seed,
		logger:   logger,
		rng:      systems.NewLockedRand(opts.Seed),
		grid:     systems.NewGrid(cfg.World.Width, cfg.World.Height),
		registry: systems.NewSystemRegistry(),
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:   output,
	}

	var eventLogger *slog.Logger
	if cfg.Telemetry.LogEvents {
		eventLogger = logger
	}
	s.collector = telemetry.NewCollector(eventLogger)

	rules := systems.RulesFromConfig(cfg.Rules)
	s.flora = systems.NewFloraSystem(s.grid, rules)
	s.behavior = systems.NewBehaviorSystem(s.grid, rules, s.rng, s.collector)

	s.pool = NewWorkerPool(cfg.Workers.PoolSize, cfg.Derived.QueueSize)
	s.dispatcher = NewDispatcher(s.grid, s.behavior, s.pool, cfg.Schedule.BehaviorTimeout, s.collector, logger)

	s.reporter = telemetry.NewReporter(s.grid, telemetry.ReporterOptions{
		RunID:     runID,
		Collector: s.collector,
		Perf:      s.perf,
		Detector:  telemetry.NewBookmarkDetector(cfg.Telemetry.HistorySize, cfg.Bookmarks),
		Output:    output,
		Logger:    logger,
	})

	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, err
	}
	return s, nil
}

// RunID returns the unique ID stamped on this run's logs and CSV rows.
func (s *Simulation) RunID() string {
	return s.runID
}

// Grid returns the simulation grid.
func (s *Simulation) Grid() *systems.Grid {
	return s.grid
}

// Populate seeds plants and places the configured animals at uniformly
// random cells, every one with full hunger.
func (s *Simulation) Populate() error {
	s.flora.Seed(s.rng, s.cfg.World.InitialPlantsMax)

	for _, name := range s.cfg.Derived.KindsOrder {
		kind, err := components.ParseKind(name)
		if err != nil {
			return fmt.Errorf("population: %w", err)
		}
		for i := 0; i < s.cfg.Population[name]; i++ {
			pos := components.Position{
				X: s.rng.Intn(s.grid.Width()),
				Y: s.rng.Intn(s.grid.Height()),
			}
			s.grid.Spawn(kind, pos, s.cfg.Rules.MaxHunger)
		}
	}

	s.logger.Info("population placed",
		"entities", s.grid.Count(),
		"plants", s.flora.TotalPlants(),
		"cells", s.cfg.Derived.Cells,
		"width", s.grid.Width(),
		"height", s.grid.Height(),
	)
	return nil
}

// Run drives the growth, behavior and report tasks until ctx is done or
// the configured duration elapses. Reaching the duration is not an error.
func (s *Simulation) Run(ctx context.Context) error {
	if d := s.cfg.Schedule.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	s.pool.Start()
	defer s.pool.Stop()

	s.logger.Info("simulation started",
		"seed", s.seed,
		"interval", s.cfg.Schedule.Interval,
		"behavior_timeout", s.cfg.Schedule.BehaviorTimeout,
		"duration", s.cfg.Schedule.Duration,
		"workers", s.pool.Size(),
		"output_dir", s.output.Dir(),
	)

	start := time.Now()
	sched := NewScheduler(s.cfg.Schedule.Interval, s.registry, s.perf, s.logger, s.tasks()...)
	err := sched.Run(ctx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		err = nil
	}
	// Let abandoned behavior tasks finish so the final counts are settled.
	s.pool.Stop()

	final := s.reporter.Sample(s.reportCycle)
	s.logger.Info("simulation ended",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"cycles", s.reportCycle,
		"entities", final.Entities,
		"wolves", final.Wolves,
		"rabbits", final.Rabbits,
		"plants", final.Plants,
	)
	return err
}

// Step runs one growth, behavior and report cycle back to back on the
// calling goroutine, without tickers. It is the headless path used by
// tuning runs and must not be mixed with a concurrent Run.
func (s *Simulation) Step(ctx context.Context) telemetry.CycleStats {
	s.pool.Start()
	s.perf.Time(systems.TaskGrowth, func() { s.grow(ctx) })
	s.perf.Time(systems.TaskBehavior, func() { s.act(ctx) })
	var stats telemetry.CycleStats
	s.perf.Time(systems.TaskReport, func() { stats = s.report(ctx) })
	return stats
}

// Close stops the workers and releases output files.
func (s *Simulation) Close() error {
	s.pool.Stop()
	return s.output.Close()
}

// tasks builds the periodic tasks in registry order.
func (s *Simulation) tasks() []Task {
	runs := map[string]func(ctx context.Context){
		systems.TaskGrowth:   s.grow,
		systems.TaskBehavior: s.act,
		systems.TaskReport:   func(ctx context.Context) { s.report(ctx) },
	}
	var tasks []Task
	for _, id := range s.registry.IDs() {
		if run, ok := runs[id]; ok {
			tasks = append(tasks, Task{ID: id, Run: run})
		}
	}
	return tasks
}

func (s *Simulation) grow(context.Context) {
	s.growthCycle++
	total := s.flora.Grow()
	s.logger.Info("plants grew", "cycle", s.growthCycle, "plants", total)
}

func (s *Simulation) act(ctx context.Context) {
	res := s.dispatcher.Tick(ctx)
	s.logger.Debug("behavior tick", "tick", res)
}

func (s *Simulation) report(context.Context) telemetry.CycleStats {
	s.reportCycle++
	return s.reporter.Report(s.reportCycle)
}
