package game

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/island/systems"
	"github.com/pthm-cable/island/telemetry"
)

// Task is one named periodic job.
type Task struct {
	ID  string // registry ID, also the perf key
	Run func(ctx context.Context)
}

// Scheduler runs every task on its own ticker at a shared interval.
type Scheduler struct {
	interval time.Duration
	tasks    []Task
	registry *systems.SystemRegistry
	perf     *telemetry.PerfCollector
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. perf may be nil.
func NewScheduler(interval time.Duration, registry *systems.SystemRegistry, perf *telemetry.PerfCollector,
	logger *slog.Logger, tasks ...Task) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = systems.NewSystemRegistry()
	}
	return &Scheduler{
		interval: interval,
		tasks:    tasks,
		registry: registry,
		perf:     perf,
		logger:   logger,
	}
}

// Run starts every task immediately and then once per interval until ctx
// is done. Each loop finishes its current run before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range s.tasks {
		g.Go(func() error {
			s.loop(ctx, t)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	attrs := []any{"task", s.registry.GetName(t.ID), "interval", s.interval}
	if info, ok := s.registry.Get(t.ID); ok {
		attrs = append(attrs, "description", info.Description)
	}
	s.logger.Debug("task started", attrs...)
	for {
		if ctx.Err() != nil {
			break
		}
		if s.perf != nil {
			s.perf.Time(t.ID, func() { t.Run(ctx) })
		} else {
			t.Run(ctx)
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
	s.logger.Debug("task stopped", "task", s.registry.GetName(t.ID))
}
