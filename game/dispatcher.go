package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/pthm-cable/island/components"
	"github.com/pthm-cable/island/systems"
	"github.com/pthm-cable/island/telemetry"
)

// Actor runs one tick of behavior for an entity.
type Actor interface {
	Act(e *components.Entity)
}

// TickResult summarizes one behavior tick.
type TickResult struct {
	Cycle      int
	Dispatched int           // tasks handed to the pool
	Completed  int           // tasks finished before the deadline
	Abandoned  int           // dispatched but still running at the deadline
	Skipped    int           // never submitted because the deadline passed first
	Duration   time.Duration // wall time until completion or deadline
}

// LogValue implements slog.LogValuer.
func (r TickResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("cycle", r.Cycle),
		slog.Int("dispatched", r.Dispatched),
		slog.Int("completed", r.Completed),
		slog.Int("abandoned", r.Abandoned),
		slog.Int("skipped", r.Skipped),
		slog.Duration("duration", r.Duration),
	)
}

// Dispatcher fans one behavior task per entity out to the worker pool and
// waits for them with a deadline.
type Dispatcher struct {
	grid      *systems.Grid
	actor     Actor
	pool      *WorkerPool
	timeout   time.Duration
	collector *telemetry.Collector
	logger    *slog.Logger

	cycle int // only touched by the behavior task goroutine
}

// NewDispatcher creates a dispatcher. collector may be nil.
func NewDispatcher(grid *systems.Grid, actor Actor, pool *WorkerPool, timeout time.Duration,
	collector *telemetry.Collector, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		grid:      grid,
		actor:     actor,
		pool:      pool,
		timeout:   timeout,
		collector: collector,
		logger:    logger,
	}
}

// Tick snapshots every entity and runs Act for each of them on the pool.
// Tasks still running at the deadline are abandoned: they finish in the
// background and every mutation they make is cell-atomic. Entities whose
// task could not be submitted before the deadline are skipped this cycle.
func (d *Dispatcher) Tick(ctx context.Context) TickResult {
	start := time.Now()
	d.cycle++
	res := TickResult{Cycle: d.cycle}

	entities := d.grid.Snapshot()
	if len(entities) == 0 {
		res.Duration = time.Since(start)
		return res
	}

	tctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// Buffered so abandoned tasks never block on completion.
	done := make(chan struct{}, len(entities))
	for i, e := range entities {
		ok := d.pool.Submit(tctx, func() {
			d.actor.Act(e)
			done <- struct{}{}
		})
		if !ok {
			res.Skipped = len(entities) - i
			break
		}
		res.Dispatched++
	}

wait:
	for res.Completed < res.Dispatched {
		select {
		case <-done:
			res.Completed++
		case <-tctx.Done():
			break wait
		}
	}
	res.Abandoned = res.Dispatched - res.Completed
	res.Duration = time.Since(start)

	if res.Abandoned > 0 || res.Skipped > 0 {
		d.logger.Warn("behavior tasks abandoned",
			"cycle", res.Cycle,
			"abandoned", res.Abandoned,
			"skipped", res.Skipped,
			"timeout", d.timeout,
		)
		if d.collector != nil {
			d.collector.RecordAbandoned(res.Abandoned)
			d.collector.RecordSkipped(res.Skipped)
		}
	}
	return res
}
