package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/island/components"
	"github.com/pthm-cable/island/systems"
)

// Reporter turns a read pass over the grid plus the collector's counters
// into CycleStats, then logs, records and bookmarks them.
type Reporter struct {
	grid      *systems.Grid
	collector *Collector
	perf      *PerfCollector
	detector  *BookmarkDetector
	output    *OutputManager
	logger    *slog.Logger
	runID     string
	start     time.Time
}

// ReporterOptions wires the reporter's optional parts. Nil fields are skipped.
type ReporterOptions struct {
	RunID     string
	Collector *Collector
	Perf      *PerfCollector
	Detector  *BookmarkDetector
	Output    *OutputManager
	Logger    *slog.Logger
}

// NewReporter creates a reporter for grid.
func NewReporter(grid *systems.Grid, opts ReporterOptions) *Reporter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		grid:      grid,
		collector: opts.Collector,
		perf:      opts.Perf,
		detector:  opts.Detector,
		output:    opts.Output,
		logger:    logger,
		runID:     opts.RunID,
		start:     time.Now(),
	}
}

// Sample reads the grid cell by cell. Each cell is locked only for its own
// read, so totals are best-effort rather than a single instant.
func (r *Reporter) Sample(cycle int) CycleStats {
	stats := CycleStats{
		RunID:      r.runID,
		Cycle:      cycle,
		ElapsedSec: time.Since(r.start).Seconds(),
	}

	var hunger []float64
	for _, c := range r.grid.Cells() {
		cc := c.Census()
		stats.Entities += cc.Entities
		stats.Plants += cc.Plants
		for k, n := range cc.ByKind {
			kind := components.Kind(k)
			if kind.IsPredator() {
				stats.Predators += n
			} else {
				stats.Herbivores += n
			}
			switch kind {
			case components.KindWolf:
				stats.Wolves += n
			case components.KindRabbit:
				stats.Rabbits += n
			}
		}
		if cc.Entities > 0 {
			stats.OccupiedCells++
		}
		if cc.Entities > stats.MaxCellEntities {
			stats.MaxCellEntities = cc.Entities
		}
		hunger = append(hunger, cc.Hunger...)
	}
	stats.HungerMean, stats.HungerStd, stats.HungerP50 = ComputeHungerStats(hunger)

	if r.collector != nil {
		counts := r.collector.Drain()
		stats.Grazes = counts.Grazes
		stats.Hunts = counts.Hunts
		stats.Births = counts.Births
		stats.Abandoned = counts.Abandoned
		stats.Skipped = counts.Skipped
	}
	return stats
}

// Report samples the grid and emits the result: one stats log line, CSV
// rows when output is enabled, and any bookmarks that trigger.
func (r *Reporter) Report(cycle int) CycleStats {
	stats := r.Sample(cycle)
	stats.LogStats(r.logger)

	if err := r.output.WriteTelemetry(stats); err != nil {
		r.logger.Error("failed to write telemetry", "error", err)
	}
	if r.perf != nil {
		perfStats := r.perf.Stats()
		perfStats.LogStats(r.logger)
		if err := r.output.WritePerf(perfStats, r.runID, cycle); err != nil {
			r.logger.Error("failed to write perf", "error", err)
		}
	}

	if r.detector != nil {
		for _, bm := range r.detector.Check(stats) {
			bm.LogBookmark(r.logger)
			if err := r.output.WriteBookmark(bm); err != nil {
				r.logger.Error("failed to write bookmark", "error", err)
			}
		}
	}
	return stats
}
