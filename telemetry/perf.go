package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/island/systems"
)

// taskWindow is a rolling buffer of durations for one task.
type taskWindow struct {
	samples     []time.Duration
	writeIndex  int
	sampleCount int
}

func (w *taskWindow) add(d time.Duration) {
	w.samples[w.writeIndex] = d
	w.writeIndex = (w.writeIndex + 1) % len(w.samples)
	if w.sampleCount < len(w.samples) {
		w.sampleCount++
	}
}

// PerfCollector tracks how long each periodic task takes over a rolling
// window. Tasks run on their own goroutines, so every method locks.
type PerfCollector struct {
	mu         sync.Mutex
	windowSize int
	tasks      map[string]*taskWindow
	process    *processSampler
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of runs per task to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 30
	}
	return &PerfCollector{
		windowSize: windowSize,
		tasks:      make(map[string]*taskWindow),
		process:    newProcessSampler(),
	}
}

// Record adds one run of task that took d.
func (p *PerfCollector) Record(task string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.tasks[task]
	if !ok {
		w = &taskWindow{samples: make([]time.Duration, p.windowSize)}
		p.tasks[task] = w
	}
	w.add(d)
}

// Time runs fn and records its duration under task.
func (p *PerfCollector) Time(task string, fn func()) {
	start := time.Now()
	fn()
	p.Record(task, time.Since(start))
}

// TaskPerf holds aggregated timing for one task.
type TaskPerf struct {
	Avg, Min, Max time.Duration
	Samples       int
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Tasks   map[string]TaskPerf
	Process ProcessStats
}

// Stats computes aggregated statistics over the current window and samples
// process resource usage.
func (p *PerfCollector) Stats() PerfStats {
	proc := p.process.sample()

	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PerfStats{Tasks: make(map[string]TaskPerf, len(p.tasks)), Process: proc}
	for name, w := range p.tasks {
		if w.sampleCount == 0 {
			continue
		}
		var total, minD, maxD time.Duration
		for i := 0; i < w.sampleCount; i++ {
			d := w.samples[i]
			total += d
			if i == 0 || d < minD {
				minD = d
			}
			if d > maxD {
				maxD = d
			}
		}
		stats.Tasks[name] = TaskPerf{
			Avg:     total / time.Duration(w.sampleCount),
			Min:     minD,
			Max:     maxD,
			Samples: w.sampleCount,
		}
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats(logger *slog.Logger) {
	var attrs []any
	for _, task := range []string{systems.TaskGrowth, systems.TaskBehavior, systems.TaskReport} {
		if tp, ok := s.Tasks[task]; ok {
			attrs = append(attrs,
				task+"_avg_us", tp.Avg.Microseconds(),
				task+"_max_us", tp.Max.Microseconds(),
			)
		}
	}
	attrs = append(attrs,
		"rss_mb", float64(s.Process.RSSBytes)/(1<<20),
		"cpu_pct", s.Process.CPUPercent,
		"goroutines", s.Process.Goroutines,
	)
	logger.Debug("perf", attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	RunID         string  `csv:"run_id"`
	Cycle         int     `csv:"cycle"`
	GrowthAvgUS   int64   `csv:"growth_avg_us"`
	GrowthMaxUS   int64   `csv:"growth_max_us"`
	BehaviorAvgUS int64   `csv:"behavior_avg_us"`
	BehaviorMaxUS int64   `csv:"behavior_max_us"`
	ReportAvgUS   int64   `csv:"report_avg_us"`
	ReportMaxUS   int64   `csv:"report_max_us"`
	RSSBytes      uint64  `csv:"rss_bytes"`
	CPUPercent    float64 `csv:"cpu_percent"`
	Goroutines    int     `csv:"goroutines"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(runID string, cycle int) PerfStatsCSV {
	growth := s.Tasks[systems.TaskGrowth]
	behavior := s.Tasks[systems.TaskBehavior]
	report := s.Tasks[systems.TaskReport]
	return PerfStatsCSV{
		RunID:         runID,
		Cycle:         cycle,
		GrowthAvgUS:   growth.Avg.Microseconds(),
		GrowthMaxUS:   growth.Max.Microseconds(),
		BehaviorAvgUS: behavior.Avg.Microseconds(),
		BehaviorMaxUS: behavior.Max.Microseconds(),
		ReportAvgUS:   report.Avg.Microseconds(),
		ReportMaxUS:   report.Max.Microseconds(),
		RSSBytes:      s.Process.RSSBytes,
		CPUPercent:    s.Process.CPUPercent,
		Goroutines:    s.Process.Goroutines,
	}
}
