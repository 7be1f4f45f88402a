package telemetry

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is a point-in-time view of the simulator's own resource use.
type ProcessStats struct {
	RSSBytes   uint64
	CPUPercent float64 // since the previous sample
	Goroutines int
}

// processSampler reads resource usage of the current process. A nil
// sampler still reports the goroutine count.
type processSampler struct {
	proc *process.Process
}

func newProcessSampler() *processSampler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}
	s := &processSampler{proc: proc}
	// Prime the CPU baseline so the first report has a real delta.
	_, _ = proc.Percent(0)
	return s
}

func (s *processSampler) sample() ProcessStats {
	ps := ProcessStats{Goroutines: runtime.NumGoroutine()}
	if s == nil {
		return ps
	}
	if mem, err := s.proc.MemoryInfo(); err == nil {
		ps.RSSBytes = mem.RSS
	}
	if pct, err := s.proc.Percent(0); err == nil {
		ps.CPUPercent = pct
	}
	return ps
}
