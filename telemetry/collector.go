package telemetry

import (
	"log/slog"
	"sync/atomic"

	"github.com/pthm-cable/island/components"
)

// Collector counts events between reports. It implements systems.Observer
// and is safe for use from every worker goroutine at once.
type Collector struct {
	logger *slog.Logger // nil disables per-event lines

	grazes    atomic.Int64
	hunts     atomic.Int64
	births    atomic.Int64
	abandoned atomic.Int64
	skipped   atomic.Int64
}

// NewCollector creates a collector. When logger is non-nil every event is
// also written as a log line.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// Grazed records a herbivore eating a plant.
func (c *Collector) Grazed(e *components.Entity, at components.Position) {
	c.grazes.Add(1)
	c.emit(NewGrazeEvent(e, at))
}

// Hunted records a predator catching prey.
func (c *Collector) Hunted(predator, prey *components.Entity, at components.Position) {
	c.hunts.Add(1)
	c.emit(NewHuntEvent(predator, prey, at))
}

// Born records a birth.
func (c *Collector) Born(child, parent *components.Entity, at components.Position) {
	c.births.Add(1)
	c.emit(NewBirthEvent(child, parent, at))
}

// RecordAbandoned records behavior tasks still running at the tick deadline.
func (c *Collector) RecordAbandoned(n int) {
	c.abandoned.Add(int64(n))
}

// RecordSkipped records behavior tasks never submitted before the deadline.
func (c *Collector) RecordSkipped(n int) {
	c.skipped.Add(int64(n))
}

func (c *Collector) emit(ev Event) {
	if c.logger != nil {
		ev.Log(c.logger)
	}
}

// Counts holds event totals for one report window.
type Counts struct {
	Grazes    int
	Hunts     int
	Births    int
	Abandoned int
	Skipped   int
}

// Drain returns the counts since the previous Drain and resets them.
func (c *Collector) Drain() Counts {
	return Counts{
		Grazes:    int(c.grazes.Swap(0)),
		Hunts:     int(c.hunts.Swap(0)),
		Births:    int(c.births.Swap(0)),
		Abandoned: int(c.abandoned.Swap(0)),
		Skipped:   int(c.skipped.Swap(0)),
	}
}
