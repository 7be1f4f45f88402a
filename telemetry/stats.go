package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CycleStats is one report: aggregate counts read from the grid plus the
// events counted since the previous report.
type CycleStats struct {
	RunID      string  `csv:"run_id"`
	Cycle      int     `csv:"cycle"`
	ElapsedSec float64 `csv:"elapsed_sec"`

	// Grid totals (best-effort, each cell read under its own lock)
	Entities   int `csv:"entities"`
	Plants     int `csv:"plants"`
	Predators  int `csv:"predators"`
	Herbivores int `csv:"herbivores"`
	Wolves     int `csv:"wolves"`
	Rabbits    int `csv:"rabbits"`

	// Crowding
	OccupiedCells   int `csv:"occupied_cells"`
	MaxCellEntities int `csv:"max_cell_entities"`

	// Events during window
	Grazes    int `csv:"grazes"`
	Hunts     int `csv:"hunts"`
	Births    int `csv:"births"`
	Abandoned int `csv:"abandoned"`
	Skipped   int `csv:"skipped"`

	// Hunger distribution (sampled at report time)
	HungerMean float64 `csv:"hunger_mean"`
	HungerStd  float64 `csv:"hunger_std"`
	HungerP50  float64 `csv:"hunger_p50"`
}

// ComputeHungerStats returns the mean, sample standard deviation and median
// of values. Empty input yields zeros; a single value has zero spread.
func ComputeHungerStats(values []float64) (mean, std, p50 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n == 1 {
		mean = sorted[0]
	} else {
		mean, std = stat.MeanStdDev(sorted, nil)
		if math.IsNaN(std) {
			std = 0
		}
	}
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return mean, std, p50
}

// LogValue implements slog.LogValuer for structured logging.
func (s CycleStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("cycle", s.Cycle),
		slog.Int("entities", s.Entities),
		slog.Int("plants", s.Plants),
		slog.Int("predators", s.Predators),
		slog.Int("herbivores", s.Herbivores),
		slog.Int("grazes", s.Grazes),
		slog.Int("hunts", s.Hunts),
		slog.Int("births", s.Births),
		slog.Int("abandoned", s.Abandoned),
		slog.Float64("hunger_mean", s.HungerMean),
	)
}

// LogStats logs the cycle stats as a single line.
func (s CycleStats) LogStats(logger *slog.Logger) {
	logger.Info("stats",
		"run_id", s.RunID,
		"cycle", s.Cycle,
		"elapsed_sec", s.ElapsedSec,
		"entities", s.Entities,
		"plants", s.Plants,
		"wolves", s.Wolves,
		"rabbits", s.Rabbits,
		"occupied_cells", s.OccupiedCells,
		"max_cell_entities", s.MaxCellEntities,
		"grazes", s.Grazes,
		"hunts", s.Hunts,
		"births", s.Births,
		"abandoned", s.Abandoned,
		"skipped", s.Skipped,
		"hunger_mean", s.HungerMean,
		"hunger_std", s.HungerStd,
		"hunger_p50", s.HungerP50,
	)
}
