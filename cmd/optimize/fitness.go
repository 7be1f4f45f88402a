package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/island/config"
	"github.com/pthm-cable/island/game"
	"github.com/pthm-cable/island/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxCycles   int
	maxEntities int
	seeds       []int64
	baseConfig  *config.Config

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxCycles, maxEntities int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxCycles:   maxCycles,
		maxEntities: maxEntities,
		seeds:       seeds,
		baseConfig:  baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalCycles int                    // cycles before extinction or overrun (or maxCycles)
	cycles         []telemetry.CycleStats // one per step
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival cycles: longer coexistence = lower fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		slog.Warn("rejected parameters", "error", err)
		return 0
	}

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(cfg, s)
			quality := computeQuality(result.cycles)
			results[idx] = seedResult{
				fitness: computeFitness(result.survivalCycles, quality),
				quality: quality,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation steps one simulation until a species dies out, the
// population overruns maxEntities, or maxCycles pass.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) *runResult {
	result := &runResult{survivalCycles: fe.maxCycles}

	sim, err := game.NewSimulation(cfg, game.Options{
		Seed:   seed,
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		result.survivalCycles = 0
		return result
	}
	defer sim.Close()
	if err := sim.Populate(); err != nil {
		result.survivalCycles = 0
		return result
	}

	ctx := context.Background()
	for c := 1; c <= fe.maxCycles; c++ {
		stats := sim.Step(ctx)
		result.cycles = append(result.cycles, stats)

		if stats.Wolves == 0 || stats.Rabbits == 0 || stats.Entities > fe.maxEntities {
			result.survivalCycles = c
			break
		}
	}
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalCycles × (1.0 + 0.2 × quality))
func computeFitness(survivalCycles int, quality float64) float64 {
	return -(float64(survivalCycles) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.40
	qualityWeightStability = 0.35
	qualityWeightHunting   = 0.25

	qualityWarmupCycles = 3 // skip first N cycles
	qualityMinPop       = 2 // exclude cycles where either kind < this
	targetPreyPerWolf   = 3.0
)

// computeQuality scores ecosystem quality in [0, 1] from per-cycle stats.
func computeQuality(cycles []telemetry.CycleStats) float64 {
	if len(cycles) <= qualityWarmupCycles {
		return 0
	}

	var ratioSum, huntSum float64
	var ratioCount, huntCount int
	rabbits := make([]float64, 0, len(cycles))
	wolves := make([]float64, 0, len(cycles))

	for _, c := range cycles[qualityWarmupCycles:] {
		if c.Rabbits < qualityMinPop || c.Wolves < qualityMinPop {
			continue
		}
		rabbits = append(rabbits, float64(c.Rabbits))
		wolves = append(wolves, float64(c.Wolves))

		// Prey-to-predator ratio near the target
		logErr := math.Log(float64(c.Rabbits) / float64(c.Wolves) / targetPreyPerWolf)
		ratioSum += math.Exp(-logErr * logErr)
		ratioCount++

		// Hunting activity: some but not all wolves eat each cycle
		huntsPerWolf := float64(c.Hunts) / float64(c.Wolves)
		huntSum += math.Exp(-math.Pow((huntsPerWolf-0.3)/0.25, 2))
		huntCount++
	}

	if ratioCount == 0 {
		return 0
	}

	stabilityScore := 0.0
	if len(rabbits) >= 2 {
		cvR, cvW := cv(rabbits), cv(wolves)
		stabilityScore = math.Exp(-(cvR*cvR + cvW*cvW))
	}

	quality := qualityWeightRatio*ratioSum/float64(ratioCount) +
		qualityWeightStability*stabilityScore +
		qualityWeightHunting*huntSum/float64(huntCount)

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}
