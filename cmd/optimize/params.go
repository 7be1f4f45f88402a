// Package main provides CMA-ES optimization for island rule parameters.
package main

import (
	"math"

	"github.com/pthm-cable/island/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Rules
			{Name: "predation_chance", Path: "rules.predation_chance", Min: 0.05, Max: 1.0, Default: 0.6},
			{Name: "reproduction_chance", Path: "rules.reproduction_chance", Min: 0.05, Max: 1.0, Default: 0.5},
			{Name: "growth_per_cycle", Path: "rules.growth_per_cycle", Min: 0, Max: 5, Default: 1, Integer: true},
			// Population
			{Name: "wolves", Path: "population.wolf", Min: 1, Max: 20, Default: 5, Integer: true},
			{Name: "rabbits", Path: "population.rabbit", Min: 2, Max: 40, Default: 10, Integer: true},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds, rounding integer parameters.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Min(math.Max(v[i], spec.Min), spec.Max)
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config and re-finalizes it.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)

	cfg.Rules.PredationChance = clamped[0]
	cfg.Rules.ReproductionChance = clamped[1]
	cfg.Rules.GrowthPerCycle = int(clamped[2])

	cfg.Population = config.PopulationConfig{
		"wolf":   int(clamped[3]),
		"rabbit": int(clamped[4]),
	}
	return cfg.Finalize()
}

// ExtractFromConfig extracts current parameter values from a Config.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Rules.PredationChance,
		cfg.Rules.ReproductionChance,
		float64(cfg.Rules.GrowthPerCycle),
		float64(cfg.Population["wolf"]),
		float64(cfg.Population["rabbit"]),
	}
}
