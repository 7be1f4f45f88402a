package systems

import (
	"github.com/pthm-cable/island/components"
	"github.com/pthm-cable/island/config"
)

// Rules holds the eat/reproduce/grow parameters.
type Rules struct {
	MaxHunger          int
	HungerDecay        int
	PredationChance    float64
	ReproductionChance float64
	GrowthPerCycle     int
}

// DefaultRules returns the classic island rules.
func DefaultRules() Rules {
	return Rules{
		MaxHunger:          100,
		HungerDecay:        10,
		PredationChance:    0.6,
		ReproductionChance: 0.5,
		GrowthPerCycle:     1,
	}
}

// RulesFromConfig builds Rules from the loaded config.
func RulesFromConfig(cfg config.RulesConfig) Rules {
	return Rules{
		MaxHunger:          cfg.MaxHunger,
		HungerDecay:        cfg.HungerDecay,
		PredationChance:    cfg.PredationChance,
		ReproductionChance: cfg.ReproductionChance,
		GrowthPerCycle:     cfg.GrowthPerCycle,
	}
}

// Observer receives notable events. Callbacks run on worker goroutines
// after the cell lock has been released.
type Observer interface {
	Grazed(e *components.Entity, at components.Position)
	Hunted(predator, prey *components.Entity, at components.Position)
	Born(child, parent *components.Entity, at components.Position)
}

type nopObserver struct{}

func (nopObserver) Grazed(*components.Entity, components.Position)                     {}
func (nopObserver) Hunted(*components.Entity, *components.Entity, components.Position) {}
func (nopObserver) Born(*components.Entity, *components.Entity, components.Position)   {}

// feedFunc is one row of the species behavior table.
type feedFunc func(s *BehaviorSystem, e *components.Entity)

var feeders = [...]feedFunc{
	components.SpeciesHerbivore: (*BehaviorSystem).graze,
	components.SpeciesPredator:  (*BehaviorSystem).hunt,
}

// BehaviorSystem runs the per-entity actions against the shared grid.
// It holds no per-entity state and is safe to use from many goroutines.
type BehaviorSystem struct {
	grid     *Grid
	rules    Rules
	rng      Rand
	observer Observer
}

// NewBehaviorSystem creates a behavior system. A nil observer discards events.
func NewBehaviorSystem(grid *Grid, rules Rules, rng Rand, observer Observer) *BehaviorSystem {
	if observer == nil {
		observer = nopObserver{}
	}
	return &BehaviorSystem{grid: grid, rules: rules, rng: rng, observer: observer}
}

// Grid returns the grid the system acts on.
func (s *BehaviorSystem) Grid() *Grid {
	return s.grid
}

// Act runs one tick of behavior for e: eat, then move, then reproduce.
// Each step re-reads the current grid; an entity eaten mid-sequence stops.
func (s *BehaviorSystem) Act(e *components.Entity) {
	s.Eat(e)
	s.Move(e)
	s.Reproduce(e)
}

// Eat dispatches to the feeding rule of e's species.
func (s *BehaviorSystem) Eat(e *components.Entity) {
	feeders[e.Kind.Species()](s, e)
}
