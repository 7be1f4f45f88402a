package systems

// FloraSystem regrows plants across the grid.
type FloraSystem struct {
	grid  *Grid
	rules Rules
}

// NewFloraSystem creates a flora system for grid.
func NewFloraSystem(grid *Grid, rules Rules) *FloraSystem {
	return &FloraSystem{grid: grid, rules: rules}
}

// Seed gives every cell a uniform plant count in [0, max). max <= 0 leaves
// the grid bare.
func (f *FloraSystem) Seed(rng Rand, max int) {
	for _, c := range f.grid.cells {
		n := 0
		if max > 0 {
			n = rng.Intn(max)
		}
		c.SetPlants(n)
	}
}

// Grow adds GrowthPerCycle plants to every cell, one cell lock at a time,
// and returns the plant total it observed.
func (f *FloraSystem) Grow() int {
	total := 0
	for _, c := range f.grid.cells {
		total += c.Grow(f.rules.GrowthPerCycle)
	}
	return total
}

// TotalPlants sums plant counts cell by cell.
func (f *FloraSystem) TotalPlants() int {
	total := 0
	for _, c := range f.grid.cells {
		total += c.Plants()
	}
	return total
}
