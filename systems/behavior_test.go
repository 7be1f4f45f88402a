package systems

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/island/components"
)

// scriptedRand replays fixed values. When a script runs dry it returns 0
// for Intn and 0.999 for Float64 so that chance rolls fail by default.
type scriptedRand struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

func (r *scriptedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0.999
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

type countingObserver struct {
	grazes, hunts, births atomic.Int64
}

func (o *countingObserver) Grazed(*components.Entity, components.Position) { o.grazes.Add(1) }
func (o *countingObserver) Hunted(*components.Entity, *components.Entity, components.Position) {
	o.hunts.Add(1)
}
func (o *countingObserver) Born(*components.Entity, *components.Entity, components.Position) {
	o.births.Add(1)
}

func origin() components.Position { return components.Position{} }

func TestHerbivoreEat(t *testing.T) {
	tests := []struct {
		name       string
		plants     int
		hunger     int
		wantPlants int
		wantHunger int
		wantGraze  int64
	}{
		{"plants available", 3, 50, 2, 100, 1},
		{"no plants", 0, 100, 0, 90, 0},
		{"hunger floors at zero", 0, 5, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := NewGrid(2, 2)
			obs := &countingObserver{}
			sys := NewBehaviorSystem(grid, DefaultRules(), &scriptedRand{}, obs)

			rabbit := grid.Spawn(components.KindRabbit, origin(), tt.hunger)
			grid.At(0, 0).SetPlants(tt.plants)

			sys.Eat(rabbit)

			if got := grid.At(0, 0).Plants(); got != tt.wantPlants {
				t.Errorf("plants = %d, want %d", got, tt.wantPlants)
			}
			if got := rabbit.Hunger(); got != tt.wantHunger {
				t.Errorf("hunger = %d, want %d", got, tt.wantHunger)
			}
			if got := obs.grazes.Load(); got != tt.wantGraze {
				t.Errorf("grazes = %d, want %d", got, tt.wantGraze)
			}
		})
	}
}

func TestPredatorEatForcedSuccess(t *testing.T) {
	grid := NewGrid(2, 2)
	obs := &countingObserver{}
	rng := &scriptedRand{ints: []int{0}, floats: []float64{0.0}}
	sys := NewBehaviorSystem(grid, DefaultRules(), rng, obs)

	wolf := grid.Spawn(components.KindWolf, origin(), 40)
	rabbit := grid.Spawn(components.KindRabbit, origin(), 100)

	sys.Eat(wolf)

	cell := grid.At(0, 0)
	if cell.Contains(rabbit) {
		t.Error("rabbit should have been removed from the cell")
	}
	if !rabbit.Removed() {
		t.Error("rabbit should be flagged removed")
	}
	if got := wolf.Hunger(); got != 100 {
		t.Errorf("wolf hunger = %d, want 100", got)
	}
	if cell.Len() != 1 {
		t.Errorf("cell len = %d, want 1", cell.Len())
	}
	if obs.hunts.Load() != 1 {
		t.Errorf("hunts = %d, want 1", obs.hunts.Load())
	}
}

func TestPredatorEatMisses(t *testing.T) {
	t.Run("failed roll", func(t *testing.T) {
		grid := NewGrid(2, 2)
		rng := &scriptedRand{ints: []int{0}, floats: []float64{0.6}}
		sys := NewBehaviorSystem(grid, DefaultRules(), rng, nil)

		wolf := grid.Spawn(components.KindWolf, origin(), 40)
		rabbit := grid.Spawn(components.KindRabbit, origin(), 100)

		sys.Eat(wolf)

		if !grid.At(0, 0).Contains(rabbit) {
			t.Error("rabbit should survive a failed roll")
		}
		if got := wolf.Hunger(); got != 30 {
			t.Errorf("wolf hunger = %d, want 30", got)
		}
	})

	t.Run("no prey", func(t *testing.T) {
		grid := NewGrid(2, 2)
		rng := &scriptedRand{floats: []float64{0.0}}
		sys := NewBehaviorSystem(grid, DefaultRules(), rng, nil)

		wolf := grid.Spawn(components.KindWolf, origin(), 100)
		other := grid.Spawn(components.KindWolf, origin(), 100)

		sys.Eat(wolf)

		if !grid.At(0, 0).Contains(other) {
			t.Error("predators never eat each other")
		}
		if got := wolf.Hunger(); got != 90 {
			t.Errorf("wolf hunger = %d, want 90", got)
		}
		if len(rng.floats) != 1 {
			t.Error("no roll should be drawn without prey")
		}
	})
}

func TestPredatorPicksAmongHerbivores(t *testing.T) {
	grid := NewGrid(1, 1)
	rng := &scriptedRand{ints: []int{1}, floats: []float64{0.1}}
	sys := NewBehaviorSystem(grid, DefaultRules(), rng, nil)

	first := grid.Spawn(components.KindRabbit, origin(), 100)
	wolf := grid.Spawn(components.KindWolf, origin(), 100)
	second := grid.Spawn(components.KindRabbit, origin(), 100)

	sys.Eat(wolf)

	if !grid.At(0, 0).Contains(first) {
		t.Error("first rabbit should remain")
	}
	if grid.At(0, 0).Contains(second) {
		t.Error("second rabbit should have been eaten")
	}
}

func TestReproduce(t *testing.T) {
	tests := []struct {
		name      string
		kinds     []components.Kind
		roll      float64
		wantBirth bool
	}{
		{"two rabbits coin succeeds", []components.Kind{components.KindRabbit, components.KindRabbit}, 0.0, true},
		{"two rabbits coin fails", []components.Kind{components.KindRabbit, components.KindRabbit}, 0.5, false},
		{"lone rabbit", []components.Kind{components.KindRabbit}, 0.0, false},
		{"rabbit with wolf", []components.Kind{components.KindRabbit, components.KindWolf}, 0.0, false},
		{"two wolves", []components.Kind{components.KindWolf, components.KindWolf}, 0.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := NewGrid(3, 3)
			at := components.Position{X: 1, Y: 2}
			obs := &countingObserver{}
			sys := NewBehaviorSystem(grid, DefaultRules(), &scriptedRand{floats: []float64{tt.roll}}, obs)

			var parent *components.Entity
			for i, k := range tt.kinds {
				e := grid.Spawn(k, at, 100)
				if i == 0 {
					parent = e
				}
			}
			before := grid.CellAt(at).Len()

			child := sys.Reproduce(parent)

			cell := grid.CellAt(at)
			if !tt.wantBirth {
				if child != nil || cell.Len() != before {
					t.Errorf("unexpected birth: len %d -> %d", before, cell.Len())
				}
				return
			}
			if child == nil {
				t.Fatal("expected a newborn")
			}
			if cell.Len() != before+1 {
				t.Errorf("cell len = %d, want %d", cell.Len(), before+1)
			}
			if child.Kind != parent.Kind {
				t.Errorf("child kind = %v, want %v", child.Kind, parent.Kind)
			}
			if child.Pos() != at {
				t.Errorf("child pos = %v, want %v", child.Pos(), at)
			}
			if !cell.Contains(child) {
				t.Error("child not in parent's cell")
			}
			if child.ID == parent.ID {
				t.Error("child must get a fresh ID")
			}
			if obs.births.Load() != 1 {
				t.Errorf("births = %d, want 1", obs.births.Load())
			}
		})
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name  string
		start components.Position
		ints  []int
		want  components.Position
	}{
		{"clamped at corner", components.Position{X: 0, Y: 0}, []int{0, 0}, components.Position{X: 0, Y: 0}},
		{"diagonal step", components.Position{X: 0, Y: 0}, []int{2, 2}, components.Position{X: 1, Y: 1}},
		{"stay put", components.Position{X: 1, Y: 1}, []int{1, 1}, components.Position{X: 1, Y: 1}},
		{"clamped at far edge", components.Position{X: 2, Y: 2}, []int{2, 0}, components.Position{X: 2, Y: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := NewGrid(3, 3)
			sys := NewBehaviorSystem(grid, DefaultRules(), &scriptedRand{ints: tt.ints}, nil)
			e := grid.Spawn(components.KindRabbit, tt.start, 100)

			sys.Move(e)

			if e.Pos() != tt.want {
				t.Errorf("pos = %v, want %v", e.Pos(), tt.want)
			}
			assertSingleMembership(t, grid, e)
			if grid.Count() != 1 {
				t.Errorf("count = %d, want 1", grid.Count())
			}
		})
	}
}

func TestActStopsAfterBeingEaten(t *testing.T) {
	grid := NewGrid(2, 2)
	sys := NewBehaviorSystem(grid, DefaultRules(), &scriptedRand{}, nil)
	rabbit := grid.Spawn(components.KindRabbit, origin(), 100)
	evict(grid.At(0, 0), rabbit)

	sys.Act(rabbit)

	if grid.Count() != 0 {
		t.Errorf("count = %d, want 0", grid.Count())
	}
	if rabbit.Hunger() != 100 {
		t.Errorf("removed rabbit should not act, hunger = %d", rabbit.Hunger())
	}
}

// TestConcurrentActConsistency runs many overlapping Act calls and checks
// membership, bounds and conservation afterwards.
func TestConcurrentActConsistency(t *testing.T) {
	grid := NewGrid(4, 4)
	obs := &countingObserver{}
	sys := NewBehaviorSystem(grid, DefaultRules(), NewLockedRand(7), obs)
	flora := NewFloraSystem(grid, DefaultRules())
	flora.Seed(NewLockedRand(8), 5)

	var all []*components.Entity
	for i := 0; i < 40; i++ {
		kind := components.KindRabbit
		if i%4 == 0 {
			kind = components.KindWolf
		}
		all = append(all, grid.Spawn(kind, components.Position{X: i % 4, Y: (i / 4) % 4}, 100))
	}
	initial := int64(grid.Count())

	for round := 0; round < 5; round++ {
		snapshot := grid.Snapshot()
		var wg sync.WaitGroup
		for _, e := range snapshot {
			wg.Add(1)
			go func(e *components.Entity) {
				defer wg.Done()
				sys.Act(e)
			}(e)
		}
		wg.Wait()
	}

	want := initial - obs.hunts.Load() + obs.births.Load()
	if got := int64(grid.Count()); got != want {
		t.Errorf("count = %d, want initial %d - hunts %d + births %d = %d",
			got, initial, obs.hunts.Load(), obs.births.Load(), want)
	}

	seen := make(map[*components.Entity]int)
	for _, c := range grid.Cells() {
		for _, e := range c.Entities() {
			seen[e]++
			if e.Pos() != c.Pos() {
				t.Errorf("entity %d stored at %v but member of %v", e.ID, e.Pos(), c.Pos())
			}
			if !grid.InBounds(e.Pos()) {
				t.Errorf("entity %d out of bounds at %v", e.ID, e.Pos())
			}
			if e.Removed() {
				t.Errorf("removed entity %d still on grid", e.ID)
			}
		}
	}
	for e, n := range seen {
		if n != 1 {
			t.Errorf("entity %d appears %d times", e.ID, n)
		}
	}
	for _, e := range all {
		if !e.Removed() && seen[e] != 1 {
			t.Errorf("live entity %d orphaned", e.ID)
		}
	}
}

func assertSingleMembership(t *testing.T, grid *Grid, e *components.Entity) {
	t.Helper()
	n := 0
	for _, c := range grid.Cells() {
		if c.Contains(e) {
			n++
			if c.Pos() != e.Pos() {
				t.Errorf("entity in cell %v but stored at %v", c.Pos(), e.Pos())
			}
		}
	}
	if n != 1 {
		t.Errorf("entity %d appears in %d cells, want 1", e.ID, n)
	}
}
