package systems

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/pthm-cable/island/components"
)

func TestNewGrid(t *testing.T) {
	grid := NewGrid(4, 3)

	if grid.Width() != 4 || grid.Height() != 3 {
		t.Fatalf("size = %dx%d, want 4x3", grid.Width(), grid.Height())
	}
	if len(grid.Cells()) != 12 {
		t.Fatalf("cells = %d, want 12", len(grid.Cells()))
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			c := grid.At(x, y)
			if c.X != x || c.Y != y {
				t.Errorf("At(%d,%d) returned cell (%d,%d)", x, y, c.X, c.Y)
			}
		}
	}
}

func TestGridAtOutOfRangePanics(t *testing.T) {
	grid := NewGrid(2, 2)
	tests := []struct{ x, y int }{{-1, 0}, {0, -1}, {2, 0}, {0, 2}}
	for _, tt := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("At(%d,%d) should panic", tt.x, tt.y)
				}
			}()
			grid.At(tt.x, tt.y)
		}()
	}
}

func TestClamp(t *testing.T) {
	grid := NewGrid(10, 5)
	tests := []struct {
		in, want components.Position
	}{
		{components.Position{X: -1, Y: -1}, components.Position{X: 0, Y: 0}},
		{components.Position{X: 10, Y: 5}, components.Position{X: 9, Y: 4}},
		{components.Position{X: 3, Y: 2}, components.Position{X: 3, Y: 2}},
	}
	for _, tt := range tests {
		if got := grid.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if !grid.InBounds(grid.Clamp(tt.in)) {
			t.Errorf("Clamp(%v) not in bounds", tt.in)
		}
	}
}

func TestTransfer(t *testing.T) {
	grid := NewGrid(3, 3)
	e := grid.Spawn(components.KindRabbit, components.Position{X: 0, Y: 0}, 100)
	from, to := grid.At(0, 0), grid.At(1, 1)

	if !grid.Transfer(e, from, to) {
		t.Fatal("Transfer returned false")
	}

	if from.Contains(e) {
		t.Error("source cell still holds the entity")
	}
	if to.Len() != 1 || !to.Contains(e) {
		t.Errorf("target cell len = %d, want exactly the entity", to.Len())
	}
	if e.Pos() != (components.Position{X: 1, Y: 1}) {
		t.Errorf("pos = %v, want (1,1)", e.Pos())
	}
	assertSingleMembership(t, grid, e)
}

func TestTransferNotMember(t *testing.T) {
	grid := NewGrid(2, 2)
	e := grid.Spawn(components.KindRabbit, components.Position{X: 0, Y: 0}, 100)
	evict(grid.At(0, 0), e)

	if grid.Transfer(e, grid.At(0, 0), grid.At(1, 0)) {
		t.Error("Transfer of a removed entity should fail")
	}
	if grid.At(1, 0).Len() != 0 {
		t.Error("removed entity must not reappear")
	}
}

func TestTransferBothDirections(t *testing.T) {
	grid := NewGrid(2, 2)
	e := grid.Spawn(components.KindWolf, components.Position{X: 1, Y: 1}, 100)

	if !grid.Transfer(e, grid.At(1, 1), grid.At(0, 0)) {
		t.Fatal("descending transfer failed")
	}
	if !grid.Transfer(e, grid.At(0, 0), grid.At(1, 1)) {
		t.Fatal("ascending transfer failed")
	}
	assertSingleMembership(t, grid, e)
}

// TestTransferNoDeadlock hammers a tiny grid with concurrent transfers in
// every direction and requires them all to finish.
func TestTransferNoDeadlock(t *testing.T) {
	grid := NewGrid(3, 3)
	var entities []*components.Entity
	for i := 0; i < 60; i++ {
		entities = append(entities, grid.Spawn(components.KindRabbit, components.Position{X: i % 3, Y: (i / 3) % 3}, 100))
	}

	const workers = 32
	const movesPerWorker = 500

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				rng := rand.New(rand.NewSource(seed))
				for i := 0; i < movesPerWorker; i++ {
					e := entities[rng.Intn(len(entities))]
					from := grid.CellAt(e.Pos())
					to := grid.At(rng.Intn(3), rng.Intn(3))
					grid.Transfer(e, from, to)
				}
			}(int64(w))
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent transfers did not finish; lock ordering broken")
	}

	if grid.Count() != len(entities) {
		t.Errorf("count = %d, want %d", grid.Count(), len(entities))
	}
	for _, e := range entities {
		assertSingleMembership(t, grid, e)
	}
}

func TestLocate(t *testing.T) {
	grid := NewGrid(2, 2)
	e := grid.Spawn(components.KindRabbit, components.Position{X: 1, Y: 0}, 100)

	c := grid.Locate(e)
	if c == nil {
		t.Fatal("Locate returned nil for a live entity")
	}
	if c.Pos() != (components.Position{X: 1, Y: 0}) {
		t.Errorf("Locate cell = %v, want (1,0)", c.Pos())
	}
	c.Unlock()

	evict(grid.At(1, 0), e)
	if grid.Locate(e) != nil {
		t.Error("Locate should return nil for a removed entity")
	}
}

func TestCensus(t *testing.T) {
	grid := NewGrid(1, 1)
	grid.Spawn(components.KindWolf, components.Position{}, 40)
	grid.Spawn(components.KindRabbit, components.Position{}, 100)
	grid.Spawn(components.KindRabbit, components.Position{}, 70)
	grid.At(0, 0).SetPlants(4)

	cc := grid.At(0, 0).Census()

	if cc.Entities != 3 || cc.Plants != 4 {
		t.Errorf("census = %d entities %d plants, want 3 and 4", cc.Entities, cc.Plants)
	}
	if cc.ByKind[components.KindWolf] != 1 || cc.ByKind[components.KindRabbit] != 2 {
		t.Errorf("by kind = %v, want wolf 1 rabbit 2", cc.ByKind)
	}
	if len(cc.Hunger) != 3 {
		t.Errorf("hunger samples = %d, want 3", len(cc.Hunger))
	}
}

func TestSnapshotCopies(t *testing.T) {
	grid := NewGrid(2, 1)
	a := grid.Spawn(components.KindRabbit, components.Position{X: 0}, 100)
	grid.Spawn(components.KindRabbit, components.Position{X: 1}, 100)

	snap := grid.Snapshot()
	evict(grid.At(0, 0), a)

	if len(snap) != 2 {
		t.Errorf("snapshot len = %d, want 2", len(snap))
	}
	if grid.Count() != 1 {
		t.Errorf("count = %d, want 1", grid.Count())
	}
}

func TestRegistry(t *testing.T) {
	reg := NewSystemRegistry()
	ids := reg.IDs()
	want := []string{TaskGrowth, TaskBehavior, TaskReport}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	if reg.GetName("nope") != "nope" {
		t.Error("unknown IDs should fall back to the ID")
	}
	info, ok := reg.Get(TaskGrowth)
	if !ok || info.Description == "" {
		t.Errorf("growth info = %+v, %v; want a description", info, ok)
	}
}

// evict removes e from c the way an eaten entity leaves its cell.
func evict(c *Cell, e *components.Entity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(e)
}
