// Package systems provides the island grid and the rules that act on it.
package systems

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pthm-cable/island/components"
)

// Cell is one grid location. It owns the entities standing on it and a
// plant counter, both guarded by mu.
type Cell struct {
	X, Y int

	mu       sync.Mutex
	entities []*components.Entity
	plants   int
}

// Pos returns the cell coordinate.
func (c *Cell) Pos() components.Position {
	return components.Position{X: c.X, Y: c.Y}
}

// Add places e in the cell.
func (c *Cell) Add(e *components.Entity) {
	c.mu.Lock()
	c.entities = append(c.entities, e)
	c.mu.Unlock()
}

// Contains reports whether e is a member.
func (c *Cell) Contains(e *components.Entity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOf(e) >= 0
}

// Len returns the number of entities in the cell.
func (c *Cell) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entities)
}

// CountKind returns how many members are of kind k.
func (c *Cell) CountKind(k components.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countKindLocked(k)
}

// Entities returns a copy of the membership.
func (c *Cell) Entities() []*components.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*components.Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

// Plants returns the plant count.
func (c *Cell) Plants() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plants
}

// SetPlants overwrites the plant count; negative values clamp to zero.
func (c *Cell) SetPlants(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.plants = n
	c.mu.Unlock()
}

// Grow adds n plants and returns the new count.
func (c *Cell) Grow(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plants += n
	return c.plants
}

// CellCensus is a consistent read of one cell.
type CellCensus struct {
	Pos      components.Position
	Entities int
	Plants   int
	ByKind   [components.NumKinds]int
	Hunger   []float64
}

// Census reads membership, plants and hunger under a single lock hold.
func (c *Cell) Census() CellCensus {
	c.mu.Lock()
	defer c.mu.Unlock()
	cc := CellCensus{
		Pos:      c.Pos(),
		Entities: len(c.entities),
		Plants:   c.plants,
		Hunger:   make([]float64, 0, len(c.entities)),
	}
	for _, e := range c.entities {
		if int(e.Kind) < len(cc.ByKind) {
			cc.ByKind[e.Kind]++
		}
		cc.Hunger = append(cc.Hunger, float64(e.Hunger()))
	}
	return cc
}

func (c *Cell) indexOf(e *components.Entity) int {
	for i, m := range c.entities {
		if m == e {
			return i
		}
	}
	return -1
}

// removeLocked requires mu held. Membership order is preserved so that
// seeded selections stay reproducible.
func (c *Cell) removeLocked(e *components.Entity) bool {
	i := c.indexOf(e)
	if i < 0 {
		return false
	}
	c.detachLocked(i)
	e.MarkRemoved()
	return true
}

func (c *Cell) detachLocked(i int) {
	copy(c.entities[i:], c.entities[i+1:])
	c.entities[len(c.entities)-1] = nil
	c.entities = c.entities[:len(c.entities)-1]
}

func (c *Cell) countKindLocked(k components.Kind) int {
	n := 0
	for _, m := range c.entities {
		if m.Kind == k {
			n++
		}
	}
	return n
}

// Grid is a fixed width x height array of cells. Its shape never changes,
// so Width, Height and At need no locking.
type Grid struct {
	width, height int
	cells         []*Cell // row-major: index = y*width + x
	nextID        atomic.Uint32
}

// NewGrid creates a grid with every cell empty.
func NewGrid(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("systems: invalid grid size %dx%d", width, height))
	}
	cells := make([]*Cell, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cells[y*width+x] = &Cell{X: x, Y: y}
		}
	}
	return &Grid{width: width, height: height, cells: cells}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether p addresses a cell.
func (g *Grid) InBounds(p components.Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Clamp pulls p onto the grid.
func (g *Grid) Clamp(p components.Position) components.Position {
	return components.Position{
		X: clampInt(p.X, 0, g.width-1),
		Y: clampInt(p.Y, 0, g.height-1),
	}
}

// At returns the cell at (x, y). Out-of-range coordinates are a caller bug.
func (g *Grid) At(x, y int) *Cell {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		panic(fmt.Sprintf("systems: cell (%d,%d) outside %dx%d grid", x, y, g.width, g.height))
	}
	return g.cells[y*g.width+x]
}

// CellAt is At for a Position.
func (g *Grid) CellAt(p components.Position) *Cell {
	return g.At(p.X, p.Y)
}

// Cells returns every cell in row-major order. The slice is shared; do not modify.
func (g *Grid) Cells() []*Cell {
	return g.cells
}

// NextID issues a unique entity ID.
func (g *Grid) NextID() uint32 {
	return g.nextID.Add(1)
}

// Spawn creates a new entity of kind at p and places it on the grid.
func (g *Grid) Spawn(kind components.Kind, p components.Position, hunger int) *components.Entity {
	e := components.NewEntity(g.NextID(), kind, p, hunger)
	g.CellAt(p).Add(e)
	return e
}

// Transfer moves e from one cell to another. Both cell locks are taken in
// ascending (x, y) order whatever the direction, so concurrent transfers
// can never wait on each other in a cycle. Returns false without changes
// if e is no longer a member of from.
func (g *Grid) Transfer(e *components.Entity, from, to *Cell) bool {
	if from == to {
		return from.Contains(e)
	}

	first, second := from, to
	if to.Pos().Less(from.Pos()) {
		first, second = to, from
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	i := from.indexOf(e)
	if i < 0 {
		return false
	}
	from.detachLocked(i)
	e.SetPos(to.Pos())
	to.entities = append(to.entities, e)
	return true
}

// Locate returns the cell currently holding e with its lock held, or nil
// if e has been removed from the grid. The caller must unlock the cell.
func (g *Grid) Locate(e *components.Entity) *Cell {
	for {
		if e.Removed() {
			return nil
		}
		c := g.CellAt(e.Pos())
		c.mu.Lock()
		if c.indexOf(e) >= 0 {
			return c
		}
		c.mu.Unlock()
		// A concurrent transfer moved e between the read and the lock.
		runtime.Gosched()
	}
}

// Unlock releases a cell returned by Locate.
func (c *Cell) Unlock() {
	c.mu.Unlock()
}

// Snapshot collects every entity on the grid. Each cell is locked only
// while it is copied, so the result is not a single instant of the grid.
func (g *Grid) Snapshot() []*components.Entity {
	var out []*components.Entity
	for _, c := range g.cells {
		c.mu.Lock()
		out = append(out, c.entities...)
		c.mu.Unlock()
	}
	return out
}

// Count returns the total number of entities, read cell by cell.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		n += c.Len()
	}
	return n
}
