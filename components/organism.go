package components

import "sync"

// Entity is one animal on the grid.
//
// ID and Kind never change. Position, hunger and the removed flag are
// guarded by mu, a leaf lock: it is taken only for short reads and writes
// and never held while acquiring a cell lock. Position is written only by
// the grid while it holds the locks of both cells involved in a move.
type Entity struct {
	ID   uint32
	Kind Kind

	mu      sync.Mutex
	pos     Position
	hunger  int
	removed bool
}

// NewEntity creates an entity at pos with the given starting hunger.
func NewEntity(id uint32, kind Kind, pos Position, hunger int) *Entity {
	return &Entity{ID: id, Kind: kind, pos: pos, hunger: hunger}
}

// Pos returns the stored position.
func (e *Entity) Pos() Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

// SetPos stores a new position. Only the grid calls this, under cell locks.
func (e *Entity) SetPos(p Position) {
	e.mu.Lock()
	e.pos = p
	e.mu.Unlock()
}

// Hunger returns the current hunger level.
func (e *Entity) Hunger() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hunger
}

// Feed resets hunger to full.
func (e *Entity) Feed(full int) {
	e.mu.Lock()
	e.hunger = full
	e.mu.Unlock()
}

// Starve lowers hunger by amount, floored at zero, and returns the new level.
func (e *Entity) Starve(amount int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hunger -= amount
	if e.hunger < 0 {
		e.hunger = 0
	}
	return e.hunger
}

// MarkRemoved flags the entity as taken out of the grid.
// Called under the lock of the cell that held it.
func (e *Entity) MarkRemoved() {
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
}

// Removed reports whether the entity has left the grid for good.
func (e *Entity) Removed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removed
}
