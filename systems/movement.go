package systems

import "github.com/pthm-cable/island/components"

// Move steps e by a random offset in {-1,0,1} on each axis, clamped to the
// grid. Staying put is a no-op; otherwise the entity is transferred.
func (s *BehaviorSystem) Move(e *components.Entity) {
	if e.Removed() {
		return
	}
	from := e.Pos()
	to := s.grid.Clamp(components.Position{
		X: from.X + step(s.rng),
		Y: from.Y + step(s.rng),
	})
	if to == from {
		return
	}
	// A false result means e was eaten since Pos was read.
	s.grid.Transfer(e, s.grid.CellAt(from), s.grid.CellAt(to))
}
