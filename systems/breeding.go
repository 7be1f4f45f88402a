package systems

import "github.com/pthm-cable/island/components"

// Reproduce adds one newborn of e's kind to e's cell when at least one
// other entity of that kind shares the cell and the coin flip succeeds.
func (s *BehaviorSystem) Reproduce(e *components.Entity) *components.Entity {
	c := s.grid.Locate(e)
	if c == nil {
		return nil
	}
	at := c.Pos()

	var child *components.Entity
	if c.countKindLocked(e.Kind) > 1 && s.rng.Float64() < s.rules.ReproductionChance {
		child = components.NewEntity(s.grid.NextID(), e.Kind, at, s.rules.MaxHunger)
		c.entities = append(c.entities, child)
	}
	c.Unlock()

	if child != nil {
		s.observer.Born(child, e, at)
	}
	return child
}
