package systems

import "github.com/pthm-cable/island/components"

// graze eats one plant from the current cell if any are left.
func (s *BehaviorSystem) graze(e *components.Entity) {
	c := s.grid.Locate(e)
	if c == nil {
		return
	}
	at := c.Pos()
	fed := c.plants > 0
	if fed {
		c.plants--
		e.Feed(s.rules.MaxHunger)
	} else {
		e.Starve(s.rules.HungerDecay)
	}
	c.Unlock()

	if fed {
		s.observer.Grazed(e, at)
	}
}

// hunt picks one herbivore in the current cell uniformly at random and
// catches it with PredationChance. A caught herbivore leaves the grid.
func (s *BehaviorSystem) hunt(e *components.Entity) {
	c := s.grid.Locate(e)
	if c == nil {
		return
	}
	at := c.Pos()

	var prey []*components.Entity
	for _, m := range c.entities {
		if m.Kind.Species() == components.SpeciesHerbivore {
			prey = append(prey, m)
		}
	}

	var caught *components.Entity
	if len(prey) > 0 {
		target := prey[s.rng.Intn(len(prey))]
		if s.rng.Float64() < s.rules.PredationChance {
			c.removeLocked(target)
			caught = target
		}
	}
	if caught != nil {
		e.Feed(s.rules.MaxHunger)
	} else {
		e.Starve(s.rules.HungerDecay)
	}
	c.Unlock()

	if caught != nil {
		s.observer.Hunted(e, caught, at)
	}
}
