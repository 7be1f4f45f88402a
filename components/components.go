// Package components defines the entity data shared by the simulation systems.
package components

// Position is a cell coordinate on the island grid.
type Position struct {
	X, Y int
}

// Less orders positions lexicographically by (X, Y).
func (p Position) Less(o Position) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

// Species is the feeding capability of a kind.
type Species uint8

const (
	SpeciesHerbivore Species = iota // Grazes plants
	SpeciesPredator                 // Hunts herbivores
)

// Kind is a concrete animal kind. Reproduction only pairs equal kinds.
type Kind uint8

const (
	KindWolf Kind = iota
	KindRabbit

	NumKinds = int(KindRabbit) + 1
)

// kindInfo is one row of the kind table.
type kindInfo struct {
	name    string
	species Species
}

var kindTable = [...]kindInfo{
	KindWolf:   {name: "wolf", species: SpeciesPredator},
	KindRabbit: {name: "rabbit", species: SpeciesHerbivore},
}

// Species returns the feeding capability of the kind.
func (k Kind) Species() Species {
	if int(k) < len(kindTable) {
		return kindTable[k].species
	}
	return SpeciesHerbivore
}

// IsPredator reports whether the kind hunts.
func (k Kind) IsPredator() bool {
	return k.Species() == SpeciesPredator
}
