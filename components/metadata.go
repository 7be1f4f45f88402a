package components

import "fmt"

// String returns the config name for a Kind.
func (k Kind) String() string {
	if int(k) < len(kindTable) {
		return kindTable[k].name
	}
	return "unknown"
}

// String returns the display name for a Species.
func (s Species) String() string {
	switch s {
	case SpeciesHerbivore:
		return "herbivore"
	case SpeciesPredator:
		return "predator"
	}
	return "unknown"
}

// KindNames returns the config names for all kinds.
// The order matches the Kind constants.
func KindNames() []string {
	names := make([]string, len(kindTable))
	for i, info := range kindTable {
		names[i] = info.name
	}
	return names
}

// ParseKind resolves a config name such as "wolf" to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, info := range kindTable {
		if info.name == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q (known: %v)", name, KindNames())
}
