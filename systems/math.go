package systems

// clampInt clamps v between lo and hi.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// step returns a random offset in {-1, 0, 1}.
func step(rng Rand) int {
	return rng.Intn(3) - 1
}
