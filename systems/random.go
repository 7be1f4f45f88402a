package systems

import (
	"math/rand"
	"sync"
)

// Rand is the randomness the rules draw from. Implementations must be safe
// for concurrent use; entity tasks run on many goroutines at once.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// LockedRand is a math/rand source behind a mutex.
type LockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRand creates a goroutine-safe source seeded with seed.
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform int in [0, n).
func (r *LockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// Float64 returns a uniform float in [0, 1).
func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}
