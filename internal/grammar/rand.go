package grammar

import "math/rand/v2"

// Rand selects an index in [0, n). It must not be called with n <= 0.
//
// *rand.Rand from math/rand/v2 satisfies Rand.
type Rand interface {
	IntN(n int) int
}

// globalRand draws from the process-wide math/rand/v2 source, which is
// randomly seeded at startup. Runs are not reproducible.
type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// NewSeededRand returns a reproducible source for the given seed.
// Two stores built with the same seed and the same insertion history pick
// the same alternatives in the same order.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
