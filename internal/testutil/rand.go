package testutil

import "sync"

// SequenceRand is a scripted random source for tests.
//
// Each IntN call returns the next scripted value reduced modulo n, cycling
// through the script. An empty script always returns 0, i.e. the first
// alternative in insertion order.
//
// Thread-safety: SequenceRand is safe for concurrent use via internal mutex.
type SequenceRand struct {
	mu     sync.Mutex
	script []int
	idx    int
	calls  int
}

// NewSequenceRand creates a source that replays script in order.
func NewSequenceRand(script ...int) *SequenceRand {
	return &SequenceRand{script: script}
}

// IntN returns the next scripted value modulo n.
// Implements grammar.Rand.
func (r *SequenceRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if len(r.script) == 0 {
		return 0
	}
	v := r.script[r.idx%len(r.script)]
	r.idx++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Calls returns how many times IntN has been called.
func (r *SequenceRand) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
