package testutil

import (
	"slices"
	"sync"
)

// DeterministicClock numbers resolutions 1, 2, 3, ... in the order they
// are observed and keeps the seqs it issued, so a test can check exactly
// which seqs a run consumed. Safe for concurrent use.
type DeterministicClock struct {
	mu     sync.Mutex
	issued []int64
}

func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := int64(len(c.issued)) + 1
	c.issued = append(c.issued, seq)
	return seq
}

// Current returns the last seq issued, 0 before the first Next.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.issued))
}

// Issued returns a copy of every seq issued so far.
func (c *DeterministicClock) Issued() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.issued)
}
