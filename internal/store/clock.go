package store

import (
	"context"
	"sync/atomic"
)

// Sequencer hands out strictly increasing seq numbers.
type Sequencer interface {
	Next() int64
}

// Clock stamps journal records. History is ordered by seq, never by wall
// time. Safe for concurrent use.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first seq is 1.
func NewClock() *Clock {
	return NewClockAt(0)
}

// NewClockAt returns a clock whose first seq is last+1.
func NewClockAt(last int64) *Clock {
	c := new(Clock)
	c.last.Store(last)
	return c
}

// ResumeClock returns a clock that continues after the journal's last seq,
// so a new session never reuses an earlier seq.
func (s *Store) ResumeClock(ctx context.Context) (*Clock, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, err
	}
	return NewClockAt(last), nil
}

func (c *Clock) Next() int64 {
	return c.last.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.last.Load()
}
