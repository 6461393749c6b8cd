package domain

import "sync/atomic"

// Clock counts rising edges of one clock domain.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations), so a
// monitor goroutine may read Current while the domain's own agent calls Next.
type Clock struct {
	cycle atomic.Int64
}

// NewClock creates a clock that has not ticked yet.
func NewClock() *Clock {
	return &Clock{}
}

// Next records one edge and returns its cycle number, starting at 1.
func (c *Clock) Next() int64 {
	return c.cycle.Add(1)
}

// Current returns the number of edges seen so far.
func (c *Clock) Current() int64 {
	return c.cycle.Load()
}

// Reset returns the clock to cycle 0.
func (c *Clock) Reset() {
	c.cycle.Store(0)
}
