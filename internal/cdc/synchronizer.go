// Package cdc relays values between two independently paced clock domains.
//
// A Mailbox is the only state shared between domains: the source publishes
// into it, the destination samples from it. A Synchronizer, owned entirely by
// the destination domain, delays each sample through a fixed chain of stages
// so the destination only ever acts on values that have settled for a known
// number of its own clock edges.
//
// Values relayed this way should be Gray coded. A sample then always equals a
// value the source actually held, and the delayed copy can only trail the
// source, never run ahead of it.
package cdc

import (
	"fmt"
	"sync/atomic"
)

// DefaultStages is the classic two-register synchronizer depth.
const DefaultStages = 2

// Mailbox is a single-slot cell written by one domain and read by another.
// The zero value holds 0 and is ready to use.
type Mailbox struct {
	v atomic.Uint32
}

// Publish makes v visible to the sampling domain.
// Only the source domain may call Publish.
func (m *Mailbox) Publish(v uint32) {
	m.v.Store(v)
}

// Sample returns the most recently published value.
func (m *Mailbox) Sample() uint32 {
	return m.v.Load()
}

// Synchronizer is a chain of registers clocked by the destination domain.
//
// Thread-safety: all methods except construction must be called from the
// destination domain's goroutine. The only concurrent access is the atomic
// Mailbox sample taken by Tick.
type Synchronizer struct {
	src    *Mailbox
	stages []uint32
}

// NewSynchronizer returns a synchronizer sampling src through the given
// number of stages. Returns an error if stages < 1.
func NewSynchronizer(src *Mailbox, stages int) (*Synchronizer, error) {
	if src == nil {
		return nil, fmt.Errorf("cdc: nil mailbox")
	}
	if stages < 1 {
		return nil, fmt.Errorf("cdc: stages must be >= 1, got %d", stages)
	}
	return &Synchronizer{
		src:    src,
		stages: make([]uint32, stages),
	}, nil
}

// Tick advances the chain by one destination clock edge.
func (s *Synchronizer) Tick() {
	for i := len(s.stages) - 1; i > 0; i-- {
		s.stages[i] = s.stages[i-1]
	}
	s.stages[0] = s.src.Sample()
}

// Value returns the synchronized copy. It has no side effects.
func (s *Synchronizer) Value() uint32 {
	return s.stages[len(s.stages)-1]
}

// Flush zeroes every stage.
func (s *Synchronizer) Flush() {
	clear(s.stages)
}

// Delay returns the number of ticks a published value needs to reach Value.
func (s *Synchronizer) Delay() int {
	return len(s.stages)
}
