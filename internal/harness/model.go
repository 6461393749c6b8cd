package harness

import "github.com/eapache/queue"

// Model is the reference queue the monitors compare against. It sees every
// accepted operation the instant it happens, so it holds the true occupancy.
type Model struct {
	capacity int
	q        *queue.Queue
}

// NewModel creates a model of a queue with the given number of slots.
func NewModel(capacity int) *Model {
	return &Model{capacity: capacity, q: queue.New()}
}

// Put appends v.
func (m *Model) Put(v byte) { m.q.Add(v) }

// Get removes and returns the oldest element. Panics if empty.
func (m *Model) Get() byte { return m.q.Remove().(byte) }

// Count returns the number of held elements.
func (m *Model) Count() int { return m.q.Length() }

// Full reports whether capacity-1 elements are held.
func (m *Model) Full() bool { return m.q.Length() >= m.capacity-1 }

// Empty reports whether no element is held.
func (m *Model) Empty() bool { return m.q.Length() == 0 }

// Clear drops every element.
func (m *Model) Clear() { m.q = queue.New() }
