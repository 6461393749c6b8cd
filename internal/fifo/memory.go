package fifo

// memory is the circular store. Addresses are reduced modulo the capacity by
// the caller; memory performs no checks of its own.
type memory[T any] struct {
	slots []T
}

func newMemory[T any](n uint32) *memory[T] {
	return &memory[T]{slots: make([]T, n)}
}

func (m *memory[T]) write(addr uint32, v T) {
	m.slots[addr] = v
}

func (m *memory[T]) read(addr uint32) T {
	return m.slots[addr]
}

// clear drops the reference held by a consumed slot.
func (m *memory[T]) clear(addr uint32) {
	var zero T
	m.slots[addr] = zero
}

func (m *memory[T]) size() int {
	return len(m.slots)
}
