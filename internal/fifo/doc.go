// Package fifo implements a bounded queue shared by two clock domains.
//
// The queue has a write port and a read port. Each port belongs to exactly
// one goroutine (its clock domain) and the two never take a lock or wait on
// each other:
//
//	q, _ := fifo.New[byte](16)
//	w, r := q.Writer(), q.Reader()
//
//	// write domain
//	if !w.Full() {
//	    _ = w.Enqueue(b)
//	}
//	w.Tick()
//
//	// read domain
//	if v, err := r.Dequeue(); err == nil {
//	    consume(v)
//	}
//	r.Tick()
//
// # Pointers
//
// Each side owns one Gray-coded pointer one bit wider than the storage
// address; the extra bit records how many times the pointer has wrapped.
// After every successful operation the owner publishes its pointer into a
// mailbox. The opposite domain samples that mailbox through a synchronizer on
// each of its own Tick calls, so it sees the peer's pointer a fixed number of
// its own clock edges late.
//
// # Flags
//
// Full is computed from the write pointer and the synchronized read pointer.
// Empty is computed from the read pointer and the synchronized write pointer.
// A stale peer pointer can only be behind the real one, so a flag may stay
// set a little longer than necessary but is never clear while the condition
// holds. One storage slot is never used; a queue of capacity N holds at most
// N-1 elements.
//
// # Reset
//
// Either port may Reset at any time. The caller's side is cleared at once and
// a shared reset epoch is advanced. The peer clears its own side the next time
// it ticks or operates and then acknowledges the epoch. Until a side sees the
// acknowledgement it reports Full (write port) or Empty (read port), so the
// two sides never touch the same slot while a reset is in flight.
package fifo
