package fifo

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/roach88/asyncfifo/internal/cdc"
	"github.com/roach88/asyncfifo/internal/gray"
)

// Queue is a bounded queue crossing between a write domain and a read domain.
//
// Thread-safety model:
//   - Writer() methods: only from the write-domain goroutine
//   - Reader() methods: only from the read-domain goroutine
//   - Capacity(), SyncStages(): any goroutine
//
// INVARIANTS:
//   - The write pointer is stored only by the write port, the read pointer
//     only by the read port
//   - 0 <= live elements <= Capacity()-1
type Queue[T any] struct {
	n       uint32
	counter gray.Counter
	stages  int
	mem     *memory[T]
	logger  *slog.Logger

	// Cross-domain words. Everything else belongs to one port.
	wptrOut cdc.Mailbox // write pointer, sampled by the read domain
	_       cpu.CacheLinePad
	rptrOut cdc.Mailbox // read pointer, sampled by the write domain
	_       cpu.CacheLinePad
	epoch   atomic.Uint32
	wack    atomic.Uint32
	rack    atomic.Uint32
	_       cpu.CacheLinePad

	w WritePort[T]
	_ cpu.CacheLinePad
	r ReadPort[T]
	_ cpu.CacheLinePad
}

// Option configures a Queue.
type Option func(*config)

type config struct {
	stages int
	logger *slog.Logger
}

// WithSyncStages sets the synchronizer depth used in both directions.
//
// Default: cdc.DefaultStages (2). Deeper chains delay flag updates further
// but never affect correctness.
func WithSyncStages(n int) Option {
	return func(c *config) {
		c.stages = n
	}
}

// WithLogger sets the logger used for reset events. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// New creates a queue of the given capacity. One slot is never used, so the
// queue holds at most capacity-1 elements.
func New[T any](capacity int, opts ...Option) (*Queue[T], error) {
	if capacity < 2 || capacity&(capacity-1) != 0 || capacity > 1<<(gray.MaxWidth-1) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	cfg := config{stages: cdc.DefaultStages}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	n := uint32(capacity)
	q := &Queue[T]{
		n:       n,
		counter: gray.ForCapacity(n),
		stages:  cfg.stages,
		mem:     newMemory[T](n),
		logger:  cfg.logger,
	}

	rsync, err := cdc.NewSynchronizer(&q.rptrOut, cfg.stages)
	if err != nil {
		return nil, fmt.Errorf("fifo: read pointer synchronizer: %w", err)
	}
	wsync, err := cdc.NewSynchronizer(&q.wptrOut, cfg.stages)
	if err != nil {
		return nil, fmt.Errorf("fifo: write pointer synchronizer: %w", err)
	}

	q.w = WritePort[T]{q: q, side: side{
		name:      "write",
		peer:      rsync,
		out:       &q.wptrOut,
		epoch:     &q.epoch,
		ack:       &q.wack,
		peerAck:   &q.rack,
		peerReady: true,
		logger:    cfg.logger.With("domain", "write"),
	}}
	q.r = ReadPort[T]{q: q, side: side{
		name:      "read",
		peer:      wsync,
		out:       &q.rptrOut,
		epoch:     &q.epoch,
		ack:       &q.rack,
		peerAck:   &q.wack,
		peerReady: true,
		logger:    cfg.logger.With("domain", "read"),
	}}

	return q, nil
}

// MustNew is like New but panics on an invalid capacity.
func MustNew[T any](capacity int, opts ...Option) *Queue[T] {
	q, err := New[T](capacity, opts...)
	if err != nil {
		panic(err)
	}
	return q
}

// Writer returns the write port.
func (q *Queue[T]) Writer() *WritePort[T] { return &q.w }

// Reader returns the read port.
func (q *Queue[T]) Reader() *ReadPort[T] { return &q.r }

// Capacity returns N, the number of storage slots.
func (q *Queue[T]) Capacity() int { return int(q.n) }

// SyncStages returns the synchronizer depth.
func (q *Queue[T]) SyncStages() int { return q.stages }

// Stats counts operations seen by one port. It is owned by that port's
// goroutine; read it there or after both agents have stopped.
type Stats struct {
	Accepted uint64 `json:"accepted"`
	Rejected uint64 `json:"rejected"`
	Resets   uint64 `json:"resets"`
}

// side is the state owned by one clock domain.
type side struct {
	name string
	ptr  uint32

	peer *cdc.Synchronizer // peer's pointer, delayed into this domain
	out  *cdc.Mailbox      // this side's pointer, published to the peer

	epoch     *atomic.Uint32
	ack       *atomic.Uint32
	peerAck   *atomic.Uint32
	seen      uint32
	peerReady bool

	stats  Stats
	logger *slog.Logger
}

// observe applies any reset requested since the last call and tracks whether
// the peer has caught up with it.
func (s *side) observe() {
	e := s.epoch.Load()
	if e != s.seen {
		s.ptr = 0
		s.peer.Flush()
		s.out.Publish(0)
		s.seen = e
		s.ack.Store(e)
		s.peerReady = false
		s.stats.Resets++
		s.logger.Debug("reset applied", "epoch", e)
	}
	if !s.peerReady && s.peerAck.Load() == e {
		// Stages may hold pointers sampled before the peer cleared.
		s.peer.Flush()
		s.peerReady = true
		s.logger.Debug("peer acknowledged reset", "epoch", e)
	}
}

func (s *side) tick() {
	s.observe()
	s.peer.Tick()
}

func (s *side) reset() {
	s.epoch.Add(1)
	s.observe()
}

// WritePort is the write-domain half of a Queue.
type WritePort[T any] struct {
	q *Queue[T]
	side
}

// Full reports whether one more Enqueue would overrun the last read position
// known to the write domain. Repeated calls without an intervening Tick,
// Enqueue or Reset return the same value.
func (w *WritePort[T]) Full() bool {
	w.observe()
	return w.full()
}

func (w *WritePort[T]) full() bool {
	if !w.peerReady {
		return true
	}
	used := w.q.counter.Distance(w.ptr, w.peer.Value())
	if used > w.q.n-1 {
		panic(fmt.Sprintf("fifo: write domain sees %d live elements in capacity %d", used, w.q.n))
	}
	return used == w.q.n-1
}

// Enqueue stores v at the write pointer and advances it. Returns ErrFull,
// with no effect, when Full holds.
func (w *WritePort[T]) Enqueue(v T) error {
	w.observe()
	if w.full() {
		w.stats.Rejected++
		return ErrFull
	}
	w.q.mem.write(w.q.counter.Address(w.ptr, w.q.n), v)
	w.ptr = w.q.counter.Next(w.ptr)
	w.out.Publish(w.ptr)
	w.stats.Accepted++
	return nil
}

// Tick advances the write domain by one clock edge, moving the read pointer
// one stage further through its synchronizer.
func (w *WritePort[T]) Tick() { w.tick() }

// Reset clears the queue. The write side is cleared immediately; the read
// side follows on its next Tick or operation.
func (w *WritePort[T]) Reset() { w.reset() }

// Len returns an upper bound on the number of live elements.
func (w *WritePort[T]) Len() int {
	w.observe()
	if !w.peerReady {
		return 0
	}
	return int(w.q.counter.Distance(w.ptr, w.peer.Value()))
}

// Cap returns the maximum number of live elements, capacity-1.
func (w *WritePort[T]) Cap() int { return int(w.q.n - 1) }

// Pointer returns the Gray-coded write pointer.
func (w *WritePort[T]) Pointer() uint32 { return w.ptr }

// Stats returns the write port's counters.
func (w *WritePort[T]) Stats() Stats { return w.stats }

// ReadPort is the read-domain half of a Queue.
type ReadPort[T any] struct {
	q *Queue[T]
	side
}

// Empty reports whether the read pointer has caught up with the last write
// position known to the read domain. Repeated calls without an intervening
// Tick, Dequeue or Reset return the same value.
func (r *ReadPort[T]) Empty() bool {
	r.observe()
	return r.empty()
}

func (r *ReadPort[T]) empty() bool {
	return !r.peerReady || r.ptr == r.peer.Value()
}

// Dequeue returns the element at the read pointer and advances it. Returns
// ErrEmpty, with no effect, when Empty holds.
func (r *ReadPort[T]) Dequeue() (T, error) {
	r.observe()
	if r.empty() {
		r.stats.Rejected++
		var zero T
		return zero, ErrEmpty
	}
	addr := r.q.counter.Address(r.ptr, r.q.n)
	v := r.q.mem.read(addr)
	r.q.mem.clear(addr)
	r.ptr = r.q.counter.Next(r.ptr)
	r.out.Publish(r.ptr)
	r.stats.Accepted++
	return v, nil
}

// Tick advances the read domain by one clock edge, moving the write pointer
// one stage further through its synchronizer.
func (r *ReadPort[T]) Tick() { r.tick() }

// Reset clears the queue. The read side is cleared immediately; the write
// side follows on its next Tick or operation.
func (r *ReadPort[T]) Reset() { r.reset() }

// Len returns a lower bound on the number of live elements.
func (r *ReadPort[T]) Len() int {
	r.observe()
	if !r.peerReady {
		return 0
	}
	return int(r.q.counter.Distance(r.peer.Value(), r.ptr))
}

// Pointer returns the Gray-coded read pointer.
func (r *ReadPort[T]) Pointer() uint32 { return r.ptr }

// Stats returns the read port's counters.
func (r *ReadPort[T]) Stats() Stats { return r.stats }
