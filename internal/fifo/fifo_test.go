package fifo

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// settle ticks a port enough times for the peer pointer to propagate.
func settle(tick func(), stages int) {
	for i := 0; i < stages; i++ {
		tick()
	}
}

func TestNew_CapacityValidation(t *testing.T) {
	for _, c := range []int{-4, 0, 1, 3, 6, 12, 100} {
		_, err := New[byte](c)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity %d", c)
	}
	for _, c := range []int{2, 4, 8, 256, 4096} {
		q, err := New[byte](c)
		require.NoError(t, err, "capacity %d", c)
		assert.Equal(t, c, q.Capacity())
		assert.Equal(t, c-1, q.Writer().Cap())
	}
}

func TestNew_InvalidSyncStages(t *testing.T) {
	_, err := New[byte](8, WithSyncStages(0))
	assert.Error(t, err)

	q, err := New[byte](8, WithSyncStages(3))
	require.NoError(t, err)
	assert.Equal(t, 3, q.SyncStages())
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew[byte](5) })
}

func TestQueue_InitiallyEmptyAndNotFull(t *testing.T) {
	q := MustNew[byte](8)
	assert.False(t, q.Writer().Full())
	assert.True(t, q.Reader().Empty())
	assert.Equal(t, 0, q.Writer().Len())
	assert.Equal(t, 0, q.Reader().Len())

	_, err := q.Reader().Dequeue()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestQueue_FullAfterCapacityMinusOne(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 64} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			q := MustNew[byte](n)
			w := q.Writer()

			for i := 0; i < n-1; i++ {
				require.False(t, w.Full(), "full after only %d writes", i)
				require.NoError(t, w.Enqueue(byte(i)))
				w.Tick()
			}

			assert.True(t, w.Full())
			assert.ErrorIs(t, w.Enqueue(0xFF), ErrFull)
			assert.Equal(t, uint64(n-1), w.Stats().Accepted)
			assert.Equal(t, uint64(1), w.Stats().Rejected)
		})
	}
}

func TestQueue_DrainInOrderThenEmpty(t *testing.T) {
	const n = 8
	q := MustNew[byte](n)
	w, r := q.Writer(), q.Reader()

	for i := 0; i < n-1; i++ {
		require.NoError(t, w.Enqueue(byte(10+i)))
	}

	// The read domain has not sampled the write pointer yet.
	assert.True(t, r.Empty())
	settle(r.Tick, q.SyncStages()-1)
	assert.True(t, r.Empty())
	r.Tick()
	require.False(t, r.Empty())
	assert.Equal(t, n-1, r.Len())

	for i := 0; i < n-1; i++ {
		v, err := r.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, byte(10+i), v)
	}

	assert.True(t, r.Empty())
	_, err := r.Dequeue()
	assert.ErrorIs(t, err, ErrEmpty)
	assert.True(t, IsRejected(err))
}

func TestQueue_FlagsAreIdempotent(t *testing.T) {
	q := MustNew[byte](4)
	w, r := q.Writer(), q.Reader()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Enqueue(byte(i)))
	}
	assert.Equal(t, w.Full(), w.Full())
	assert.True(t, w.Full())

	settle(r.Tick, q.SyncStages())
	first := r.Empty()
	assert.Equal(t, first, r.Empty())
	assert.Equal(t, first, r.Empty())
}

// After the reader frees space, the writer keeps reporting Full until the
// new read pointer has crossed its synchronizer.
func TestQueue_FullIsConservativeUntilSynchronized(t *testing.T) {
	const n = 4
	q := MustNew[byte](n)
	w, r := q.Writer(), q.Reader()

	for i := 0; i < n-1; i++ {
		require.NoError(t, w.Enqueue(byte(i)))
	}
	settle(r.Tick, q.SyncStages())
	_, err := r.Dequeue()
	require.NoError(t, err)

	for i := 0; i < q.SyncStages(); i++ {
		assert.True(t, w.Full(), "full must hold until the read pointer arrives (tick %d)", i)
		w.Tick()
	}
	assert.False(t, w.Full())
	assert.NoError(t, w.Enqueue(0xAA))
}

func TestQueue_WrapAroundManyLaps(t *testing.T) {
	const n = 4
	q := MustNew[int](n)
	w, r := q.Writer(), q.Reader()

	next, want := 0, 0
	for lap := 0; lap < 50; lap++ {
		for !w.Full() {
			require.NoError(t, w.Enqueue(next))
			next++
		}
		settle(r.Tick, q.SyncStages())
		for !r.Empty() {
			v, err := r.Dequeue()
			require.NoError(t, err)
			require.Equal(t, want, v)
			want++
		}
		settle(w.Tick, q.SyncStages())
	}
	assert.Equal(t, next, want)
	assert.Equal(t, 50*(n-1), want)
}

func TestQueue_DequeueClearsSlot(t *testing.T) {
	q := MustNew[*int](2)
	w, r := q.Writer(), q.Reader()

	v := 42
	require.NoError(t, w.Enqueue(&v))
	settle(r.Tick, q.SyncStages())
	got, err := r.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 42, *got)
	assert.Nil(t, q.mem.read(0))
}

// Every flag-respecting single-goroutine interleaving of operations and
// clock edges must deliver an in-order prefix and never report a false
// negative.
func TestQueue_RandomInterleavingsMatchModel(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16, 32} {
		for _, stages := range []int{1, 2, 3} {
			t.Run(fmt.Sprintf("N=%d/stages=%d", n, stages), func(t *testing.T) {
				rng := rand.New(rand.NewSource(int64(n*10 + stages)))
				q := MustNew[byte](n, WithSyncStages(stages))
				w, r := q.Writer(), q.Reader()

				var model []byte
				var written, read int
				for step := 0; step < 5000; step++ {
					switch rng.Intn(4) {
					case 0:
						b := byte(rng.Intn(256))
						err := w.Enqueue(b)
						if len(model) == n-1 {
							require.ErrorIs(t, err, ErrFull, "false negative: accepted while holding %d", len(model))
						}
						if err == nil {
							model = append(model, b)
							written++
						}
					case 1:
						v, err := r.Dequeue()
						if len(model) == 0 {
							require.ErrorIs(t, err, ErrEmpty, "false negative: dequeued from empty queue")
						}
						if err == nil {
							require.Equal(t, model[0], v, "order mismatch at read %d", read)
							model = model[1:]
							read++
						}
					case 2:
						w.Tick()
					case 3:
						r.Tick()
					}

					require.LessOrEqual(t, len(model), n-1)
					if len(model) == n-1 {
						require.True(t, w.Full())
					}
					if len(model) == 0 {
						require.True(t, r.Empty())
					}
					require.GreaterOrEqual(t, w.Len(), len(model), "writer must over-estimate occupancy")
					require.LessOrEqual(t, r.Len(), len(model), "reader must under-estimate occupancy")
				}
				assert.Equal(t, written-read, len(model))
			})
		}
	}
}

func TestIsRejected(t *testing.T) {
	assert.True(t, IsRejected(ErrFull))
	assert.True(t, IsRejected(fmt.Errorf("write: %w", ErrEmpty)))
	assert.False(t, IsRejected(errors.New("other")))
	assert.False(t, IsRejected(nil))
}
