package fifo

import "errors"

var (
	// ErrFull is returned by Enqueue when the write port reports Full.
	ErrFull = errors.New("fifo: full")

	// ErrEmpty is returned by Dequeue when the read port reports Empty.
	ErrEmpty = errors.New("fifo: empty")

	// ErrInvalidCapacity is returned by New for a capacity that is not a
	// power of two >= 2.
	ErrInvalidCapacity = errors.New("fifo: capacity must be a power of two >= 2")
)

// IsRejected reports whether err is a full or empty rejection.
// Uses errors.Is to handle wrapped errors.
func IsRejected(err error) bool {
	return errors.Is(err, ErrFull) || errors.Is(err, ErrEmpty)
}
