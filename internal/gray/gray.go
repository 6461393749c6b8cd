// Package gray implements reflected binary (Gray) code counters.
//
// Successive values of a Gray counter differ in exactly one bit. A value
// sampled from another goroutine or clock domain while the counter advances is
// therefore always either the old or the new value, never a mixture of the two.
package gray

import "fmt"

// MaxWidth is the widest counter supported.
const MaxWidth = 31

// Encode converts a binary value to its Gray code.
func Encode(bin uint32) uint32 {
	return bin ^ (bin >> 1)
}

// Decode converts a Gray code back to binary.
func Decode(g uint32) uint32 {
	g ^= g >> 16
	g ^= g >> 8
	g ^= g >> 4
	g ^= g >> 2
	g ^= g >> 1
	return g
}

// Counter advances Gray-coded values of a fixed bit width.
//
// A queue of capacity N uses width log2(N)+1: the low bits address the
// storage and the top bit flips every N increments (the wrap bit).
// Counter holds no state of its own; the caller owns the current value.
type Counter struct {
	width uint
	mask  uint32
}

// NewCounter returns a counter of the given bit width.
// Panics if width is zero or larger than MaxWidth.
func NewCounter(width uint) Counter {
	if width == 0 || width > MaxWidth {
		panic(fmt.Sprintf("gray: invalid counter width %d", width))
	}
	return Counter{width: width, mask: (1 << width) - 1}
}

// ForCapacity returns the counter used for a queue of capacity n.
// n must be a power of two >= 2.
func ForCapacity(n uint32) Counter {
	if n < 2 || n&(n-1) != 0 {
		panic(fmt.Sprintf("gray: capacity %d is not a power of two >= 2", n))
	}
	var bits uint
	for v := n; v > 1; v >>= 1 {
		bits++
	}
	return NewCounter(bits + 1)
}

// Width returns the counter width in bits.
func (c Counter) Width() uint { return c.width }

// Modulus returns the number of distinct values, 2^width.
func (c Counter) Modulus() uint32 { return c.mask + 1 }

// Next returns the successor of v. Exactly one bit differs between v and
// the result; the sequence wraps after Modulus() steps.
func (c Counter) Next(v uint32) uint32 {
	return Encode((Decode(v&c.mask) + 1) & c.mask)
}

// Address maps a Gray pointer to a storage index for a queue of capacity n,
// discarding the wrap bit.
func (c Counter) Address(v uint32, n uint32) uint32 {
	return Decode(v&c.mask) & (n - 1)
}

// Distance returns how far the pointer ahead is in front of behind, in
// increments, modulo 2^width. Both arguments are Gray coded.
func (c Counter) Distance(ahead, behind uint32) uint32 {
	return (Decode(ahead&c.mask) - Decode(behind&c.mask)) & c.mask
}

// Wrap reports the wrap bit of v.
func (c Counter) Wrap(v uint32) bool {
	return Decode(v&c.mask)>>(c.width-1) == 1
}
