// Package uart frames bytes for an asynchronous serial line.
//
// A frame is one start bit (low), eight data bits least significant first,
// and one stop bit (high). The line idles high.
package uart

import (
	"errors"
	"fmt"
)

// FrameBits is the number of bits in one frame.
const FrameBits = 10

// Line levels.
const (
	Low  uint8 = 0
	High uint8 = 1
)

var (
	// ErrStartBit indicates a frame whose start bit is not low.
	ErrStartBit = errors.New("uart: bad start bit")

	// ErrStopBit indicates a frame whose stop bit is not high.
	ErrStopBit = errors.New("uart: bad stop bit")

	// ErrBusy is returned when loading a transmitter that is still sending.
	ErrBusy = errors.New("uart: transmitter busy")
)

// Frame holds the line level of each bit of one frame, in transmission order.
type Frame [FrameBits]uint8

// Encode frames b.
func Encode(b byte) Frame {
	var f Frame
	f[0] = Low
	for i := 0; i < 8; i++ {
		f[1+i] = (b >> i) & 1
	}
	f[FrameBits-1] = High
	return f
}

// Decode extracts the data byte from f.
func Decode(f Frame) (byte, error) {
	if f[0] != Low {
		return 0, ErrStartBit
	}
	if f[FrameBits-1] != High {
		return 0, ErrStopBit
	}
	var b byte
	for i := 0; i < 8; i++ {
		b |= (f[1+i] & 1) << i
	}
	return b, nil
}

// Transmitter drives a line, holding each bit for a fixed number of ticks.
type Transmitter struct {
	clksPerBit int
	frame      Frame
	bit        int
	count      int
	active     bool
}

// NewTransmitter creates a transmitter holding each bit for clksPerBit ticks.
func NewTransmitter(clksPerBit int) (*Transmitter, error) {
	if clksPerBit < 1 {
		return nil, fmt.Errorf("uart: clks per bit must be >= 1, got %d", clksPerBit)
	}
	return &Transmitter{clksPerBit: clksPerBit}, nil
}

// Load starts sending b. Returns ErrBusy if a frame is in progress.
func (t *Transmitter) Load(b byte) error {
	if t.active {
		return ErrBusy
	}
	t.frame = Encode(b)
	t.bit, t.count = 0, 0
	t.active = true
	return nil
}

// Busy reports whether a frame is in progress.
func (t *Transmitter) Busy() bool { return t.active }

// Tick returns the line level for the current tick and advances.
func (t *Transmitter) Tick() uint8 {
	if !t.active {
		return High
	}
	level := t.frame[t.bit]
	t.count++
	if t.count == t.clksPerBit {
		t.count = 0
		t.bit++
		if t.bit == FrameBits {
			t.active = false
		}
	}
	return level
}

// Receiver samples a line once per tick and reassembles frames, sampling
// each bit in the middle of its period.
type Receiver struct {
	clksPerBit int
	frame      Frame
	t          int
	busy       bool
}

// NewReceiver creates a receiver for a line with clksPerBit ticks per bit.
func NewReceiver(clksPerBit int) (*Receiver, error) {
	if clksPerBit < 1 {
		return nil, fmt.Errorf("uart: clks per bit must be >= 1, got %d", clksPerBit)
	}
	return &Receiver{clksPerBit: clksPerBit}, nil
}

// Sample consumes one tick of line level. When a full frame has been
// received it returns the byte and ok=true, or the framing error.
func (r *Receiver) Sample(level uint8) (b byte, ok bool, err error) {
	if !r.busy {
		if level != Low {
			return 0, false, nil
		}
		r.busy = true
		r.t = 0
	}

	bit, offset := r.t/r.clksPerBit, r.t%r.clksPerBit
	r.t++
	if offset != r.clksPerBit/2 {
		return 0, false, nil
	}

	r.frame[bit] = level
	if bit < FrameBits-1 {
		return 0, false, nil
	}
	r.busy = false
	b, err = Decode(r.frame)
	if err != nil {
		return 0, false, err
	}
	return b, true, nil
}

// Loopback sends b through a transmitter wired to a receiver and returns
// what the receiver decoded.
func Loopback(b byte, clksPerBit int) (byte, error) {
	tx, err := NewTransmitter(clksPerBit)
	if err != nil {
		return 0, err
	}
	rx, err := NewReceiver(clksPerBit)
	if err != nil {
		return 0, err
	}
	if err := tx.Load(b); err != nil {
		return 0, err
	}
	for tx.Busy() {
		got, ok, err := rx.Sample(tx.Tick())
		if err != nil {
			return 0, err
		}
		if ok {
			return got, nil
		}
	}
	return 0, fmt.Errorf("uart: no frame received for %#02x", b)
}
