// Package domain models independent clock domains.
//
// A Domain is a named clock with a frequency. Two ways of driving domains
// are provided:
//
//   - Scheduler interleaves the rising edges of several domains in simulated
//     time. It is deterministic, so runs can be compared byte for byte.
//   - Driver ticks one domain from its own goroutine in real time. Two
//     Drivers share nothing, which is the situation a dual-clock queue has
//     to survive.
package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFrequency is returned for a frequency the requested use cannot honour.
var ErrInvalidFrequency = errors.New("invalid clock frequency")

// MaxFrequencyHz is the highest frequency representable with 1 ns resolution.
const MaxFrequencyHz = 1e9

// Domain describes one clock domain.
type Domain struct {
	Name        string  `yaml:"name,omitempty" json:"name,omitempty"`
	FrequencyHz float64 `yaml:"frequency_hz" json:"frequency_hz"`
}

// Validate checks that the domain can be simulated.
func (d Domain) Validate() error {
	if d.FrequencyHz <= 0 || d.FrequencyHz > MaxFrequencyHz || math.IsNaN(d.FrequencyHz) {
		return fmt.Errorf("%w: domain %q: %v Hz", ErrInvalidFrequency, d.Name, d.FrequencyHz)
	}
	return nil
}

// PeriodNs returns the clock period rounded to whole nanoseconds.
// Returns 0 for a non-positive frequency.
func (d Domain) PeriodNs() int64 {
	if d.FrequencyHz <= 0 {
		return 0
	}
	p := int64(math.Round(1e9 / d.FrequencyHz))
	if p < 1 {
		p = 1
	}
	return p
}

func (d Domain) String() string {
	return fmt.Sprintf("%s@%gHz", d.Name, d.FrequencyHz)
}
