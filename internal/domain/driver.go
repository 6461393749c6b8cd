package domain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// StepFunc runs one clock edge of a domain. Returning false stops the driver.
type StepFunc func(cycle int64) bool

// Driver ticks a single domain in real time from its own goroutine.
//
// A zero FrequencyHz means free running: the step function is called as fast
// as the scheduler allows, yielding between edges.
type Driver struct {
	domain Domain
	step   StepFunc
	clock  *Clock
	logger *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithDriverLogger sets the driver's logger. Defaults to discarding.
func WithDriverLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = l
	}
}

// NewDriver creates a driver for d calling step on every edge.
func NewDriver(d Domain, step StepFunc, opts ...DriverOption) (*Driver, error) {
	if step == nil {
		return nil, fmt.Errorf("driver %q: nil step function", d.Name)
	}
	if d.FrequencyHz != 0 {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("driver: %w", err)
		}
	}
	drv := &Driver{
		domain: d,
		step:   step,
		clock:  NewClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(drv)
	}
	drv.logger = drv.logger.With("domain", d.Name)
	return drv, nil
}

// Run drives edges until the step function returns false or ctx is done.
// Returns ctx.Err() when stopped by the context, nil otherwise.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Debug("clock starting", "frequency_hz", d.domain.FrequencyHz)
	defer func() {
		d.logger.Debug("clock stopped", "cycles", d.clock.Current())
	}()

	if d.domain.FrequencyHz == 0 {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if !d.step(d.clock.Next()) {
				return nil
			}
			runtime.Gosched()
		}
	}

	ticker := time.NewTicker(time.Duration(d.domain.PeriodNs()))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !d.step(d.clock.Next()) {
				return nil
			}
		}
	}
}

// Cycles returns the number of edges driven so far. Safe from any goroutine.
func (d *Driver) Cycles() int64 {
	return d.clock.Current()
}

// Domain returns the driven domain.
func (d *Driver) Domain() Domain { return d.domain }
