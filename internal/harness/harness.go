package harness

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/roach88/asyncfifo/internal/canon"
	"github.com/roach88/asyncfifo/internal/cdc"
	"github.com/roach88/asyncfifo/internal/domain"
	"github.com/roach88/asyncfifo/internal/fifo"
	"github.com/roach88/asyncfifo/internal/uart"
)

// writePort is the write-domain surface the harness drives.
type writePort interface {
	Full() bool
	Enqueue(v byte) error
	Tick()
	Reset()
}

// readPort is the read-domain surface the harness drives.
type readPort interface {
	Empty() bool
	Dequeue() (byte, error)
	Tick()
	Reset()
}

// portFactory builds the ports under test.
type portFactory func(capacity, stages int, logger *slog.Logger) (writePort, readPort, error)

func newQueuePorts(capacity, stages int, logger *slog.Logger) (writePort, readPort, error) {
	q, err := fifo.New[byte](capacity, fifo.WithSyncStages(stages), fifo.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return q.Writer(), q.Reader(), nil
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	logger   *slog.Logger
	seed     *int64
	newPorts portFactory
}

// WithLogger sets the logger for run progress. Defaults to discarding.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithSeed overrides the scenario's seed.
func WithSeed(seed int64) RunOption {
	return func(c *runConfig) {
		c.seed = &seed
	}
}

// side indexes into the scheduler's domains.
const (
	writeSide = 0
	readSide  = 1
)

// outcome of a single attempted operation.
type outcome int

const (
	accepted outcome = iota
	rejected
	failed
)

// runner executes one scenario.
type runner struct {
	scenario *Scenario
	stages   int
	sched    *domain.Scheduler
	w        writePort
	r        readPort
	model    *Model
	rng      *rand.Rand
	seq      *domain.Clock
	result   *Result
	logger   *slog.Logger
	err      *RunError
}

// Run executes a scenario and returns the result.
//
// The returned error reports scenarios that cannot be run at all (bad
// configuration). Transaction errors and failed assertions are reported in
// Result.Errors with Pass=false.
//
// Execution flow:
// 1. Build the queue and schedule both domains
// 2. Hold both domains in reset for reset_cycles edges
// 3. Execute steps until done or the first transaction error
// 4. Evaluate assertions
// 5. Digest the trace
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{newPorts: newQueuePorts}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger := cfg.logger.With("scenario", scenario.Name)

	stages := scenario.SyncStages
	if stages == 0 {
		stages = cdc.DefaultStages
	}
	seed := scenario.Seed
	if cfg.seed != nil {
		seed = *cfg.seed
	}

	w, r, err := cfg.newPorts(scenario.Capacity, stages, logger)
	if err != nil {
		return nil, fmt.Errorf("build queue: %w", err)
	}

	writeDomain, readDomain := scenario.Domains.Write, scenario.Domains.Read
	writeDomain.Name, readDomain.Name = DomainWrite, DomainRead
	sched, err := domain.NewScheduler(writeDomain, readDomain)
	if err != nil {
		return nil, fmt.Errorf("schedule domains: %w", err)
	}

	h := &runner{
		scenario: scenario,
		stages:   stages,
		sched:    sched,
		w:        w,
		r:        r,
		model:    NewModel(scenario.Capacity),
		rng:      rand.New(rand.NewSource(seed)),
		seq:      domain.NewClock(),
		result:   NewResult(),
		logger:   logger,
	}

	logger.Debug("run starting",
		"capacity", scenario.Capacity,
		"sync_stages", stages,
		"write", writeDomain.String(),
		"read", readDomain.String(),
		"seed", seed,
	)

	h.holdReset(scenario.ResetCycles)

	for i, step := range scenario.Steps {
		if !h.execute(step) {
			logger.Debug("run stopped", "step", i, "error", h.err.Error())
			break
		}
	}

	if h.err != nil {
		h.result.AddError(h.err.Error())
	} else {
		h.checkAssertions()
	}

	h.result.Stats.WriteEdges = uint64(sched.Cycles(writeSide))
	h.result.Stats.ReadEdges = uint64(sched.Cycles(readSide))

	digest, err := TraceDigest(scenario.Name, h.result.Trace)
	if err != nil {
		return nil, err
	}
	h.result.Digest = digest

	logger.Debug("run finished", "pass", h.result.Pass, "events", len(h.result.Trace), "digest", digest)
	return h.result, nil
}

// TraceDigest returns the canonical digest of a scenario's trace.
func TraceDigest(name string, trace []TraceEvent) (string, error) {
	digest, err := canon.DigestValue(canon.DomainTrace, TraceSnapshot{ScenarioName: name, Trace: trace})
	if err != nil {
		return "", fmt.Errorf("canonicalise trace: %w", err)
	}
	return digest, nil
}

// ScenarioDigest identifies a scenario by its parsed content, so formatting
// and comment changes in the YAML do not change it.
func ScenarioDigest(s *Scenario) (string, error) {
	digest, err := canon.DigestValue(canon.DomainScenario, s)
	if err != nil {
		return "", fmt.Errorf("canonicalise scenario: %w", err)
	}
	return digest, nil
}

// advance steps the scheduler to the next edge of side, ticking every port
// whose edge passes on the way, and returns that edge.
func (h *runner) advance(side int) domain.Edge {
	return h.sched.StepUntil(side, func(e domain.Edge) {
		if e.Domain == writeSide {
			h.w.Tick()
		} else {
			h.r.Tick()
		}
	})
}

// holdReset resets the queue and keeps both domains idle for n edges each.
func (h *runner) holdReset(n int) {
	if n <= 0 {
		return
	}
	h.w.Reset()
	h.r.Reset()
	h.model.Clear()
	for h.sched.Cycles(writeSide) < int64(n) || h.sched.Cycles(readSide) < int64(n) {
		h.advance(writeSide)
	}
}

// settled reports whether the flags of side must have caught up with every
// operation made before the wait started at (own, peer) edge counts.
func (h *runner) settled(side int, own, peer int64) bool {
	other := readSide
	if side == readSide {
		other = writeSide
	}
	return h.sched.Cycles(side)-own >= int64(h.stages+2) && h.sched.Cycles(other)-peer >= 2
}

func (h *runner) record(e domain.Edge, kind string, value int64) {
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Seq:    h.seq.Next(),
		TimeNs: e.TimeNs,
		Domain: e.Name,
		Kind:   kind,
		Value:  value,
	})
}

func (h *runner) fail(e domain.Edge, code RunErrorCode, format string, args ...any) outcome {
	h.err = &RunError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Domain:  e.Name,
		TimeNs:  e.TimeNs,
	}
	return failed
}

// write attempts to enqueue v, one attempt per write edge.
func (h *runner) write(v byte) outcome {
	own, peer := h.sched.Cycles(writeSide), h.sched.Cycles(readSide)
	for {
		e := h.advance(writeSide)
		if h.w.Full() {
			if h.model.Full() {
				h.result.Stats.WriteRejected++
				h.result.Stats.FullReached = true
				h.record(e, KindWriteFull, int64(v))
				return rejected
			}
			if h.settled(writeSide, own, peer) {
				return h.fail(e, ErrCodeStaleFlag, "full with %d of %d slots used", h.model.Count(), h.scenario.Capacity-1)
			}
			continue
		}

		if err := h.w.Enqueue(v); err != nil {
			return h.fail(e, ErrCodeStaleFlag, "enqueue rejected after full was clear: %v", err)
		}
		if h.model.Full() {
			return h.fail(e, ErrCodeFalseNegative, "enqueue of %d accepted with %d elements held", v, h.model.Count())
		}
		h.model.Put(v)
		h.result.Stats.WriteAccepted++
		h.record(e, KindEnqueue, int64(v))
		return accepted
	}
}

// read attempts one dequeue, one attempt per read edge.
func (h *runner) read() outcome {
	own, peer := h.sched.Cycles(readSide), h.sched.Cycles(writeSide)
	for {
		e := h.advance(readSide)
		if h.r.Empty() {
			if h.model.Empty() {
				h.result.Stats.ReadRejected++
				h.record(e, KindReadEmpty, 0)
				return rejected
			}
			if h.settled(readSide, own, peer) {
				return h.fail(e, ErrCodeStaleFlag, "empty with %d elements held", h.model.Count())
			}
			continue
		}

		got, err := h.r.Dequeue()
		if err != nil {
			return h.fail(e, ErrCodeStaleFlag, "dequeue rejected after empty was clear: %v", err)
		}
		if h.model.Empty() {
			return h.fail(e, ErrCodeUnderflow, "dequeue returned %d from an empty queue", got)
		}
		if want := h.model.Get(); got != want {
			return h.fail(e, ErrCodeOrderMismatch, "dequeued %d, expected %d", got, want)
		}
		if h.scenario.UART != nil {
			line, err := uart.Loopback(got, h.scenario.UART.ClksPerBit)
			if err != nil {
				return h.fail(e, ErrCodeFraming, "byte %d lost on serial line: %v", got, err)
			}
			if line != got {
				return h.fail(e, ErrCodeFraming, "byte %d received as %d over serial line", got, line)
			}
		}
		h.result.Stats.ReadAccepted++
		h.record(e, KindDequeue, int64(got))
		return accepted
	}
}

// reset issues a reset from the named domain on its next edge.
func (h *runner) reset(from string) {
	sides := []int{writeSide}
	switch from {
	case DomainRead:
		sides = []int{readSide}
	case "both":
		sides = []int{writeSide, readSide}
	}
	for _, side := range sides {
		e := h.advance(side)
		if side == writeSide {
			h.w.Reset()
		} else {
			h.r.Reset()
		}
		h.model.Clear()
		h.result.Stats.Resets++
		h.record(e, KindReset, 0)
	}
}

// execute runs one step. Returns false once a transaction error occurred.
func (h *runner) execute(step Step) bool {
	switch step.Kind() {
	case StepWrite:
		for _, v := range step.Write {
			if h.write(byte(v)) == failed {
				return false
			}
		}
	case StepRead:
		for i := 0; i < *step.Read; i++ {
			if h.read() == failed {
				return false
			}
		}
	case StepRandom:
		n := h.scenario.Capacity
		for round := 0; round < step.Random.Rounds; round++ {
			writes := h.rng.Intn(n)
			for i := 0; i < writes; i++ {
				o := h.write(byte(h.rng.Intn(256)))
				if o == failed {
					return false
				}
				if o == rejected {
					break
				}
			}
			reads := h.rng.Intn(n)
			for i := 0; i < reads; i++ {
				o := h.read()
				if o == failed {
					return false
				}
				if o == rejected {
					break
				}
			}
		}
	case StepReset:
		h.reset(step.Reset)
	case StepIdle:
		start := [2]int64{h.sched.Cycles(writeSide), h.sched.Cycles(readSide)}
		n := int64(*step.Idle)
		for h.sched.Cycles(writeSide)-start[0] < n || h.sched.Cycles(readSide)-start[1] < n {
			h.advance(writeSide)
		}
	case StepDrain:
		for !h.model.Empty() {
			if h.read() == failed {
				return false
			}
		}
	}
	return h.err == nil
}
