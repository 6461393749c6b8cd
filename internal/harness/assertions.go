package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkAssertions evaluates every scenario assertion and records failures.
func (h *runner) checkAssertions() {
	for _, a := range h.scenario.Assertions {
		if err := h.evaluate(a); err != nil {
			h.result.AddError(err.Error())
		}
	}
}

func (h *runner) evaluate(a Assertion) error {
	switch a.Type {
	case AssertFinalEmpty:
		return h.assertFinalEmpty()
	case AssertAcceptedCount:
		return assertAcceptedCount(h.result.Stats, a)
	case AssertRejectedCount:
		return assertRejectedCount(h.result.Stats, a)
	case AssertFullReached:
		if !h.result.Stats.FullReached {
			return &AssertionError{
				Type:     AssertFullReached,
				Expected: "at least one write rejected with the queue full",
				Actual:   fmt.Sprintf("%d writes rejected, none with the queue full", h.result.Stats.WriteRejected),
			}
		}
		return nil
	case AssertExclusiveMonitor:
		if err := VerifyTrace(h.scenario.Capacity, h.result.Trace); err != nil {
			return &AssertionError{
				Type:     AssertExclusiveMonitor,
				Expected: "trace consistent with a bounded FIFO",
				Actual:   err.Error(),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertFinalEmpty checks the model is empty and that the read port agrees
// on its next edge.
func (h *runner) assertFinalEmpty() error {
	if !h.model.Empty() {
		return &AssertionError{
			Type:     AssertFinalEmpty,
			Expected: "empty queue",
			Actual:   fmt.Sprintf("%d elements held", h.model.Count()),
		}
	}
	h.advance(readSide)
	if !h.r.Empty() {
		return &AssertionError{
			Type:     AssertFinalEmpty,
			Expected: "read port reports empty",
			Actual:   "empty flag clear",
		}
	}
	return nil
}

func sideCounts(s Stats, side string) (acceptedN, rejectedN uint64) {
	if side == DomainWrite {
		return s.WriteAccepted, s.WriteRejected
	}
	return s.ReadAccepted, s.ReadRejected
}

func assertAcceptedCount(s Stats, a Assertion) error {
	got, _ := sideCounts(s, a.Side)
	if a.Count == nil || got != uint64(*a.Count) {
		want := "unset"
		if a.Count != nil {
			want = fmt.Sprintf("%d", *a.Count)
		}
		return &AssertionError{
			Type:     AssertAcceptedCount,
			Expected: fmt.Sprintf("%s accepted %s operations", a.Side, want),
			Actual:   fmt.Sprintf("%d accepted", got),
		}
	}
	return nil
}

func assertRejectedCount(s Stats, a Assertion) error {
	_, got := sideCounts(s, a.Side)
	if got < uint64(a.Min) {
		return &AssertionError{
			Type:     AssertRejectedCount,
			Expected: fmt.Sprintf("%s rejected at least %d operations", a.Side, a.Min),
			Actual:   fmt.Sprintf("%d rejected", got),
		}
	}
	return nil
}
