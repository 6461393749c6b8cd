package harness

import "fmt"

// VerifyTrace replays a recorded trace against a fresh model of a queue with
// the given capacity. It checks that no operation was accepted past a full
// or empty queue, that every rejection happened with the queue really full
// or empty, and that values were dequeued in the order they were enqueued.
//
// The first violation is returned as a *RunError.
func VerifyTrace(capacity int, trace []TraceEvent) error {
	if capacity < 2 {
		return fmt.Errorf("verify trace: invalid capacity %d", capacity)
	}
	model := NewModel(capacity)
	var last int64

	for i, ev := range trace {
		fail := func(code RunErrorCode, format string, args ...any) error {
			return &RunError{
				Code:    code,
				Message: fmt.Sprintf("event %d: ", ev.Seq) + fmt.Sprintf(format, args...),
				Domain:  ev.Domain,
				TimeNs:  ev.TimeNs,
			}
		}

		if i > 0 && ev.Seq <= last {
			return fail(ErrCodeOrderMismatch, "seq %d follows %d", ev.Seq, last)
		}
		last = ev.Seq

		switch ev.Kind {
		case KindEnqueue:
			if model.Full() {
				return fail(ErrCodeFalseNegative, "enqueue accepted with %d elements held", model.Count())
			}
			model.Put(byte(ev.Value))
		case KindWriteFull:
			if !model.Full() {
				return fail(ErrCodeStaleFlag, "write rejected with %d elements held", model.Count())
			}
		case KindDequeue:
			if model.Empty() {
				return fail(ErrCodeUnderflow, "dequeue accepted from an empty queue")
			}
			if want := model.Get(); byte(ev.Value) != want {
				return fail(ErrCodeOrderMismatch, "dequeued %d, expected %d", ev.Value, want)
			}
		case KindReadEmpty:
			if !model.Empty() {
				return fail(ErrCodeStaleFlag, "read rejected with %d elements held", model.Count())
			}
		case KindReset:
			model.Clear()
		default:
			return fmt.Errorf("verify trace: event %d: unknown kind %q", ev.Seq, ev.Kind)
		}
	}
	return nil
}
