package harness

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncfifo/internal/domain"
	"github.com/roach88/asyncfifo/internal/fifo"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_TestdataScenariosPass(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Len(t, result.Digest, 64)
			assert.NoError(t, VerifyTrace(s.Capacity, result.Trace))
		})
	}
}

func TestRun_ScriptedOpsStats(t *testing.T) {
	result, err := Run(loadTestScenario(t, "scripted_ops"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, uint64(9), result.Stats.WriteAccepted)
	assert.Equal(t, uint64(3), result.Stats.WriteRejected)
	assert.Equal(t, uint64(9), result.Stats.ReadAccepted)
	assert.Equal(t, uint64(3), result.Stats.ReadRejected)
	assert.True(t, result.Stats.FullReached)
	assert.Greater(t, result.Stats.WriteEdges, result.Stats.ReadEdges)

	var dequeued []int64
	for _, ev := range result.Trace {
		if ev.Kind == KindDequeue {
			dequeued = append(dequeued, ev.Value)
		}
	}
	assert.Equal(t, []int64{0, 1, 2, 3, 0, 1, 2, 3, 4}, dequeued)

	for i := 1; i < len(result.Trace); i++ {
		assert.Equal(t, result.Trace[i-1].Seq+1, result.Trace[i].Seq)
		assert.LessOrEqual(t, result.Trace[i-1].TimeNs, result.Trace[i].TimeNs)
	}
}

func TestRun_Deterministic(t *testing.T) {
	s := loadTestScenario(t, "random_rounds")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Digest, second.Digest)
}

func TestRun_WithSeedChangesTrace(t *testing.T) {
	s := loadTestScenario(t, "random_rounds")

	base, err := Run(s)
	require.NoError(t, err)
	reseeded, err := Run(s, WithSeed(s.Seed+1))
	require.NoError(t, err)

	require.True(t, reseeded.Pass, "errors: %v", reseeded.Errors)
	assert.NotEqual(t, base.Digest, reseeded.Digest)
}

func TestRun_Resets(t *testing.T) {
	result, err := Run(loadTestScenario(t, "resets"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, uint64(2), result.Stats.Resets)

	var kinds []string
	for _, ev := range result.Trace {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []string{
		KindEnqueue, KindEnqueue, KindEnqueue,
		KindReset,
		KindReadEmpty,
		KindEnqueue, KindEnqueue,
		KindDequeue, KindDequeue,
		KindReset,
		KindEnqueue,
		KindDequeue,
	}, kinds)
}

func TestRun_FailedAssertion(t *testing.T) {
	s := loadTestScenario(t, "scripted_ops")
	count := 10
	s.Assertions = []Assertion{{Type: AssertAcceptedCount, Side: DomainWrite, Count: &count}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "accepted_count")
	assert.Contains(t, result.Errors[0], "9 accepted")
}

func TestRun_FullNotReached(t *testing.T) {
	s := loadTestScenario(t, "uart_loopback")
	s.Assertions = []Assertion{{Type: AssertFullReached}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "full_reached")
}

func TestRun_FinalEmptyFails(t *testing.T) {
	s := loadTestScenario(t, "scripted_ops")
	s.Steps = s.Steps[:1]
	s.Assertions = []Assertion{{Type: AssertFinalEmpty}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "4 elements held")
}

func TestRun_InvalidCapacity(t *testing.T) {
	s := loadTestScenario(t, "scripted_ops")
	s.Capacity = 6

	_, err := Run(s)
	assert.ErrorIs(t, err, fifo.ErrInvalidCapacity)
}

func TestRun_LogsProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(loadTestScenario(t, "resets"), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "run starting")
	assert.Contains(t, out, "scenario=resets")
	assert.Contains(t, out, "reset applied")
	assert.Contains(t, out, "run finished")
}

// Fault injection: the monitors must catch ports that misreport flags or data.

func withPorts(f portFactory) RunOption {
	return func(c *runConfig) {
		c.newPorts = f
	}
}

// faultyWriter overrides parts of a real write port.
type faultyWriter struct {
	*fifo.WritePort[byte]
	alwaysFull bool
	neverFull  bool
}

func (w *faultyWriter) Full() bool {
	switch {
	case w.alwaysFull:
		return true
	case w.neverFull:
		return false
	}
	return w.WritePort.Full()
}

func (w *faultyWriter) Enqueue(v byte) error {
	if w.neverFull {
		if w.WritePort.Full() {
			return nil // silently drop
		}
	}
	return w.WritePort.Enqueue(v)
}

// faultyReader overrides parts of a real read port.
type faultyReader struct {
	*fifo.ReadPort[byte]
	neverEmpty bool
	corrupt    bool
}

func (r *faultyReader) Empty() bool {
	if r.neverEmpty {
		return false
	}
	return r.ReadPort.Empty()
}

func (r *faultyReader) Dequeue() (byte, error) {
	if r.neverEmpty && r.ReadPort.Empty() {
		return 0, nil
	}
	v, err := r.ReadPort.Dequeue()
	if r.corrupt {
		v++
	}
	return v, err
}

func faultyPorts(w faultyWriter, r faultyReader) portFactory {
	return func(capacity, stages int, logger *slog.Logger) (writePort, readPort, error) {
		q, err := fifo.New[byte](capacity, fifo.WithSyncStages(stages), fifo.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		w.WritePort = q.Writer()
		r.ReadPort = q.Reader()
		return &w, &r, nil
	}
}

func faultScenario(steps ...Step) *Scenario {
	return &Scenario{
		Name:        "fault",
		Description: "fault injection",
		Capacity:    4,
		SyncStages:  2,
		Domains: Domains{
			Write: domainHz(2e6),
			Read:  domainHz(1e6),
		},
		Steps: steps,
	}
}

func TestRun_DetectsStaleFullFlag(t *testing.T) {
	s := faultScenario(Step{Write: []int{1}})

	result, err := Run(s, withPorts(faultyPorts(faultyWriter{alwaysFull: true}, faultyReader{})))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], string(ErrCodeStaleFlag))
}

func TestRun_DetectsFalseNegativeFull(t *testing.T) {
	s := faultScenario(Step{Write: []int{1, 2, 3, 4}})

	result, err := Run(s, withPorts(faultyPorts(faultyWriter{neverFull: true}, faultyReader{})))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], string(ErrCodeFalseNegative))
	assert.Equal(t, uint64(3), result.Stats.WriteAccepted)
}

func TestRun_DetectsUnderflow(t *testing.T) {
	one := 1
	s := faultScenario(Step{Read: &one})

	result, err := Run(s, withPorts(faultyPorts(faultyWriter{}, faultyReader{neverEmpty: true})))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], string(ErrCodeUnderflow))
}

func TestRun_DetectsOrderMismatch(t *testing.T) {
	s := faultScenario(Step{Write: []int{7}}, Step{Drain: true})

	result, err := Run(s, withPorts(faultyPorts(faultyWriter{}, faultyReader{corrupt: true})))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], string(ErrCodeOrderMismatch))
	assert.Contains(t, result.Errors[0], "dequeued 8, expected 7")
}

func TestRun_StopsAtFirstError(t *testing.T) {
	s := faultScenario(Step{Write: []int{1}}, Step{Write: []int{2}})
	s.Assertions = []Assertion{{Type: AssertFullReached}}

	result, err := Run(s, withPorts(faultyPorts(faultyWriter{alwaysFull: true}, faultyReader{})))
	require.NoError(t, err)
	// Assertions are skipped once a transaction error occurred.
	assert.Len(t, result.Errors, 1)
	assert.Empty(t, result.Trace)
}

func domainHz(hz float64) domain.Domain {
	return domain.Domain{FrequencyHz: hz}
}
