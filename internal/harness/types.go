package harness

// Trace event kinds.
const (
	KindEnqueue   = "enqueue"    // accepted write
	KindWriteFull = "write_full" // write rejected by the full flag
	KindDequeue   = "dequeue"    // accepted read
	KindReadEmpty = "read_empty" // read rejected by the empty flag
	KindReset     = "reset"      // reset issued from Domain
)

// Domain names used in traces.
const (
	DomainWrite = "write"
	DomainRead  = "read"
)

// TraceEvent is one monitored port transaction.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	TimeNs int64  `json:"time_ns"`
	Domain string `json:"domain"`
	Kind   string `json:"kind"`
	Value  int64  `json:"value"`
}

// Stats counts monitored transactions.
type Stats struct {
	WriteAccepted uint64 `json:"write_accepted"`
	WriteRejected uint64 `json:"write_rejected"`
	ReadAccepted  uint64 `json:"read_accepted"`
	ReadRejected  uint64 `json:"read_rejected"`
	Resets        uint64 `json:"resets"`
	WriteEdges    uint64 `json:"write_edges"`
	ReadEdges     uint64 `json:"read_edges"`
	FullReached   bool   `json:"full_reached"`
}

// Map returns the counters keyed by their JSON names. FullReached is
// reported as 0 or 1.
func (s Stats) Map() map[string]uint64 {
	full := uint64(0)
	if s.FullReached {
		full = 1
	}
	return map[string]uint64{
		"write_accepted": s.WriteAccepted,
		"write_rejected": s.WriteRejected,
		"read_accepted":  s.ReadAccepted,
		"read_rejected":  s.ReadRejected,
		"resets":         s.Resets,
		"write_edges":    s.WriteEdges,
		"read_edges":     s.ReadEdges,
		"full_reached":   full,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if no transaction error occurred and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every monitored transaction in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains transaction and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Stats Stats `json:"stats"`

	// Digest is the canonical digest of the trace snapshot.
	Digest string `json:"digest"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an error message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
