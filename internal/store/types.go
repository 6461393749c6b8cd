package store

import "errors"

// ErrRunNotFound is returned when a run ID has no stored record.
var ErrRunNotFound = errors.New("store: run not found")

// Run is the stored record of one scenario execution.
//
// Seq is assigned by WriteRun and ignored on input.
type Run struct {
	ID         string            `json:"id"`
	Seq        int64             `json:"seq"`
	Scenario   string            `json:"scenario"`
	Capacity   int               `json:"capacity"`
	SyncStages int               `json:"sync_stages"`
	WriteHz    float64           `json:"write_hz"`
	ReadHz     float64           `json:"read_hz"`
	Seed       int64             `json:"seed"`
	Pass       bool              `json:"pass"`
	Digest     string            `json:"digest"`
	Source     string            `json:"-"`
	Stats      map[string]uint64 `json:"stats"`
	Errors     []string          `json:"errors"`
}

// Transaction is one monitored port event of a run.
type Transaction struct {
	Seq    int64  `json:"seq"`
	TimeNs int64  `json:"time_ns"`
	Domain string `json:"domain"`
	Kind   string `json:"kind"`
	Value  int64  `json:"value"`
}
