package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/asyncfifo/internal/canon"
)

// DefaultGoldenDir is where golden traces live relative to the test package.
const DefaultGoldenDir = "testdata/golden"

// TraceSnapshot is the golden-file form of a run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// GoldenOption configures golden comparisons.
type GoldenOption func(*goldenConfig)

type goldenConfig struct {
	dir string
}

// WithGoldenDir overrides DefaultGoldenDir.
func WithGoldenDir(dir string) GoldenOption {
	return func(c *goldenConfig) {
		c.dir = dir
	}
}

func newGoldie(t *testing.T, opts []GoldenOption) *goldie.Goldie {
	cfg := goldenConfig{dir: DefaultGoldenDir}
	for _, opt := range opts {
		opt(&cfg)
	}
	return goldie.New(t,
		goldie.WithFixtureDir(cfg.dir),
		goldie.WithNameSuffix(".golden"),
	)
}

// SnapshotJSON returns the canonical JSON of a result's trace, the content
// of its golden file.
func SnapshotJSON(name string, result *Result) ([]byte, error) {
	return canon.Marshal(TraceSnapshot{ScenarioName: name, Trace: result.Trace})
}

// RunWithGolden executes a scenario and compares the trace against a golden file
// named {scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...GoldenOption) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result, opts...)
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result, opts ...GoldenOption) error {
	t.Helper()

	traceJSON, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}
	newGoldie(t, opts).Assert(t, scenarioName, traceJSON)
	return nil
}

// UpdateGolden writes the result's trace as the golden file for scenarioName.
func UpdateGolden(t *testing.T, scenarioName string, result *Result, opts ...GoldenOption) error {
	t.Helper()

	traceJSON, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}
	return newGoldie(t, opts).Update(t, scenarioName, traceJSON)
}
