package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncfifo/internal/store"
	"github.com/roach88/asyncfifo/internal/testutil"
)

func TestSimulate_Pass(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	out, err := execute(t, "simulate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ basic")
	assert.Contains(t, out, "write:  3 accepted")
	assert.Contains(t, out, "digest: ")
	assert.NotContains(t, out, "run:")
}

func TestSimulate_FailExitCode(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(t, "simulate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "accepted_count")
}

func TestSimulate_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	out, err := execute(t, "simulate", path, "--format", "json")
	require.NoError(t, err)

	var res SimulateResult
	resp := decodeResponse(t, out, &res)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "basic", res.Scenario)
	assert.True(t, res.Pass)
	assert.Len(t, res.Digest, 64)
	assert.Len(t, res.ScenarioDigest, 64)
	assert.NotEqual(t, res.Digest, res.ScenarioDigest)
	assert.Equal(t, uint64(3), res.Stats["write_accepted"])
	assert.Equal(t, uint64(3), res.Stats["read_accepted"])
}

func TestSimulate_JSONFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(t, "simulate", path, "--format", "json")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var res SimulateResult
	resp := decodeResponse(t, out, &res)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_RUN_FAILED", resp.Error.Code)
	assert.False(t, res.Pass)
	assert.NotEmpty(t, res.Errors)
}

func TestSimulate_MissingFile(t *testing.T) {
	_, err := execute(t, "simulate", "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario not found")
}

func TestSimulate_InvalidScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "name: x\nbogus: 1\n")

	_, err := execute(t, "simulate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestSimulate_RecordsRun(t *testing.T) {
	sequentialIDs(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "basic.yaml", passingScenario)
	dbPath := filepath.Join(dir, "runs.db")

	out, err := execute(t, "simulate", path, "--db", dbPath, "--seed", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "run:    run-1")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "basic", run.Scenario)
	assert.Equal(t, int64(9), run.Seed)
	assert.Equal(t, 4, run.Capacity)
	assert.Equal(t, 2, run.SyncStages)
	assert.Equal(t, 1e6, run.WriteHz)
	assert.True(t, run.Pass)
	assert.Equal(t, passingScenario, run.Source)

	txns, err := st.ReadTransactions(context.Background(), "run-1")
	require.NoError(t, err)
	enqueued := 0
	for _, tx := range txns {
		if tx.Kind == "enqueue" {
			enqueued++
		}
	}
	assert.Equal(t, 3, enqueued)
}

func TestSimulate_RecordingSameIDIsIdempotent(t *testing.T) {
	prev := idGenerator
	idGenerator = testutil.NewFixedIDGenerator("run-same")
	t.Cleanup(func() { idGenerator = prev })

	st, dbPath := testutil.TempStore(t)
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	for i := 0; i < 2; i++ {
		_, err := execute(t, "simulate", path, "--db", dbPath)
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-same", runs[0].ID)
}
