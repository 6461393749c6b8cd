package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/asyncfifo/internal/testutil"
)

func TestTraceMissingDatabaseFlag(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceDatabaseNotFound(t *testing.T) {
	_, err := execute(t, "trace", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTraceEmptyDatabase(t *testing.T) {
	_, dbPath := testutil.TempStore(t)

	out, err := execute(t, "trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestTraceListRuns(t *testing.T) {
	dbPath := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-1 basic")

	out, err = execute(t, "trace", "--db", dbPath, "--scenario", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestTraceListRunsJSON(t *testing.T) {
	dbPath := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath, "--format", "json")
	require.NoError(t, err)

	var runs []RunSummary
	decodeResponse(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.True(t, runs[0].Pass)
}

func TestTraceDumpRun(t *testing.T) {
	dbPath := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-1 (basic)")
	assert.Contains(t, out, "capacity 4, 2 sync stages")
	assert.Contains(t, out, "enqueue")
	assert.Contains(t, out, "dequeue")
}

func TestTraceDumpRunJSON(t *testing.T) {
	dbPath := recordedDB(t)

	out, err := execute(t, "trace", "--db", dbPath, "--run", "run-1", "--format", "json")
	require.NoError(t, err)

	var res TraceResult
	decodeResponse(t, out, &res)
	assert.Equal(t, "run-1", res.Run.ID)
	require.NotEmpty(t, res.Transactions)
	assert.Equal(t, int64(1), res.Transactions[0].Seq)
}

func TestTraceRunNotFound(t *testing.T) {
	dbPath := recordedDB(t)

	_, err := execute(t, "trace", "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: nope")
}
