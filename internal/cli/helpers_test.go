package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"

	"github.com/roach88/asyncfifo/internal/store"
)

const passingScenario = `name: basic
description: "Three bytes in, drained out"
capacity: 4
domains:
  write: {frequency_hz: 1000000}
  read: {frequency_hz: 1000000}
steps:
  - write: [1, 2, 3]
  - drain: true
assertions:
  - type: accepted_count
    side: write
    count: 3
  - type: final_empty
  - type: exclusive_monitor
`

const failingScenario = `name: wrong_count
description: "Expects more writes than were issued"
capacity: 4
domains:
  write: {frequency_hz: 1000000}
  read: {frequency_hz: 1000000}
steps:
  - write: [1, 2]
assertions:
  - type: accepted_count
    side: write
    count: 99
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse parses a JSON CLIResponse and re-decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, sonnet.Unmarshal([]byte(out), &resp), "output: %s", out)
	if v != nil && resp.Data != nil {
		raw, err := sonnet.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, sonnet.Unmarshal(raw, v))
	}
	return resp
}

// sequentialIDs makes run IDs predictable for the duration of the test.
func sequentialIDs(t *testing.T) {
	t.Helper()
	prev := idGenerator
	idGenerator = store.NewSequentialGenerator("run")
	t.Cleanup(func() { idGenerator = prev })
}

// recordedDB simulates the passing scenario into a fresh database.
func recordedDB(t *testing.T) string {
	t.Helper()
	sequentialIDs(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "basic.yaml", passingScenario)
	dbPath := filepath.Join(dir, "runs.db")
	_, err := execute(t, "simulate", path, "--db", dbPath)
	require.NoError(t, err)
	return dbPath
}
