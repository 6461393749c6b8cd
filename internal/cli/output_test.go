package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitCommandError, "bad path")
	assert.Equal(t, "bad path", err.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	inner := errors.New("disk full")
	wrapped := WrapExitError(ExitFailure, "write failed", inner)
	assert.Equal(t, "write failed: disk full", wrapped.Error())
	assert.ErrorIs(t, wrapped, inner)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("ctx: %w", NewExitError(ExitCommandError, "x"))))
}

func TestOutputFormatter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"n": 1}))
	resp := decodeResponse(t, buf.String(), nil)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)

	buf.Reset()
	require.NoError(t, f.Error("E_X", "broken", nil))
	resp = decodeResponse(t, buf.String(), nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_X", resp.Error.Code)
	assert.Equal(t, "broken", resp.Error.Message)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error("E_X", "broken", "more"))
	assert.Contains(t, buf.String(), "Error [E_X]: broken")
	assert.Contains(t, buf.String(), "Details: more")
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	f.VerboseLog("checking %s", "a.yaml")
	assert.Empty(t, out.String())
	assert.Equal(t, "checking a.yaml\n", errOut.String())

	f.Verbose = false
	f.VerboseLog("hidden")
	assert.Equal(t, "checking a.yaml\n", errOut.String())
}

func TestRespond(t *testing.T) {
	buf := &bytes.Buffer{}
	err := respond(buf, map[string]bool{"pass": false}, &CLIError{Code: "E_RUN_FAILED", Message: "failed"})
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, buf.String(), nil)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Data)
}
