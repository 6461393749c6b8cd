package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 scenario(s) valid")
}

func TestValidate_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "basic.yaml", passingScenario)
	writeFile(t, dir, "wrong.yaml", failingScenario)

	out, err := execute(t, "validate", dir, "--format", "json")
	require.NoError(t, err)

	var res ValidationResult
	resp := decodeResponse(t, out, &res)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, res.Valid)
	assert.Equal(t, 2, res.Files)
}

func TestValidate_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "basic.yaml", passingScenario)
	writeFile(t, dir, "bad.yaml", "name: bad\ndescription: x\ncapacity: 3\n")

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "bad.yaml")
	assert.Contains(t, out, ErrCodeParse)
	assert.Contains(t, err.Error(), "1 error(s)")
}

func TestValidate_JSONErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "typo.yaml", passingScenario+"extra_field: 1\n")

	out, err := execute(t, "validate", path, "--format", "json")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var res ValidationResult
	resp := decodeResponse(t, out, &res)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ErrCodeParse, res.Errors[0].Code)
	assert.Equal(t, path, res.Errors[0].File)
}

func TestValidate_MissingPath(t *testing.T) {
	_, err := execute(t, "validate", "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_EmptyDirectory(t *testing.T) {
	_, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no scenario files found")
}
