package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/asyncfifo/internal/harness"
)

// Validation error codes.
const (
	ErrCodeParse  = "E_PARSE"  // YAML syntax or field validation
	ErrCodeSchema = "E_SCHEMA" // CUE schema violation
)

// ValidationError describes one invalid scenario file.
type ValidationError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml|dir>...",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files without running them.

Each file is parsed with strict field checking, validated for semantic
constraints and then checked against the CUE scenario schema.
Directories are searched for .yaml and .yml files.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return outputValidateError(formatter, "E_NOT_FOUND", fmt.Sprintf("path not found: %s", p))
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := findScenarioFiles(p, "")
		if err != nil {
			return outputValidateError(formatter, "E_NOT_FOUND", err.Error())
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return outputValidateError(formatter, "E_NOT_FOUND", "no scenario files found")
	}

	result := ValidationResult{Valid: true, Files: len(files)}
	for _, f := range files {
		formatter.VerboseLog("Validating %s", f)
		if verr := validateFile(f); verr != nil {
			result.Valid = false
			result.Errors = append(result.Errors, *verr)
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateFile returns nil if the file is a valid scenario.
func validateFile(path string) *ValidationError {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return &ValidationError{File: path, Code: ErrCodeParse, Message: err.Error()}
	}
	if err := harness.ValidateSchema(scenario); err != nil {
		return &ValidationError{File: path, Code: ErrCodeSchema, Message: err.Error()}
	}
	return nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d scenario(s) valid\n", result.Files)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every invalid file.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	msg := fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))

	if formatter.Format == "json" {
		err := writeJSON(formatter.Writer, CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		})
		if err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "%s\n", filepath.Base(e.File))
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return NewExitError(ExitFailure, msg)
}
