package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/asyncfifo/internal/harness"
	"github.com/roach88/asyncfifo/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run
}

// ReplayResult holds the outcome of replaying one stored run.
type ReplayResult struct {
	RunID          string `json:"run_id"`
	Scenario       string `json:"scenario"`
	StoredDigest   string `json:"stored_digest"`
	ReplayedDigest string `json:"replayed_digest"`
	Deterministic  bool   `json:"deterministic"`
	TraceValid     bool   `json:"trace_valid"`
	TraceError     string `json:"trace_error,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run a recorded run and verify determinism",
		Long: `Re-run a recorded scenario and verify determinism.

The stored scenario source is parsed again and executed with the recorded
seed. The new trace digest must equal the stored one, and the stored
transactions must replay cleanly against the reference model.

Exit codes:
  0 - Replay is deterministic and the stored trace is valid
  1 - Digest mismatch or invalid stored trace
  2 - Command error (database not found, etc.)

Examples:
  asyncfifo replay --db runs.db
  asyncfifo replay --db runs.db --run 0190f1c2-...
  asyncfifo replay --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to replay (default: latest)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := loadReplayRun(ctx, st, opts.RunID)
	if err != nil {
		return err
	}

	result, err := replayRun(ctx, st, run, newLogger(opts.RootOptions, cmd.ErrOrStderr()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay run", err)
	}

	var failure *CLIError
	switch {
	case !result.Deterministic:
		failure = &CLIError{
			Code:    "E_NONDETERMINISTIC",
			Message: fmt.Sprintf("run %s replayed with a different digest", run.ID),
		}
	case !result.TraceValid:
		failure = &CLIError{
			Code:    "E_TRACE_INVALID",
			Message: fmt.Sprintf("run %s has an invalid stored trace", run.ID),
			Details: result.TraceError,
		}
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return respond(w, result, failure)
	}

	fmt.Fprintf(w, "Replay %s (%s)\n", result.RunID, result.Scenario)
	fmt.Fprintf(w, "  stored:   %s\n", result.StoredDigest)
	fmt.Fprintf(w, "  replayed: %s\n", result.ReplayedDigest)
	if result.TraceError != "" {
		fmt.Fprintf(w, "  trace: %s\n", result.TraceError)
	}
	if failure != nil {
		fmt.Fprintf(w, "✗ %s\n", failure.Message)
		return NewExitError(ExitFailure, failure.Message)
	}
	fmt.Fprintln(w, "✓ Deterministic")
	return nil
}

func loadReplayRun(ctx context.Context, st *store.Store, runID string) (store.Run, error) {
	var run store.Run
	var err error
	if runID == "" {
		run, err = st.LatestRun(ctx)
	} else {
		run, err = st.ReadRun(ctx, runID)
	}
	if errors.Is(err, store.ErrRunNotFound) {
		if runID == "" {
			return run, NewExitError(ExitCommandError, "no runs recorded")
		}
		return run, NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return run, WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return run, nil
}

// replayRun re-executes a stored run and checks its stored trace.
func replayRun(ctx context.Context, st *store.Store, run store.Run, logger *slog.Logger) (ReplayResult, error) {
	result := ReplayResult{
		RunID:        run.ID,
		Scenario:     run.Scenario,
		StoredDigest: run.Digest,
	}

	scenario, err := harness.ParseScenario([]byte(run.Source))
	if err != nil {
		return result, fmt.Errorf("parse stored scenario: %w", err)
	}
	replayed, err := harness.Run(scenario, harness.WithLogger(logger), harness.WithSeed(run.Seed))
	if err != nil {
		return result, fmt.Errorf("run stored scenario: %w", err)
	}
	result.ReplayedDigest = replayed.Digest
	result.Deterministic = replayed.Digest == run.Digest

	txns, err := st.ReadTransactions(ctx, run.ID)
	if err != nil {
		return result, fmt.Errorf("read transactions: %w", err)
	}
	trace := toTrace(txns)
	if err := harness.VerifyTrace(run.Capacity, trace); err != nil {
		result.TraceError = err.Error()
		return result, nil
	}
	digest, err := harness.TraceDigest(run.Scenario, trace)
	if err != nil {
		return result, err
	}
	if digest != run.Digest {
		result.TraceError = "stored transactions do not match the run digest"
		return result, nil
	}
	result.TraceValid = true
	return result, nil
}
