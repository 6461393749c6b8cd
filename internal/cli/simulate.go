package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/asyncfifo/internal/harness"
	"github.com/roach88/asyncfifo/internal/store"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Database string
	Seed     int64
}

// SimulateResult is the output of the simulate command.
type SimulateResult struct {
	Scenario       string            `json:"scenario"`
	ScenarioDigest string            `json:"scenario_digest"`
	RunID          string            `json:"run_id,omitempty"`
	Pass           bool              `json:"pass"`
	Digest         string            `json:"digest"`
	Events         int               `json:"events"`
	Stats          map[string]uint64 `json:"stats"`
	Errors         []string          `json:"errors,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run one scenario",
		Long: `Run a scenario on the deterministic two-domain scheduler.

Every transaction is checked against the reference model. With --db the
run and its trace are recorded for later trace and replay.

Exit codes:
  0 - Scenario passed
  1 - Scenario failed
  2 - Command error (invalid path, unreadable scenario, etc.)

Examples:
  asyncfifo simulate scenarios/slow_reader.yaml
  asyncfifo simulate scenarios/random_rounds.yaml --seed 7 --db runs.db
  asyncfifo simulate scenarios/resets.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run to this SQLite database")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "override the scenario seed")

	return cmd
}

func runSimulate(cmd *cobra.Command, opts *SimulateOptions, path string) error {
	w := cmd.OutOrStdout()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario not found: %s", path))
	}
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	seed := scenario.Seed
	runOpts := []harness.RunOption{harness.WithLogger(logger)}
	if cmd.Flags().Changed("seed") {
		seed = opts.Seed
		runOpts = append(runOpts, harness.WithSeed(seed))
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	scenarioDigest, err := harness.ScenarioDigest(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to digest scenario", err)
	}

	out := SimulateResult{
		Scenario:       scenario.Name,
		ScenarioDigest: scenarioDigest,
		Pass:           result.Pass,
		Digest:         result.Digest,
		Events:         len(result.Trace),
		Stats:          result.Stats.Map(),
		Errors:         result.Errors,
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		out.RunID, err = recordRun(cmd.Context(), st, scenario, seed, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		logger.Debug("run recorded", "run_id", out.RunID, "db", opts.Database)
	}

	if opts.Format == "json" {
		var failure *CLIError
		if !result.Pass {
			failure = &CLIError{Code: "E_RUN_FAILED", Message: fmt.Sprintf("scenario %s failed", scenario.Name)}
		}
		return respond(w, out, failure)
	}

	mark := "✓"
	if !result.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, scenario.Name)
	fmt.Fprintf(w, "  events: %d\n", out.Events)
	fmt.Fprintf(w, "  write:  %d accepted, %d rejected\n", result.Stats.WriteAccepted, result.Stats.WriteRejected)
	fmt.Fprintf(w, "  read:   %d accepted, %d rejected\n", result.Stats.ReadAccepted, result.Stats.ReadRejected)
	fmt.Fprintf(w, "  digest: %s\n", result.Digest)
	if out.RunID != "" {
		fmt.Fprintf(w, "  run:    %s\n", out.RunID)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}
