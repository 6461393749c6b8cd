package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/asyncfifo/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - dump one run
	Scenario string // optional - filter the run list
}

// RunSummary is one line of the run list.
type RunSummary struct {
	ID       string `json:"id"`
	Seq      int64  `json:"seq"`
	Scenario string `json:"scenario"`
	Pass     bool   `json:"pass"`
	Digest   string `json:"digest"`
}

// TraceResult holds one stored run and its transactions.
type TraceResult struct {
	Run          store.Run           `json:"run"`
	Transactions []store.Transaction `json:"transactions"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with --db.

Without --run, lists recorded runs in the order they were stored.
With --run, prints the run and every transaction of its trace.

Examples:
  asyncfifo trace --db runs.db
  asyncfifo trace --db runs.db --scenario slow_reader
  asyncfifo trace --db runs.db --run 0190f1c2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to dump")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only list runs of this scenario")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(opts, st, cmd)
	}
	return dumpRun(opts, st, cmd)
}

func listRuns(opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	runs, err := st.ListRuns(cmd.Context(), opts.Scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = RunSummary{ID: r.ID, Seq: r.Seq, Scenario: r.Scenario, Pass: r.Pass, Digest: r.Digest}
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(w, CLIResponse{Status: "ok", Data: summaries})
	}

	if len(summaries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, s := range summaries {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%4d %s %s %s %s\n", s.Seq, mark, s.ID, s.Scenario, shortDigest(s.Digest))
	}
	return nil
}

func dumpRun(opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	ctx := cmd.Context()
	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	txns, err := st.ReadTransactions(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transactions", err)
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(w, CLIResponse{Status: "ok", Data: TraceResult{Run: run, Transactions: txns}})
	}

	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.Scenario)
	fmt.Fprintf(w, "  capacity %d, %d sync stages, write %g Hz, read %g Hz, seed %d\n",
		run.Capacity, run.SyncStages, run.WriteHz, run.ReadHz, run.Seed)
	fmt.Fprintf(w, "  pass: %t\n", run.Pass)
	fmt.Fprintf(w, "  digest: %s\n", run.Digest)
	for _, e := range run.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%6s %12s %-6s %-10s %s\n", "SEQ", "TIME_NS", "DOMAIN", "KIND", "VALUE")
	for _, t := range txns {
		fmt.Fprintf(w, "%6d %12d %-6s %-10s %d\n", t.Seq, t.TimeNs, t.Domain, t.Kind, t.Value)
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
