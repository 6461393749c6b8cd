package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/asyncfifo/internal/domain"
	"github.com/roach88/asyncfifo/internal/harness"
)

// StressOptions holds flags for the stress command.
type StressOptions struct {
	*RootOptions
	Capacity   int
	SyncStages int
	Count      int
	Ratio      string // "w:r" operation intervals in edges
	WriteHz    float64
	ReadHz     float64
	Seed       int64
	Timeout    time.Duration
}

// StressResult is the output of the stress command.
type StressResult struct {
	*harness.ConcurrentResult
	Requested int    `json:"requested"`
	Elapsed   string `json:"elapsed"`
	Error     string `json:"error,omitempty"`
}

// NewStressCommand creates the stress command.
func NewStressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StressOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Transfer bytes between two goroutine-driven domains",
		Long: `Transfer random bytes through a queue whose write and read ports run
on separate goroutines, each driven by its own clock.

A frequency of 0 free-runs the domain. --ratio sets how often each side
attempts an operation, in edges of its own clock.

Exit codes:
  0 - Every byte arrived in order
  1 - Order mismatch or timeout
  2 - Command error (invalid flags)

Examples:
  asyncfifo stress --capacity 8 --count 100000
  asyncfifo stress --ratio 1:5 --sync-stages 3
  asyncfifo stress --write-hz 20000 --read-hz 5000 --count 200 --timeout 5s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Capacity, "capacity", 16, "queue capacity (power of two >= 2)")
	cmd.Flags().IntVar(&opts.SyncStages, "sync-stages", 0, "synchronizer depth (0 = default)")
	cmd.Flags().IntVar(&opts.Count, "count", 10000, "bytes to transfer")
	cmd.Flags().StringVar(&opts.Ratio, "ratio", "1:1", "write:read operation interval in edges")
	cmd.Flags().Float64Var(&opts.WriteHz, "write-hz", 0, "write clock frequency (0 = free-running)")
	cmd.Flags().Float64Var(&opts.ReadHz, "read-hz", 0, "read clock frequency (0 = free-running)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "data seed")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Minute, "abort after this long")

	return cmd
}

// parseRatio parses "w:r" into two positive intervals.
func parseRatio(s string) (int, int, error) {
	ws, rs, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("ratio %q: expected w:r", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w < 1 {
		return 0, 0, fmt.Errorf("ratio %q: write interval must be a positive integer", s)
	}
	r, err := strconv.Atoi(rs)
	if err != nil || r < 1 {
		return 0, 0, fmt.Errorf("ratio %q: read interval must be a positive integer", s)
	}
	return w, r, nil
}

func runStress(cmd *cobra.Command, opts *StressOptions) error {
	w := cmd.OutOrStdout()
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	writeEvery, readEvery, err := parseRatio(opts.Ratio)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --ratio", err)
	}
	if opts.Count < 0 {
		return NewExitError(ExitCommandError, "--count must be non-negative")
	}
	for _, hz := range []float64{opts.WriteHz, opts.ReadHz} {
		if hz != 0 {
			if err := (domain.Domain{FrequencyHz: hz}).Validate(); err != nil {
				return WrapExitError(ExitCommandError, "invalid frequency", err)
			}
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	start := time.Now()
	res, err := harness.RunConcurrent(ctx, harness.ConcurrentConfig{
		Capacity:   opts.Capacity,
		SyncStages: opts.SyncStages,
		Count:      opts.Count,
		Seed:       opts.Seed,
		Write:      domain.Domain{FrequencyHz: opts.WriteHz},
		Read:       domain.Domain{FrequencyHz: opts.ReadHz},
		WriteEvery: writeEvery,
		ReadEvery:  readEvery,
		Logger:     logger,
	})
	if res == nil {
		return WrapExitError(ExitCommandError, "failed to start stress run", err)
	}

	out := StressResult{
		ConcurrentResult: res,
		Requested:        opts.Count,
		Elapsed:          time.Since(start).Round(time.Millisecond).String(),
	}

	var failure *CLIError
	if err != nil {
		out.Error = err.Error()
		code := "E_ORDER_MISMATCH"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			code = "E_TIMEOUT"
		}
		failure = &CLIError{Code: code, Message: err.Error()}
	}

	if opts.Format == "json" {
		return respond(w, out, failure)
	}

	mark := "✓"
	if failure != nil {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s transferred %d/%d bytes in %s\n", mark, res.Transferred, opts.Count, out.Elapsed)
	fmt.Fprintf(w, "  write: %d edges, %d accepted, %d rejected\n", res.WriteCycles, res.WriteStats.Accepted, res.WriteStats.Rejected)
	fmt.Fprintf(w, "  read:  %d edges, %d accepted, %d rejected\n", res.ReadCycles, res.ReadStats.Accepted, res.ReadStats.Rejected)
	if failure != nil {
		fmt.Fprintf(w, "  %s: %s\n", failure.Code, failure.Message)
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}
