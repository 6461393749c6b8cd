package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/asyncfifo/internal/cdc"
	"github.com/roach88/asyncfifo/internal/harness"
	"github.com/roach88/asyncfifo/internal/store"
)

// idGenerator assigns run IDs. Tests swap it for a sequential generator.
var idGenerator store.IDGenerator = store.UUIDv7Generator{}

// openExistingStore opens a database that must already exist.
func openExistingStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// recordRun stores a scenario execution and returns the run ID.
func recordRun(ctx context.Context, st *store.Store, scenario *harness.Scenario, seed int64, result *harness.Result) (string, error) {
	stages := scenario.SyncStages
	if stages == 0 {
		stages = cdc.DefaultStages
	}
	run := store.Run{
		ID:         idGenerator.Generate(),
		Scenario:   scenario.Name,
		Capacity:   scenario.Capacity,
		SyncStages: stages,
		WriteHz:    scenario.Domains.Write.FrequencyHz,
		ReadHz:     scenario.Domains.Read.FrequencyHz,
		Seed:       seed,
		Pass:       result.Pass,
		Digest:     result.Digest,
		Source:     string(scenario.Source),
		Stats:      result.Stats.Map(),
		Errors:     result.Errors,
	}
	if err := st.WriteRun(ctx, run, toTransactions(result.Trace)); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return run.ID, nil
}

func toTransactions(trace []harness.TraceEvent) []store.Transaction {
	txns := make([]store.Transaction, len(trace))
	for i, e := range trace {
		txns[i] = store.Transaction{
			Seq:    e.Seq,
			TimeNs: e.TimeNs,
			Domain: e.Domain,
			Kind:   e.Kind,
			Value:  e.Value,
		}
	}
	return txns
}

func toTrace(txns []store.Transaction) []harness.TraceEvent {
	trace := make([]harness.TraceEvent, len(txns))
	for i, t := range txns {
		trace[i] = harness.TraceEvent{
			Seq:    t.Seq,
			TimeNs: t.TimeNs,
			Domain: t.Domain,
			Kind:   t.Kind,
			Value:  t.Value,
		}
	}
	return trace
}
