package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sugawarayuuta/sonnet"
)

const runColumns = `id, seq, scenario, capacity, sync_stages, write_hz, read_hz, seed, pass, digest, source, stats, errors`

// ReadRun retrieves a single run by ID.
// Returns an error wrapping ErrRunNotFound if no such run exists.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LatestRun returns the most recently written run.
// Returns ErrRunNotFound if the store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq DESC
		LIMIT 1
	`)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns stored runs ordered by seq ASC. A non-empty scenario
// restricts the result to runs of that scenario.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if scenario == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+runColumns+`
			FROM runs
			ORDER BY seq ASC
		`)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+runColumns+`
			FROM runs
			WHERE scenario = ?
			ORDER BY seq ASC
		`, scenario)
	}
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadTransactions returns the transactions of a run ordered by seq ASC.
//
// Returns an empty slice (not nil) if the run has none or does not exist.
func (s *Store) ReadTransactions(ctx context.Context, runID string) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, time_ns, domain, kind, value
		FROM transactions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txns := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.Seq, &t.TimeNs, &t.Domain, &t.Kind, &t.Value); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans one row selected with runColumns.
func scanRun(row rowScanner) (Run, error) {
	var run Run
	var statsJSON, errorsJSON string

	if err := row.Scan(
		&run.ID, &run.Seq, &run.Scenario, &run.Capacity, &run.SyncStages,
		&run.WriteHz, &run.ReadHz, &run.Seed, &run.Pass, &run.Digest,
		&run.Source, &statsJSON, &errorsJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if err := sonnet.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return Run{}, fmt.Errorf("unmarshal stats for run %s: %w", run.ID, err)
	}
	if err := sonnet.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
		return Run{}, fmt.Errorf("unmarshal errors for run %s: %w", run.ID, err)
	}
	return run, nil
}
