package store

import (
	"context"
	"fmt"

	"github.com/sugawarayuuta/sonnet"
)

// WriteRun inserts a run and its transactions in a single transaction.
// Uses ON CONFLICT DO NOTHING for idempotency: writing a run ID that already
// exists leaves the stored run and its transactions untouched.
//
// The run's Seq is assigned here, one past the highest stored seq.
func (s *Store) WriteRun(ctx context.Context, run Run, txns []Transaction) (err error) {
	if run.ID == "" {
		return fmt.Errorf("write run: empty id")
	}

	stats := run.Stats
	if stats == nil {
		stats = map[string]uint64{}
	}
	statsJSON, err := sonnet.Marshal(stats)
	if err != nil {
		return fmt.Errorf("write run: marshal stats: %w", err)
	}
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := sonnet.Marshal(errs)
	if err != nil {
		return fmt.Errorf("write run: marshal errors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var seq int64
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, scenario, capacity, sync_stages, write_hz, read_hz, seed, pass, digest, source, stats, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.Scenario,
		run.Capacity,
		run.SyncStages,
		run.WriteHz,
		run.ReadHz,
		run.Seed,
		run.Pass,
		run.Digest,
		run.Source,
		string(statsJSON),
		string(errorsJSON),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if inserted == 0 {
		// Already recorded.
		return tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (run_id, seq, time_ns, domain, kind, value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare transactions: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		if _, err = stmt.ExecContext(ctx, run.ID, t.Seq, t.TimeNs, t.Domain, t.Kind, t.Value); err != nil {
			return fmt.Errorf("write run: transaction %d: %w", t.Seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
