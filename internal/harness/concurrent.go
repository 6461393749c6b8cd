package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/roach88/asyncfifo/internal/cdc"
	"github.com/roach88/asyncfifo/internal/domain"
	"github.com/roach88/asyncfifo/internal/fifo"
)

// ConcurrentConfig configures RunConcurrent.
type ConcurrentConfig struct {
	Capacity   int
	SyncStages int // zero means cdc.DefaultStages
	Count      int // bytes to transfer
	Seed       int64

	// Domain clocks. A zero frequency free-runs the domain.
	Write domain.Domain
	Read  domain.Domain

	// An operation is attempted every WriteEvery (ReadEvery) edges. Zero
	// means every edge. Setting these with free-running clocks gives a
	// rate ratio without real-time ticking.
	WriteEvery int
	ReadEvery  int

	Logger *slog.Logger
}

// ConcurrentResult summarizes a RunConcurrent transfer.
type ConcurrentResult struct {
	Transferred int        `json:"transferred"`
	WriteStats  fifo.Stats `json:"write_stats"`
	ReadStats   fifo.Stats `json:"read_stats"`
	WriteCycles int64      `json:"write_cycles"`
	ReadCycles  int64      `json:"read_cycles"`
}

// RunConcurrent transfers Count random bytes through a queue with each
// domain driven by its own goroutine. The read side checks every byte
// against the sent sequence.
//
// Returns a *RunError with ErrCodeOrderMismatch on the first wrong byte, or
// ctx.Err() if the context ends first.
func RunConcurrent(ctx context.Context, cfg ConcurrentConfig) (*ConcurrentResult, error) {
	if cfg.Count < 0 {
		return nil, fmt.Errorf("concurrent: count must be non-negative, got %d", cfg.Count)
	}
	if cfg.SyncStages == 0 {
		cfg.SyncStages = cdc.DefaultStages
	}
	if cfg.WriteEvery < 1 {
		cfg.WriteEvery = 1
	}
	if cfg.ReadEvery < 1 {
		cfg.ReadEvery = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Write.Name, cfg.Read.Name = DomainWrite, DomainRead

	q, err := fifo.New[byte](cfg.Capacity, fifo.WithSyncStages(cfg.SyncStages), fifo.WithLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	data := make([]byte, cfg.Count)
	rng.Read(data)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, r := q.Writer(), q.Reader()
	sent, received := 0, 0
	var mismatch *RunError

	writer, err := domain.NewDriver(cfg.Write, func(cycle int64) bool {
		w.Tick()
		if sent < len(data) && cycle%int64(cfg.WriteEvery) == 0 {
			if err := w.Enqueue(data[sent]); err == nil {
				sent++
			}
		}
		return sent < len(data)
	}, domain.WithDriverLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	reader, err := domain.NewDriver(cfg.Read, func(cycle int64) bool {
		r.Tick()
		if received < len(data) && cycle%int64(cfg.ReadEvery) == 0 {
			v, err := r.Dequeue()
			if err == nil {
				if v != data[received] {
					mismatch = &RunError{
						Code:    ErrCodeOrderMismatch,
						Message: fmt.Sprintf("byte %d: got %d, expected %d", received, v, data[received]),
						Domain:  DomainRead,
					}
					cancel()
					return false
				}
				received++
			}
		}
		return received < len(data)
	}, domain.WithDriverLogger(cfg.Logger))
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	var writeErr, readErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		writeErr = writer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		readErr = reader.Run(ctx)
	}()
	wg.Wait()

	res := &ConcurrentResult{
		Transferred: received,
		WriteStats:  w.Stats(),
		ReadStats:   r.Stats(),
		WriteCycles: writer.Cycles(),
		ReadCycles:  reader.Cycles(),
	}

	if mismatch != nil {
		return res, mismatch
	}
	if err := errors.Join(writeErr, readErr); err != nil {
		return res, err
	}
	return res, nil
}
