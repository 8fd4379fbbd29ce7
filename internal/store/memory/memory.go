// Package memory is the in-process record store. It keeps one collection
// per record kind behind a mutex, assigns identifiers from a monotonic
// counter, and hands out defensive copies so callers can never mutate
// store state through a returned record.
package memory

import (
	"context"
	"time"

	"farmstead/internal/core"
	"farmstead/internal/store"
)

// Store implements store.Store over in-memory collections.
type Store struct {
	farms *farmCollection
	crops *cropCollection
	tasks *taskCollection
	txs   *transactionCollection
}

// Option configures a Store.
type Option func(*options)

type options struct {
	latency time.Duration
	clock   func() time.Time
}

// WithLatency adds an artificial delay before every operation completes,
// approximating a network round trip. Zero by default.
func WithLatency(d time.Duration) Option {
	return func(o *options) { o.latency = d }
}

// WithClock overrides the time source used for createdAt and completedAt
// stamps. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// New creates a store holding the given seed records. Identifier counters
// start past the highest seed id in each collection and never run
// backwards, so a deleted id is not reissued within the process lifetime.
func New(seed Seed, opts ...Option) *Store {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		farms: &farmCollection{base: newBase(o), items: cloneFarms(seed.Farms)},
		crops: &cropCollection{base: newBase(o), items: cloneCrops(seed.Crops)},
		tasks: &taskCollection{base: newBase(o), items: cloneTasks(seed.Tasks)},
		txs:   &transactionCollection{base: newBase(o), items: cloneTransactions(seed.Transactions)},
	}
}

func (s *Store) Farms() store.Farms               { return s.farms }
func (s *Store) Crops() store.Crops               { return s.crops }
func (s *Store) Tasks() store.Tasks               { return s.tasks }
func (s *Store) Transactions() store.Transactions { return s.txs }

// wait blocks for the configured artificial latency, honoring cancellation.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// The clones are always non-nil so empty collections serialize as JSON
// arrays, never null.

func cloneFarms(in []core.Farm) []core.Farm {
	out := make([]core.Farm, len(in))
	copy(out, in)
	return out
}

func cloneCrops(in []core.Crop) []core.Crop {
	out := make([]core.Crop, len(in))
	copy(out, in)
	return out
}

func cloneTasks(in []core.Task) []core.Task {
	out := make([]core.Task, len(in))
	for i := range in {
		out[i] = copyTask(in[i])
	}
	return out
}

func cloneTransactions(in []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(in))
	copy(out, in)
	return out
}

// copyTask deep-copies the pointer fields so a stored task never aliases
// a caller's memory.
func copyTask(t core.Task) core.Task {
	if t.CropID != nil {
		id := *t.CropID
		t.CropID = &id
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
