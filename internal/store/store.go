// Package store defines the record-store contract shared by the memory,
// sqlite and remote backends. All implementations honor the same
// semantics: snapshot reads return defensive copies, creates assign
// monotonically increasing identifiers, updates merge partial fields,
// and deletes are immediate with no cross-kind cascade.
package store

import (
	"context"
	"errors"

	"farmstead/internal/core"
)

var (
	// ErrNotFound is returned by single-record operations on an unknown id.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable is returned when a backing service cannot be reached.
	ErrUnavailable = errors.New("record service unavailable")
)

// Ports for record collections. ListByFarm never fails on an unknown farm;
// it returns an empty slice.
type (
	Farms interface {
		List(ctx context.Context) ([]core.Farm, error)
		Get(ctx context.Context, id int64) (core.Farm, error)
		Create(ctx context.Context, f core.Farm) (core.Farm, error)
		Update(ctx context.Context, id int64, p core.FarmPatch) (core.Farm, error)
		Delete(ctx context.Context, id int64) error
	}

	Crops interface {
		List(ctx context.Context) ([]core.Crop, error)
		Get(ctx context.Context, id int64) (core.Crop, error)
		ListByFarm(ctx context.Context, farmID int64) ([]core.Crop, error)
		Create(ctx context.Context, c core.Crop) (core.Crop, error)
		Update(ctx context.Context, id int64, p core.CropPatch) (core.Crop, error)
		Delete(ctx context.Context, id int64) error
	}

	Tasks interface {
		List(ctx context.Context) ([]core.Task, error)
		Get(ctx context.Context, id int64) (core.Task, error)
		ListByFarm(ctx context.Context, farmID int64) ([]core.Task, error)
		Create(ctx context.Context, t core.Task) (core.Task, error)
		Update(ctx context.Context, id int64, p core.TaskPatch) (core.Task, error)
		Delete(ctx context.Context, id int64) error
	}

	Transactions interface {
		List(ctx context.Context) ([]core.Transaction, error)
		Get(ctx context.Context, id int64) (core.Transaction, error)
		ListByFarm(ctx context.Context, farmID int64) ([]core.Transaction, error)
		Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		Update(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error)
		Delete(ctx context.Context, id int64) error

		// Upsert stores tx under its caller-supplied id, creating the
		// record or replacing the one already held there. Mirroring
		// between stores uses it to preserve source identifiers; the
		// id counter must advance past upserted ids so later creates
		// never collide.
		Upsert(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	// Store bundles the four collections a backend provides.
	Store interface {
		Farms() Farms
		Crops() Crops
		Tasks() Tasks
		Transactions() Transactions
	}
)

// IsNotFound reports whether err is a missing-record failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable reports whether err is a transport-level failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsValidation reports whether err carries per-field validation detail.
func IsValidation(err error) bool {
	var ve *core.ValidationError
	return errors.As(err, &ve)
}
