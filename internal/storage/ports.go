package storage

import (
	"context"

	"ledger/internal/core"
)

// Repository persists transactions. Implementations return core.ErrNotFound
// for a missing id and a *core.StorageError for any other failure.
type Repository interface {
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetByID(ctx context.Context, id int64) (core.Transaction, error)
	// List returns every transaction, newest first (date DESC, id DESC).
	List(ctx context.Context) ([]core.Transaction, error)
	// ListRange is List restricted to an inclusive date range.
	ListRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error)
	// ListForYear returns transactions in chronological order; year 0 means all years.
	ListForYear(ctx context.Context, year int) ([]core.Transaction, error)
	Update(ctx context.Context, id int64, p core.Patch) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}
