package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return core.NewStorageError("ping", err)
	}
	return nil
}

func (r *SQLiteRepository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Date:        t.Date.String(),
		Description: t.Description,
		Value:       t.Value.String(),
		Type:        t.Type.String(),
	})
	if err != nil {
		return core.Transaction{}, core.NewStorageError("create", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"date", row.Date,
		"type", row.Type,
		"value", row.Value)

	return toTransaction(ctx, row), nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, core.NewStorageError("get", err)
	}
	return toTransaction(ctx, row), nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, core.NewStorageError("list", err)
	}
	return toTransactions(ctx, rows), nil
}

func (r *SQLiteRepository) ListRange(ctx context.Context, dr core.DateRange) ([]core.Transaction, error) {
	start, end := rangeBounds(dr)
	rows, err := r.queries.ListTransactionsBetween(ctx, ListTransactionsBetweenParams{Start: start, End: end})
	if err != nil {
		return nil, core.NewStorageError("list range", err)
	}
	return toTransactions(ctx, rows), nil
}

func (r *SQLiteRepository) ListForYear(ctx context.Context, year int) ([]core.Transaction, error) {
	var (
		rows []TransactionRow
		err  error
	)
	if year == 0 {
		rows, err = r.queries.ListTransactionsChronological(ctx)
	} else {
		rows, err = r.queries.ListTransactionsByYear(ctx, yearKey(year))
	}
	if err != nil {
		return nil, core.NewStorageError("list year", err)
	}
	return toTransactions(ctx, rows), nil
}

// Update reads and rewrites the row inside one database transaction.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, p core.Patch) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, core.NewStorageError("update", err)
	}
	defer tx.Rollback() //nolint:errcheck

	q := r.queries.WithTx(tx)
	current, err := q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, core.NewStorageError("update", err)
	}

	next := toTransaction(ctx, current).Apply(p)
	row, err := q.UpdateTransaction(ctx, UpdateTransactionParams{
		ID:          id,
		Date:        next.Date.String(),
		Description: next.Description,
		Value:       next.Value.String(),
		Type:        next.Type.String(),
	})
	if err != nil {
		return core.Transaction{}, core.NewStorageError("update", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, core.NewStorageError("update", err)
	}

	slog.InfoContext(ctx, "Transaction updated in SQLite", "id", id)
	return toTransaction(ctx, row), nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return core.NewStorageError("delete", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}
