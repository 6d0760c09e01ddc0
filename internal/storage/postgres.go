package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ledger/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgColumns = `id, date::text, description, value::text, type`

// PostgresRepository stores transactions in PostgreSQL through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// ConnectOptions tunes the pool and the startup retry loop.
type ConnectOptions struct {
	MaxConns      int32
	MinConns      int32
	Attempts      int
	RetryInterval time.Duration
}

func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		MaxConns:      10,
		MinConns:      2,
		Attempts:      10,
		RetryInterval: 3 * time.Second,
	}
}

// NewPostgresRepository migrates the schema and opens a pool, retrying while
// the database is still starting.
func NewPostgresRepository(ctx context.Context, databaseURL string, opts ConnectOptions) (*PostgresRepository, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is empty")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = opts.MaxConns
	cfg.MinConns = opts.MinConns
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
			pool = nil
		}
		slog.WarnContext(ctx, "Postgres connect attempt failed",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryInterval):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres after %d attempts: %w", attempts, err)
	}

	if err := RunPostgresMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "Connected to PostgreSQL", "max_conns", cfg.MaxConns)
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return core.NewStorageError("ping", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row, err := scanRow(r.pool.QueryRow(ctx, `
		INSERT INTO transactions (date, description, value, type)
		VALUES ($1::date, $2, $3::numeric, $4)
		RETURNING `+pgColumns,
		t.Date.String(), t.Description, t.Value.String(), t.Type.String()))
	if err != nil {
		return core.Transaction{}, core.NewStorageError("create", err)
	}

	slog.InfoContext(ctx, "Transaction saved to PostgreSQL",
		"id", row.ID,
		"date", row.Date,
		"type", row.Type,
		"value", row.Value)

	return toTransaction(ctx, row), nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := scanRow(r.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, core.NewStorageError("get", err)
	}
	return toTransaction(ctx, row), nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]core.Transaction, error) {
	return r.query(ctx, "list", `SELECT `+pgColumns+` FROM transactions ORDER BY date DESC, id DESC`)
}

func (r *PostgresRepository) ListRange(ctx context.Context, dr core.DateRange) ([]core.Transaction, error) {
	var start, end *string
	if dr.Start != nil {
		s := dr.Start.String()
		start = &s
	}
	if dr.End != nil {
		e := dr.End.String()
		end = &e
	}
	return r.query(ctx, "list range", `
		SELECT `+pgColumns+` FROM transactions
		WHERE ($1::date IS NULL OR date >= $1::date)
		  AND ($2::date IS NULL OR date <= $2::date)
		ORDER BY date DESC, id DESC`, start, end)
}

func (r *PostgresRepository) ListForYear(ctx context.Context, year int) ([]core.Transaction, error) {
	if year == 0 {
		return r.query(ctx, "list year", `SELECT `+pgColumns+` FROM transactions ORDER BY date ASC, id ASC`)
	}
	return r.query(ctx, "list year", `
		SELECT `+pgColumns+` FROM transactions
		WHERE EXTRACT(YEAR FROM date) = $1
		ORDER BY date ASC, id ASC`, year)
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, p core.Patch) (core.Transaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return core.Transaction{}, core.NewStorageError("update", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	current, err := scanRow(tx.QueryRow(ctx, `SELECT `+pgColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, core.NewStorageError("update", err)
	}

	next := toTransaction(ctx, current).Apply(p)
	row, err := scanRow(tx.QueryRow(ctx, `
		UPDATE transactions
		SET date = $1::date, description = $2, value = $3::numeric, type = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING `+pgColumns,
		next.Date.String(), next.Description, next.Value.String(), next.Type.String(), id))
	if err != nil {
		return core.Transaction{}, core.NewStorageError("update", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return core.Transaction{}, core.NewStorageError("update", err)
	}

	slog.InfoContext(ctx, "Transaction updated in PostgreSQL", "id", id)
	return toTransaction(ctx, row), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return core.NewStorageError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted from PostgreSQL", "id", id)
	return nil
}

func (r *PostgresRepository) query(ctx context.Context, op, sql string, args ...any) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, core.NewStorageError(op, err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, core.NewStorageError(op, err)
		}
		out = append(out, toTransaction(ctx, row))
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError(op, err)
	}
	return out, nil
}

func scanRow(row pgx.Row) (TransactionRow, error) {
	var i TransactionRow
	err := row.Scan(&i.ID, &i.Date, &i.Description, &i.Value, &i.Type)
	return i, err
}
