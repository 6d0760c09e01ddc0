package storage

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/core"
)

// Open bounds for SQLite range queries; dates are stored as YYYY-MM-DD text.
const (
	minDate = "0000-01-01"
	maxDate = "9999-12-31"
)

func rangeBounds(r core.DateRange) (string, string) {
	start, end := minDate, maxDate
	if r.Start != nil {
		start = r.Start.String()
	}
	if r.End != nil {
		end = r.End.String()
	}
	return start, end
}

// toTransaction maps a stored row to the domain type. Rows that fail to parse
// are kept with zero fields so aggregates skip them instead of failing.
func toTransaction(ctx context.Context, row TransactionRow) core.Transaction {
	t := core.Transaction{ID: row.ID, Description: row.Description}

	date, err := core.ParseDate(row.Date)
	if err != nil {
		slog.WarnContext(ctx, "Stored transaction has invalid date", "id", row.ID, "date", row.Date, "error", err)
	}
	t.Date = date

	value, err := core.ParseAmount(row.Value)
	if err != nil {
		slog.WarnContext(ctx, "Stored transaction has invalid value", "id", row.ID, "value", row.Value, "error", err)
		value = core.SafeAmount(row.Value)
	}
	t.Value = value

	typ, err := core.ParseTransactionType(row.Type)
	if err != nil {
		slog.WarnContext(ctx, "Stored transaction has invalid type", "id", row.ID, "type", row.Type, "error", err)
	}
	t.Type = typ

	return t
}

func toTransactions(ctx context.Context, rows []TransactionRow) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTransaction(ctx, row))
	}
	return out
}

func yearKey(year int) string {
	return fmt.Sprintf("%04d", year)
}
