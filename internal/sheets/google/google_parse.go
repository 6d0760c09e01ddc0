package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// Column order: ID, Date, Description, Value, Type.
func header() []any {
	return []any{"ID", "Date", "Description", "Value", "Type"}
}

func toRow(t core.Transaction) []any {
	return []any{t.ID, t.Date.String(), t.Description, t.Value.String(), t.Type.String()}
}

// findRow returns the 1-based sheet row holding id, or 0.
func findRow(rows [][]any, id int64) int {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if got, ok := parseID(row[0]); ok && got == id {
			return i + 1
		}
	}
	return 0
}

// parseRows converts a values matrix into transactions. The header and rows
// without a usable id, date or type are skipped; unreadable values count as zero.
func parseRows(ctx context.Context, values [][]any) []core.Transaction {
	out := make([]core.Transaction, 0, len(values))
	for i, row := range values {
		id, ok := parseID(cell(row, 0))
		if !ok {
			if i > 0 {
				slog.DebugContext(ctx, "Skipping row without id", "row", i+1)
			}
			continue
		}
		date, err := core.ParseDate(strings.TrimSpace(fmt.Sprint(cell(row, 1))))
		if err != nil {
			slog.WarnContext(ctx, "Skipping mirrored row with invalid date", "row", i+1, "id", id)
			continue
		}
		typ, err := core.ParseTransactionType(strings.TrimSpace(fmt.Sprint(cell(row, 4))))
		if err != nil {
			slog.WarnContext(ctx, "Skipping mirrored row with invalid type", "row", i+1, "id", id)
			continue
		}
		out = append(out, core.Transaction{
			ID:          id,
			Date:        date,
			Description: strings.TrimSpace(fmt.Sprint(cell(row, 2))),
			Value:       core.SafeAmount(cell(row, 3)),
			Type:        typ,
		})
	}
	return out
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseID(v any) (int64, bool) {
	var (
		id  int64
		err error
	)
	switch x := v.(type) {
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		id = int64(x)
	case int64:
		id = x
	case int:
		id = int64(x)
	case json.Number:
		id, err = x.Int64()
	case string:
		id, err = strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	default:
		return 0, false
	}
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func sameTransactions(a, b []core.Transaction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Type != y.Type || x.Description != y.Description ||
			!x.Date.Equal(y.Date.Time) || !x.Value.Equal(y.Value) {
			return false
		}
	}
	return true
}
