package sheets

import (
	"context"

	"ledger/internal/core"
)

// Ports for outbound mirror adapters.
type (
	// TransactionMirror keeps a copy of the ledger rows outside the database.
	TransactionMirror interface {
		// Upsert writes t, replacing an existing row with the same ID.
		Upsert(ctx context.Context, t core.Transaction) error
		// Remove drops the row for id. Removing an absent id is not an error.
		Remove(ctx context.Context, id int64) error
		// ReplaceAll rewrites the whole mirror with txs.
		ReplaceAll(ctx context.Context, txs []core.Transaction) error
	}

	// MirrorReader lists what is currently mirrored, in row order.
	MirrorReader interface {
		Snapshot(ctx context.Context) ([]core.Transaction, error)
	}
)
