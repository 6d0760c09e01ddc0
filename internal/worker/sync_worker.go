package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/metrics"
	"ledger/internal/sheets"
)

// TransactionSource is the read side the worker rebuilds the mirror from.
type TransactionSource interface {
	ListForYear(ctx context.Context, year int) ([]core.Transaction, error)
}

// EventConsumer delivers transaction events until ctx is cancelled.
type EventConsumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.EventHandler) error
}

// SyncWorker keeps a spreadsheet mirror in step with the ledger.
type SyncWorker struct {
	source  TransactionSource
	mirror  sheets.TransactionMirror
	metrics metrics.Collector
	now     func() time.Time
}

func NewSyncWorker(source TransactionSource, mirror sheets.TransactionMirror, m metrics.Collector) *SyncWorker {
	if m == nil {
		m = metrics.NoOpCollector{}
	}
	return &SyncWorker{
		source:  source,
		mirror:  mirror,
		metrics: m,
		now:     time.Now,
	}
}

// HandleEvent applies a single transaction event to the mirror.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", ev.Action,
		"id", ev.ID)

	start := w.now()
	var err error
	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		if ev.Transaction == nil {
			return fmt.Errorf("%s event %d without transaction", ev.Action, ev.ID)
		}
		err = w.mirror.Upsert(ctx, *ev.Transaction)
	case amqp.ActionDeleted:
		err = w.mirror.Remove(ctx, ev.ID)
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}
	w.metrics.RecordMirrorSync(string(ev.Action), err == nil, w.now().Sub(start))
	if err != nil {
		return fmt.Errorf("mirror %s %d: %w", ev.Action, ev.ID, err)
	}

	slog.InfoContext(ctx, "Mirrored transaction event",
		"action", ev.Action,
		"id", ev.ID)
	return nil
}

// Resync rewrites the mirror from the full ledger in chronological order.
// It recovers from events lost while the worker was down.
func (w *SyncWorker) Resync(ctx context.Context) error {
	start := w.now()
	txs, err := w.source.ListForYear(ctx, 0)
	if err != nil {
		w.metrics.RecordMirrorSync("resync", false, w.now().Sub(start))
		return fmt.Errorf("list transactions: %w", err)
	}
	err = w.mirror.ReplaceAll(ctx, txs)
	w.metrics.RecordMirrorSync("resync", err == nil, w.now().Sub(start))
	if err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	slog.InfoContext(ctx, "Mirror resync completed", "rows", len(txs))
	return nil
}

// Run resyncs once, then consumes events and resyncs every interval until ctx
// is cancelled. A nil consumer runs the periodic resync alone; a non-positive
// interval disables it.
func (w *SyncWorker) Run(ctx context.Context, consumer EventConsumer, interval time.Duration) error {
	if err := w.Resync(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup resync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeTransactionEvents(gctx, w.HandleEvent)
		})
	}
	if interval > 0 {
		g.Go(func() error {
			return w.resyncLoop(gctx, interval)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *SyncWorker) resyncLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic resync failed", "error", err)
			}
		}
	}
}
