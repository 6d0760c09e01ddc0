package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/storage"
)

const (
	defaultSummaryCacheSize = 100
	defaultSummaryCacheTTL  = 5 * time.Minute
	summaryCacheName        = "summary"
)

// EventPublisher announces persisted changes. Failures never undo a write.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev amqp.TransactionEvent) error
}

// LedgerService orchestrates validation, persistence, events and aggregation.
type LedgerService struct {
	repo    storage.Repository
	events  EventPublisher
	metrics metrics.Collector
	logger  *log.StructuredLogger

	summaries  *cache.LRUCache[core.Summary]
	loads      singleflight.Group
	cacheMu    sync.Mutex // orders storeSummary against invalidateSummaries
	generation atomic.Uint64
}

type Option func(*LedgerService)

func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.events = p }
}

func WithMetrics(m metrics.Collector) Option {
	return func(s *LedgerService) { s.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = log.NewStructuredLogger(l) }
}

// WithSummaryCache sizes the summary cache. Non-positive values keep the defaults.
func WithSummaryCache(size int, ttl time.Duration) Option {
	return func(s *LedgerService) {
		if size <= 0 {
			size = defaultSummaryCacheSize
		}
		if ttl <= 0 {
			ttl = defaultSummaryCacheTTL
		}
		s.summaries = cache.NewLRUCache[core.Summary](size, ttl)
	}
}

func NewLedgerService(repo storage.Repository, opts ...Option) *LedgerService {
	s := &LedgerService{
		repo:      repo,
		metrics:   metrics.NoOpCollector{},
		summaries: cache.NewLRUCache[core.Summary](defaultSummaryCacheSize, defaultSummaryCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewStructuredLogger(log.New(log.Config{
			Handler:   slog.Default().Handler(),
			Component: log.ComponentLedger,
		}))
	}
	return s
}

// SummaryCache exposes the cache so it can be registered for expiry sweeps.
func (s *LedgerService) SummaryCache() cache.Cleaner {
	return s.summaries
}

// Create validates raw, stores the transaction and publishes a created event.
func (s *LedgerService) Create(ctx context.Context, raw core.Record) (core.Transaction, error) {
	t, err := core.BuildTransaction(raw)
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.afterWrite(ctx, log.OpCreate, amqp.ActionCreated, created)
	return created, nil
}

func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns transactions newest first; an open range returns everything.
func (s *LedgerService) List(ctx context.Context, r core.DateRange) ([]core.Transaction, error) {
	if r.IsOpen() {
		return s.repo.List(ctx)
	}
	return s.repo.ListRange(ctx, r)
}

// Update applies the present fields of raw to transaction id.
func (s *LedgerService) Update(ctx context.Context, id int64, raw core.Record) (core.Transaction, error) {
	if err := core.ValidateForUpdate(id, raw).Err(); err != nil {
		return core.Transaction{}, err
	}
	patch, err := core.BuildPatch(raw)
	if err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.afterWrite(ctx, log.OpUpdate, amqp.ActionUpdated, updated)
	return updated, nil
}

func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.afterWrite(ctx, log.OpDelete, amqp.ActionDeleted, core.Transaction{ID: id})
	return nil
}

// MonthlyTotals groups the year's transactions by month in chronological
// order. Year 0 covers every year.
func (s *LedgerService) MonthlyTotals(ctx context.Context, year int) ([]core.MonthlyTotals, error) {
	txs, err := s.repo.ListForYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return guard(func() []core.MonthlyTotals { return core.MonthlyBreakdown(txs) })
}

// Summary totals the transactions matching f. Results are cached until the
// next write; concurrent loads for the same filter share one query.
func (s *LedgerService) Summary(ctx context.Context, f core.PeriodFilter) (core.Summary, error) {
	key := f.Key()
	if sum, ok := s.summaries.Get(key); ok {
		s.metrics.RecordCacheLookup(summaryCacheName, true)
		return sum, nil
	}
	s.metrics.RecordCacheLookup(summaryCacheName, false)

	gen := s.generation.Load()
	v, err, _ := s.loads.Do(fmt.Sprintf("%d:%s", gen, key), func() (any, error) {
		txs, err := s.repo.ListForYear(ctx, f.Year)
		if err != nil {
			return core.Summary{}, err
		}
		sum, err := guard(func() core.Summary { return core.Summarize(txs, f) })
		if err != nil {
			return core.Summary{}, err
		}
		s.storeSummary(gen, key, sum)
		return sum, nil
	})
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	return v.(core.Summary), nil
}

// guard converts a panic inside aggregation into a *core.InternalError.
func guard[T any](fn func() T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &core.InternalError{Err: fmt.Errorf("aggregation panic: %v", r)}
		}
	}()
	return fn(), nil
}

// storeSummary caches sum only if no write happened since gen was read.
func (s *LedgerService) storeSummary(gen uint64, key string, sum core.Summary) bool {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	s.summaries.Set(key, sum)
	return true
}

func (s *LedgerService) invalidateSummaries() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation.Add(1)
	s.summaries.Clear()
}

func (s *LedgerService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *LedgerService) afterWrite(ctx context.Context, op string, action amqp.Action, t core.Transaction) {
	s.invalidateSummaries()
	s.metrics.RecordTransactionWritten(op)
	if action == amqp.ActionDeleted {
		s.logger.LogTransactionWritten(ctx, op, t.ID, "", "", "")
	} else {
		s.logger.LogTransactionWritten(ctx, op, t.ID, t.Date.String(), t.Type.String(), t.Value.String())
	}
	s.publish(ctx, amqp.NewTransactionEvent(action, t))
}

func (s *LedgerService) publish(ctx context.Context, ev amqp.TransactionEvent) {
	if s.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "action", ev.Action, "id", ev.ID)
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.LogError(ctx, "Failed to publish transaction event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithTransaction(ev.ID, "", "", ""))
	}
}
