package storage

import (
	"context"
	"sort"
	"sync"

	"ledger/internal/core"
)

// MemoryRepository keeps transactions in process memory. It is used for
// development and tests and loses everything on restart.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]core.Transaction
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		items:  make(map[int64]core.Transaction),
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) Ping(ctx context.Context) error { return ctx.Err() }

func (r *MemoryRepository) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.nextID
	r.nextID++
	r.items[t.ID] = t
	return t, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]core.Transaction, error) {
	return r.ListRange(ctx, core.DateRange{})
}

func (r *MemoryRepository) ListRange(_ context.Context, dr core.DateRange) ([]core.Transaction, error) {
	out := r.collect(func(t core.Transaction) bool { return dr.Contains(t.Date) })
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i], out[j]) })
	return out, nil
}

func (r *MemoryRepository) ListForYear(_ context.Context, year int) ([]core.Transaction, error) {
	out := r.collect(func(t core.Transaction) bool { return year == 0 || t.Date.Year() == year })
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[j], out[i]) })
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id int64, p core.Patch) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	t = t.Apply(p)
	r.items[id] = t
	return t, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) collect(keep func(core.Transaction) bool) []core.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Transaction, 0, len(r.items))
	for _, t := range r.items {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// newerFirst orders by date DESC, then id DESC.
func newerFirst(a, b core.Transaction) bool {
	if !a.Date.Equal(b.Date.Time) {
		return a.Date.After(b.Date.Time)
	}
	return a.ID > b.ID
}
