package memory

import (
	"context"
	"sync"

	"ledger/internal/core"
	ports "ledger/internal/sheets"
)

// Store is an in-process mirror used when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var (
	_ ports.TransactionMirror = (*Store)(nil)
	_ ports.MirrorReader      = (*Store)(nil)
)

func New(seed ...core.Transaction) *Store {
	return &Store{rows: append([]core.Transaction(nil), seed...)}
}

// Upsert replaces the row with the same ID or appends a new one.
func (s *Store) Upsert(ctx context.Context, t core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(t.ID); i >= 0 {
		s.rows[i] = t
		return nil
	}
	s.rows = append(s.rows, t)
	return nil
}

func (s *Store) Remove(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
	return nil
}

func (s *Store) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]core.Transaction(nil), txs...)
	return nil
}

// Snapshot returns a copy of the mirrored rows in row order.
func (s *Store) Snapshot(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...), nil
}

func (s *Store) indexOf(id int64) int {
	for i, t := range s.rows {
		if t.ID == id {
			return i
		}
	}
	return -1
}
