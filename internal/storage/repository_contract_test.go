package storage

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
)

func newTx(date, desc, value string, typ core.TransactionType) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{Date: d, Description: desc, Value: core.NewAmount(value), Type: typ}
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// testRepository runs the behaviour every Repository implementation must share.
func testRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	empty, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty store, got %d", len(empty))
	}

	seed := []core.Transaction{
		newTx("2024-01-15", "Salary", "2500.00", core.Credit),
		newTx("2024-01-20", "Groceries", "84.35", core.Debit),
		newTx("2023-12-31", "Bonus", "300", core.Credit),
		newTx("2024-01-20", "Dinner", "45.10", core.Debit),
	}
	created := make([]core.Transaction, len(seed))
	for i, tx := range seed {
		c, err := repo.Create(ctx, tx)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if c.ID <= 0 {
			t.Fatalf("create %d: id not assigned", i)
		}
		created[i] = c
	}

	t.Run("get by id round trip", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created[1].ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Description != "Groceries" || got.Type != core.Debit || got.Date.String() != "2024-01-20" {
			t.Fatalf("unexpected row %+v", got)
		}
		if !got.Value.Equal(core.NewAmount("84.35")) {
			t.Fatalf("value = %s", got.Value)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if _, err := repo.GetByID(ctx, 99999); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []int64{created[3].ID, created[1].ID, created[0].ID, created[2].ID}
		if !equalIDs(ids(all), want) {
			t.Fatalf("order = %v, want %v", ids(all), want)
		}
	})

	t.Run("list range inclusive", func(t *testing.T) {
		r := core.DateRange{Start: core.NewDate(2024, 1, 15).Ptr(), End: core.NewDate(2024, 1, 20).Ptr()}
		got, err := repo.ListRange(ctx, r)
		if err != nil {
			t.Fatalf("range: %v", err)
		}
		want := []int64{created[3].ID, created[1].ID, created[0].ID}
		if !equalIDs(ids(got), want) {
			t.Fatalf("range = %v, want %v", ids(got), want)
		}

		open, err := repo.ListRange(ctx, core.DateRange{End: core.NewDate(2023, 12, 31).Ptr()})
		if err != nil {
			t.Fatalf("open range: %v", err)
		}
		if !equalIDs(ids(open), []int64{created[2].ID}) {
			t.Fatalf("open range = %v", ids(open))
		}
	})

	t.Run("list for year chronological", func(t *testing.T) {
		got, err := repo.ListForYear(ctx, 2024)
		if err != nil {
			t.Fatalf("year: %v", err)
		}
		want := []int64{created[0].ID, created[1].ID, created[3].ID}
		if !equalIDs(ids(got), want) {
			t.Fatalf("year = %v, want %v", ids(got), want)
		}

		all, err := repo.ListForYear(ctx, 0)
		if err != nil {
			t.Fatalf("all years: %v", err)
		}
		if len(all) != 4 || all[0].ID != created[2].ID {
			t.Fatalf("all years = %v", ids(all))
		}
	})

	t.Run("partial update", func(t *testing.T) {
		value := core.NewAmount("90")
		updated, err := repo.Update(ctx, created[1].ID, core.Patch{Value: &value})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !updated.Value.Equal(value) {
			t.Fatalf("value = %s", updated.Value)
		}
		if updated.Description != "Groceries" || updated.Type != core.Debit || updated.Date.String() != "2024-01-20" {
			t.Fatalf("untouched fields changed: %+v", updated)
		}

		got, _ := repo.GetByID(ctx, created[1].ID)
		if !got.Value.Equal(value) {
			t.Fatalf("update not persisted: %s", got.Value)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		desc := "x"
		if _, err := repo.Update(ctx, 99999, core.Patch{Description: &desc}); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(ctx, created[2].ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.GetByID(ctx, created[2].ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(ctx, created[2].ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("second delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("earliest calendar date round trip", func(t *testing.T) {
		c, err := repo.Create(ctx, newTx("0001-01-01", "Epoch", "10", core.Credit))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetByID(ctx, c.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Date.IsEmpty() || got.Date.String() != "0001-01-01" {
			t.Fatalf("date = %q (empty %v)", got.Date.String(), got.Date.IsEmpty())
		}

		first, err := repo.ListRange(ctx, core.DateRange{End: core.NewDate(1, 1, 1).Ptr()})
		if err != nil {
			t.Fatalf("range: %v", err)
		}
		if !equalIDs(ids(first), []int64{c.ID}) {
			t.Fatalf("range = %v, want [%d]", ids(first), c.ID)
		}

		year, err := repo.ListForYear(ctx, 1)
		if err != nil {
			t.Fatalf("year: %v", err)
		}
		if !equalIDs(ids(year), []int64{c.ID}) {
			t.Fatalf("year 1 = %v, want [%d]", ids(year), c.ID)
		}
	})
}
