// Package storagetest holds the behaviour every ledger backend must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

// Run exercises a ledger built by newLedger. Each subtest gets a fresh ledger
// seeded with the starter categories.
func Run(t *testing.T, newLedger func(t *testing.T) storage.Ledger) {
	t.Helper()
	ctx := context.Background()
	day := core.NewDate(2025, 3, 14)

	t.Run("starter categories in seed order", func(t *testing.T) {
		l := newLedger(t)
		cats, err := l.ListCategories(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(cats) != len(core.StarterCategories) {
			t.Fatalf("got %d categories, want %d", len(cats), len(core.StarterCategories))
		}
		if cats[0].Name != "Part-time Job" || cats[len(cats)-1].Name != "Credit Card" {
			t.Fatalf("unexpected order: first=%s last=%s", cats[0].Name, cats[len(cats)-1].Name)
		}
	})

	t.Run("ensure category keeps existing group", func(t *testing.T) {
		l := newLedger(t)
		c, err := l.EnsureCategory(ctx, "Rent", core.GroupIncome)
		if err != nil {
			t.Fatal(err)
		}
		if c.Group != core.GroupBill {
			t.Fatalf("Rent group changed to %s", c.Group)
		}
		c, err = l.EnsureCategory(ctx, "Gym", core.GroupExpense)
		if err != nil || c.Group != core.GroupExpense {
			t.Fatalf("EnsureCategory(Gym) = %+v, %v", c, err)
		}
		if _, ok, _ := l.GetCategory(ctx, "Gym"); !ok {
			t.Fatal("Gym not stored")
		}
	})

	t.Run("default budget upsert", func(t *testing.T) {
		l := newLedger(t)
		if _, ok, _ := l.GetDefaultBudget(ctx, "Groceries"); ok {
			t.Fatal("unexpected budget before upsert")
		}
		for _, v := range []string{"300", "250.5"} {
			if err := l.UpsertDefaultBudget(ctx, "Groceries", decimal.RequireFromString(v)); err != nil {
				t.Fatal(err)
			}
		}
		got, ok, err := l.GetDefaultBudget(ctx, "Groceries")
		if err != nil || !ok || !got.Equal(decimal.RequireFromString("250.5")) {
			t.Fatalf("GetDefaultBudget = %s, %v, %v", got, ok, err)
		}
		all, _ := l.DefaultBudgets(ctx)
		if len(all) != 1 {
			t.Fatalf("DefaultBudgets has %d rows, want 1", len(all))
		}
	})

	t.Run("transactions round trip", func(t *testing.T) {
		l := newLedger(t)
		first := mustInsert(t, l, core.Transaction{Date: day, Kind: core.KindExpense, Category: "Groceries", Amount: decimal.NewFromInt(30)})
		second := mustInsert(t, l, core.Transaction{Date: day, Kind: core.KindExpense, Category: "Groceries", Amount: decimal.NewFromInt(20), Description: "milk"})
		mustInsert(t, l, core.Transaction{Date: day.AddDays(1), Kind: core.KindExpense, Category: "Groceries", Amount: decimal.NewFromInt(5)})

		rows, err := l.ListTransactions(ctx, day)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 2 || rows[0].ID != second || rows[1].ID != first {
			t.Fatalf("ListTransactions = %+v", rows)
		}

		sum, _ := l.SumAmount(ctx, "Groceries", day, day)
		if !sum.Equal(decimal.NewFromInt(50)) {
			t.Fatalf("SumAmount = %s", sum)
		}
		sums, _ := l.SumsByCategory(ctx, day, day.AddDays(1))
		if !sums["Groceries"].Equal(decimal.NewFromInt(55)) {
			t.Fatalf("SumsByCategory = %v", sums)
		}

		latest, ok, _ := l.LatestTransactionDate(ctx)
		if !ok || !latest.Equal(day.AddDays(1).Time) {
			t.Fatalf("LatestTransactionDate = %s, %v", latest, ok)
		}

		tx, _ := l.GetTransaction(ctx, first)
		tx.Amount = decimal.NewFromInt(35)
		if err := l.UpdateTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
		if got, _ := l.GetTransaction(ctx, first); !got.Amount.Equal(decimal.NewFromInt(35)) {
			t.Fatalf("updated amount = %s", got.Amount)
		}

		if err := l.DeleteTransaction(ctx, second); err != nil {
			t.Fatal(err)
		}
		if _, err := l.GetTransaction(ctx, second); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := l.DeleteTransaction(ctx, second); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("second delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete day category", func(t *testing.T) {
		l := newLedger(t)
		mustInsert(t, l, core.Transaction{Date: day, Kind: core.KindExpense, Category: "Eat Out", Amount: decimal.NewFromInt(1)})
		mustInsert(t, l, core.Transaction{Date: day, Kind: core.KindExpense, Category: "Eat Out", Amount: decimal.NewFromInt(2)})
		mustInsert(t, l, core.Transaction{Date: day, Kind: core.KindExpense, Category: "Shopping", Amount: decimal.NewFromInt(3)})

		n, err := l.DeleteDayCategory(ctx, day, "Eat Out")
		if err != nil || n != 2 {
			t.Fatalf("DeleteDayCategory = %d, %v", n, err)
		}
		rows, _ := l.ListTransactions(ctx, day)
		if len(rows) != 1 || rows[0].Category != "Shopping" {
			t.Fatalf("remaining rows = %+v", rows)
		}
	})

	t.Run("failed batch rolls back", func(t *testing.T) {
		l := newLedger(t)
		boom := errors.New("boom")
		err := l.WithTx(ctx, func(tx storage.Tx) error {
			if _, err := tx.InsertTransaction(ctx, core.Transaction{Date: day, Kind: core.KindExpense, Category: "Rent", Amount: decimal.NewFromInt(900)}); err != nil {
				return err
			}
			if err := tx.UpsertDefaultBudget(ctx, "Rent", decimal.NewFromInt(900)); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx error = %v", err)
		}
		if rows, _ := l.ListTransactions(ctx, day); len(rows) != 0 {
			t.Fatalf("rolled back batch left %d rows", len(rows))
		}
		if _, ok, _ := l.GetDefaultBudget(ctx, "Rent"); ok {
			t.Fatal("rolled back batch left a budget")
		}
	})

	t.Run("committed batch is visible", func(t *testing.T) {
		l := newLedger(t)
		err := l.WithTx(ctx, func(tx storage.Tx) error {
			_, err := tx.InsertTransaction(ctx, core.Transaction{Date: day, Kind: core.KindIncome, Category: "Scholarship", Amount: decimal.NewFromInt(500)})
			return err
		})
		if err != nil {
			t.Fatal(err)
		}
		if rows, _ := l.ListTransactions(ctx, day); len(rows) != 1 || rows[0].Kind != core.KindIncome {
			t.Fatalf("rows after commit = %+v", rows)
		}
	})

	t.Run("rejects invalid rows", func(t *testing.T) {
		l := newLedger(t)
		_, err := l.InsertTransaction(ctx, core.Transaction{Date: day, Kind: core.KindExpense, Category: "Rent", Amount: decimal.NewFromInt(-1)})
		if !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
		adj := core.Transaction{Date: day, Kind: core.KindExpense, Category: "Rent", Amount: decimal.NewFromInt(-1), Description: core.AdjustmentMarker}
		if _, err := l.InsertTransaction(ctx, adj); err != nil {
			t.Fatalf("negative adjustment rejected: %v", err)
		}
	})
}

func mustInsert(t *testing.T, l storage.Ledger, tx core.Transaction) int64 {
	t.Helper()
	id, err := l.InsertTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("insert %+v: %v", tx, err)
	}
	return id
}
