package adjust

import (
	"context"
	"errors"
	"testing"

	"budgetbook/internal/core"
	"budgetbook/internal/storage/memory"
)

func TestSyncLog(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStarter()
	ids := seed(t, s, "Groceries", "10", "20", "30")

	edited := []LogRow{
		{ID: ids[0], Category: "Groceries", Amount: d("10")},                       // unchanged
		{ID: ids[1], Category: "Groceries", Amount: d("25"), Description: "fixed"}, // changed
		{Category: "Scholarship", Amount: d("100")},                                // new, income group
		{Category: "Brand New", Amount: d("5")},                                    // new, unknown category
	}
	res, err := NewResolver(s).SyncLog(ctx, LogScope{Date: day}, edited)
	if err != nil {
		t.Fatal(err)
	}
	if res != (SyncResult{Inserted: 2, Updated: 1, Deleted: 1}) {
		t.Fatalf("result = %+v", res)
	}

	if _, err := s.GetTransaction(ctx, ids[2]); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("row %d should be deleted", ids[2])
	}
	got, _ := s.GetTransaction(ctx, ids[1])
	if !got.Amount.Equal(d("25")) || got.Description != "fixed" {
		t.Errorf("updated row = %+v", got)
	}
	_, rows := dayTotal(t, s, "Scholarship")
	if len(rows) != 1 || rows[0].Kind != core.KindIncome {
		t.Errorf("scholarship rows = %+v", rows)
	}
	_, rows = dayTotal(t, s, "Brand New")
	if len(rows) != 1 || rows[0].Kind != core.KindExpense {
		t.Errorf("unknown category rows = %+v", rows)
	}

	// Resubmitting the same state changes nothing.
	current, _ := s.ListTransactions(ctx, day)
	var again []LogRow
	for _, r := range current {
		again = append(again, LogRow{ID: r.ID, Category: r.Category, Amount: r.Amount, Description: r.Description})
	}
	res, err = NewResolver(s).SyncLog(ctx, LogScope{Date: day}, again)
	if err != nil || res.Changed() {
		t.Fatalf("resubmit = %+v, %v", res, err)
	}
}

func TestSyncLogScopedToCategory(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStarter()
	seed(t, s, "Groceries", "10")
	seed(t, s, "Eat Out", "7")

	res, err := NewResolver(s).SyncLog(ctx, LogScope{Date: day, Category: "Eat Out"}, []LogRow{{Amount: d("3")}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Deleted != 1 || res.Inserted != 1 {
		t.Fatalf("result = %+v", res)
	}
	if total, _ := dayTotal(t, s, "Groceries"); !total.Equal(d("10")) {
		t.Fatalf("out-of-scope row touched: %s", total)
	}
	if total, _ := dayTotal(t, s, "Eat Out"); !total.Equal(d("3")) {
		t.Fatalf("Eat Out total = %s", total)
	}
}

func TestSyncLogUnknownIDRollsBack(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStarter()
	seed(t, s, "Groceries", "10")

	_, err := NewResolver(s).SyncLog(ctx, LogScope{Date: day}, []LogRow{
		{Category: "Groceries", Amount: d("1")},
		{ID: 999, Category: "Groceries", Amount: d("1")},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if total, rows := dayTotal(t, s, "Groceries"); len(rows) != 1 || !total.Equal(d("10")) {
		t.Fatalf("batch not rolled back: %d rows, total %s", len(rows), total)
	}
}
