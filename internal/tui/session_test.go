package tui

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/services"
	"budgetbook/internal/storage/memory"
)

var testDay = core.NewDate(2025, 3, 14)

func newTestService(t *testing.T) (*services.LedgerService, *memory.Store) {
	t.Helper()
	store := memory.NewStarter()
	return services.NewLedgerService(store, nil), store
}

func TestSessionCachesByParams(t *testing.T) {
	svc, _ := newTestService(t)
	s := NewSession(svc)
	ctx := context.Background()
	p := Params{Mode: period.ModeDaily, Anchor: testDay}

	if _, err := s.View(ctx, p); err != nil {
		t.Fatal(err)
	}
	if _, err := s.View(ctx, Params{Mode: period.ModeDaily, Anchor: core.NewDate(2025, 3, 14)}); err != nil {
		t.Fatal(err)
	}
	if s.Computes() != 1 {
		t.Errorf("equal params should reuse the view, computes = %d", s.Computes())
	}

	v, err := s.View(ctx, Params{Mode: period.ModeWeekly, Anchor: testDay})
	if err != nil {
		t.Fatal(err)
	}
	if s.Computes() != 2 {
		t.Errorf("a mode change should recompute, computes = %d", s.Computes())
	}
	if v.Period.Title() != "Week of 2025-03-10" {
		t.Errorf("Period = %s", v.Period.Title())
	}
	if !v.Day.Period.Start.Equal(testDay.Time) {
		t.Errorf("day report should stay on the anchor, got %s", v.Day.Period.Start)
	}
}

func TestSessionRecomputesAfterMutation(t *testing.T) {
	svc, _ := newTestService(t)
	s := NewSession(svc)
	ctx := context.Background()
	p := Params{Mode: period.ModeDaily, Anchor: testDay}

	before, err := s.View(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if !before.Day.Summary.OutflowActual.IsZero() {
		t.Fatalf("unexpected spend %s", before.Day.Summary.OutflowActual)
	}

	_, err = svc.AddTransaction(ctx, services.NewTransaction{
		Date: testDay, Group: core.GroupExpense, Category: "Groceries", Amount: decimal.NewFromInt(40),
	})
	if err != nil {
		t.Fatal(err)
	}

	after, err := s.View(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if s.Computes() != 2 {
		t.Errorf("a mutation should invalidate the view, computes = %d", s.Computes())
	}
	if !after.Day.Summary.OutflowActual.Equal(decimal.NewFromInt(40)) {
		t.Errorf("spend = %s, want 40", after.Day.Summary.OutflowActual)
	}
	if len(after.Transactions) != 1 {
		t.Errorf("transactions = %d", len(after.Transactions))
	}
}

func TestParamsShift(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		n    int
		want core.Date
	}{
		{"next day", Params{period.ModeDaily, testDay}, 1, core.NewDate(2025, 3, 15)},
		{"previous week", Params{period.ModeWeekly, testDay}, -1, core.NewDate(2025, 3, 7)},
		{"next month from the 31st", Params{period.ModeMonthly, core.NewDate(2025, 1, 31)}, 1, core.NewDate(2025, 2, 1)},
		{"previous month over new year", Params{period.ModeMonthly, core.NewDate(2025, 1, 15)}, -1, core.NewDate(2024, 12, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.Shift(tt.n)
			if !got.Anchor.Equal(tt.want.Time) || got.Mode != tt.p.Mode {
				t.Errorf("Shift(%d) = %s %s, want %s", tt.n, got.Mode, got.Anchor, tt.want)
			}
		})
	}
}

func TestBudgetLinesOrder(t *testing.T) {
	v := View{
		Categories: []core.Category{
			{Name: "Rent", Group: core.GroupBill},
			{Name: "Eat Out", Group: core.GroupExpense},
			{Name: "Scholarship", Group: core.GroupIncome},
			{Name: "Internet", Group: core.GroupBill},
		},
		Budgets: map[string]decimal.Decimal{"Rent": decimal.NewFromInt(900)},
	}
	lines := v.BudgetLines()
	want := []string{"Scholarship", "Internet", "Rent", "Eat Out"}
	for i, name := range want {
		if lines[i].Category != name {
			t.Fatalf("lines[%d] = %s, want %s", i, lines[i].Category, name)
		}
	}
	if !lines[2].Amount.Equal(decimal.NewFromInt(900)) || !lines[3].Amount.IsZero() {
		t.Errorf("amounts = %s, %s", lines[2].Amount, lines[3].Amount)
	}
}
