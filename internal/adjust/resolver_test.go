package adjust

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/storage"
	"budgetbook/internal/storage/memory"
)

var day = core.NewDate(2025, 3, 14)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(t *testing.T, s *memory.Store, category string, amounts ...string) []int64 {
	t.Helper()
	var ids []int64
	for _, a := range amounts {
		id, err := s.InsertTransaction(context.Background(), core.Transaction{
			Date: day, Kind: core.KindExpense, Category: category, Amount: d(a),
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	return ids
}

func dayTotal(t *testing.T, s *memory.Store, category string) (decimal.Decimal, []core.Transaction) {
	t.Helper()
	rows, err := s.ListTransactions(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}
	sum := decimal.Zero
	var mine []core.Transaction
	for _, r := range rows {
		if r.Category == category {
			sum = sum.Add(r.Amount)
			mine = append(mine, r)
		}
	}
	return sum, mine
}

func adjustments(rows []core.Transaction) int {
	n := 0
	for _, r := range rows {
		if r.IsAdjustment() {
			n++
		}
	}
	return n
}

func TestSetBudgetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, mode := range period.Modes {
		t.Run(string(mode), func(t *testing.T) {
			s := memory.NewStarter()
			r := NewResolver(s)
			ratio := period.Ratio(mode)
			if err := r.SetBudget(ctx, "Groceries", d("9.86"), ratio); err != nil {
				t.Fatal(err)
			}
			monthly, ok, _ := s.GetDefaultBudget(ctx, "Groceries")
			if !ok {
				t.Fatal("budget not stored")
			}
			back := monthly.Mul(decimal.NewFromFloat(ratio))
			if !core.NearlyEqual(back, d("9.86")) {
				t.Fatalf("round trip = %s, want 9.86", back)
			}
			// Idempotent: re-applying stores the same monthly value.
			if err := r.SetBudget(ctx, "Groceries", d("9.86"), ratio); err != nil {
				t.Fatal(err)
			}
			again, _, _ := s.GetDefaultBudget(ctx, "Groceries")
			if !again.Equal(monthly) {
				t.Fatalf("second apply stored %s, first %s", again, monthly)
			}
		})
	}
}

func TestSetBudgetZeroRatioTakesMonthly(t *testing.T) {
	s := memory.NewStarter()
	if err := NewResolver(s).SetBudget(context.Background(), "Rent", d("900"), 0); err != nil {
		t.Fatal(err)
	}
	got, _, _ := s.GetDefaultBudget(context.Background(), "Rent")
	if !got.Equal(d("900")) {
		t.Fatalf("stored %s, want 900", got)
	}
}

func TestSetBudgetsRollsBackOnError(t *testing.T) {
	s := memory.NewStarter()
	err := NewResolver(s).SetBudgets(context.Background(), map[string]decimal.Decimal{
		"Groceries": d("300"),
		"Rent":      d("-1"),
	}, 1.0)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, ok, _ := s.GetDefaultBudget(context.Background(), "Groceries"); ok {
		t.Fatal("partial batch committed")
	}
}

func TestRetargetActual(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name        string
		existing    []string
		target      string
		want        Outcome
		wantRows    int
		adjustments int
	}{
		{"no rows inserts target", nil, "45", OutcomeInserted, 1, 1},
		{"single row updated in place", []string{"50"}, "80", OutcomeUpdated, 1, 0},
		{"several rows add one adjustment", []string{"30", "20"}, "100", OutcomeAdjustmentAdded, 3, 1},
		{"lowering adds negative adjustment", []string{"30", "20"}, "10", OutcomeAdjustmentAdded, 3, 1},
		{"within epsilon is a no-op", []string{"30", "20"}, "50.0005", OutcomeNoop, 2, 0},
		{"zero target with no rows is a no-op", nil, "0", OutcomeNoop, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.NewStarter()
			seed(t, s, "Groceries", tt.existing...)
			got, err := NewResolver(s).RetargetActual(ctx, day, "Groceries", d(tt.target))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("outcome = %s, want %s", got, tt.want)
			}
			total, rows := dayTotal(t, s, "Groceries")
			if len(rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(rows), tt.wantRows)
			}
			if adjustments(rows) != tt.adjustments {
				t.Errorf("adjustment rows = %d, want %d", adjustments(rows), tt.adjustments)
			}
			if tt.want != OutcomeNoop && !core.NearlyEqual(total, d(tt.target)) {
				t.Errorf("total = %s, want %s", total, tt.target)
			}
		})
	}
}

func TestRetargetKeepsSingleAdjustmentRow(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStarter()
	seed(t, s, "Eat Out", "30", "20")
	r := NewResolver(s)

	for i, target := range []string{"100", "70", "120", "55"} {
		out, err := r.RetargetActual(ctx, day, "Eat Out", d(target))
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && out != OutcomeAdjustmentMoved {
			t.Errorf("retarget %d outcome = %s, want %s", i, out, OutcomeAdjustmentMoved)
		}
		total, rows := dayTotal(t, s, "Eat Out")
		if !core.NearlyEqual(total, d(target)) {
			t.Fatalf("total after retarget to %s = %s", target, total)
		}
		if adjustments(rows) != 1 {
			t.Fatalf("adjustment rows = %d, want 1", adjustments(rows))
		}
	}

	// Same target twice is idempotent.
	out, _ := r.RetargetActual(ctx, day, "Eat Out", d("55"))
	if out != OutcomeNoop {
		t.Fatalf("repeat outcome = %s", out)
	}
}

func TestRetargetKindFromGroup(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStarter()
	r := NewResolver(s)
	if _, err := r.RetargetActual(ctx, day, "Scholarship", d("200")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RetargetActual(ctx, day, "Mystery", d("5")); err != nil {
		t.Fatal(err)
	}
	_, rows := dayTotal(t, s, "Scholarship")
	if rows[0].Kind != core.KindIncome {
		t.Errorf("Scholarship kind = %s", rows[0].Kind)
	}
	_, rows = dayTotal(t, s, "Mystery")
	if rows[0].Kind != core.KindExpense {
		t.Errorf("unknown category kind = %s", rows[0].Kind)
	}
}

func TestApplyDailyEdits(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStarter()
	seed(t, s, "Groceries", "50")
	res, err := NewResolver(s).ApplyDailyEdits(ctx, day, DailyEdits{
		Budgets: map[string]decimal.Decimal{"Groceries": d("10")},
		Actuals: map[string]decimal.Decimal{"Groceries": d("80"), "Eat Out": d("0")},
	}, period.Ratio(period.ModeDaily))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed() || res.Budgets != 1 || res.Outcomes["Groceries"] != OutcomeUpdated || res.Outcomes["Eat Out"] != OutcomeNoop {
		t.Fatalf("result = %+v", res)
	}
	monthly, _, _ := s.GetDefaultBudget(ctx, "Groceries")
	if !core.NearlyEqual(monthly, d("304.4")) {
		t.Fatalf("monthly budget = %s, want 304.4", monthly)
	}
}

func TestClearDay(t *testing.T) {
	s := memory.NewStarter()
	seed(t, s, "Shopping", "1", "2")
	seed(t, s, "Groceries", "3")
	n, err := NewResolver(s).ClearDay(context.Background(), day, "Shopping")
	if err != nil || n != 2 {
		t.Fatalf("ClearDay = %d, %v", n, err)
	}
	if total, _ := dayTotal(t, s, "Groceries"); !total.Equal(d("3")) {
		t.Fatalf("other category touched: %s", total)
	}
}

type failingStore struct{}

func (failingStore) WithTx(context.Context, func(storage.Tx) error) error {
	return errors.New("store down")
}

func TestResolverPropagatesStoreErrors(t *testing.T) {
	r := NewResolver(failingStore{})
	if _, err := r.RetargetActual(context.Background(), day, "Rent", d("1")); err == nil {
		t.Fatal("expected error")
	}
}
