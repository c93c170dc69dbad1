// Package adjust turns edited budget and actual values back into ledger writes.
//
// Every exported operation runs inside one store transaction: a failure part
// way through leaves the ledger untouched.
package adjust

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

// Store is the part of the ledger the resolver needs.
type Store interface {
	WithTx(ctx context.Context, fn func(storage.Tx) error) error
}

// Outcome describes what RetargetActual wrote.
type Outcome string

const (
	OutcomeNoop            Outcome = "noop"
	OutcomeInserted        Outcome = "inserted"
	OutcomeUpdated         Outcome = "updated"
	OutcomeAdjustmentMoved Outcome = "adjustment_updated"
	OutcomeAdjustmentAdded Outcome = "adjustment_added"
)

// Resolver applies budget and actual edits to a Store.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// MonthlyBudget converts a value expressed for a period of the given ratio
// into its monthly-normalized form. A zero ratio means value is already monthly.
func MonthlyBudget(value decimal.Decimal, ratio float64) decimal.Decimal {
	if ratio == 0 {
		return value
	}
	return value.DivRound(decimal.NewFromFloat(ratio), 8)
}

// SetBudget stores value, expressed at ratio, as the category's DEFAULT budget.
func (r *Resolver) SetBudget(ctx context.Context, category string, value decimal.Decimal, ratio float64) error {
	return r.store.WithTx(ctx, func(tx storage.Tx) error {
		return setBudget(ctx, tx, category, value, ratio)
	})
}

// SetBudgets applies several budget edits expressed at the same ratio.
func (r *Resolver) SetBudgets(ctx context.Context, values map[string]decimal.Decimal, ratio float64) error {
	return r.store.WithTx(ctx, func(tx storage.Tx) error {
		for _, category := range sortedKeys(values) {
			if err := setBudget(ctx, tx, category, values[category], ratio); err != nil {
				return err
			}
		}
		return nil
	})
}

func setBudget(ctx context.Context, tx storage.Tx, category string, value decimal.Decimal, ratio float64) error {
	if value.IsNegative() {
		return fmt.Errorf("budget for %s: %w", category, core.ErrInvalidAmount)
	}
	monthly := MonthlyBudget(value, ratio)
	if err := tx.UpsertDefaultBudget(ctx, category, monthly); err != nil {
		return fmt.Errorf("set budget %s: %w", category, err)
	}
	slog.DebugContext(ctx, "Budget set", "category", category, "monthly", monthly.String(), "ratio", ratio)
	return nil
}

// RetargetActual makes the day's total for category equal newTotal with the
// smallest edit: a no-op within epsilon, a first row, an in-place update of a
// lone row, or a single adjustment row absorbing the difference.
func (r *Resolver) RetargetActual(ctx context.Context, date core.Date, category string, newTotal decimal.Decimal) (Outcome, error) {
	var out Outcome
	err := r.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		out, err = retarget(ctx, tx, date, category, newTotal)
		return err
	})
	return out, err
}

func retarget(ctx context.Context, tx storage.Tx, date core.Date, category string, newTotal decimal.Decimal) (Outcome, error) {
	if newTotal.IsNegative() {
		return OutcomeNoop, fmt.Errorf("actual for %s: %w", category, core.ErrInvalidAmount)
	}
	rows, err := dayRows(ctx, tx, date, category)
	if err != nil {
		return OutcomeNoop, err
	}
	current := decimal.Zero
	for _, row := range rows {
		current = current.Add(row.Amount)
	}
	delta := newTotal.Sub(current)
	if delta.Abs().LessThanOrEqual(core.Epsilon) {
		return OutcomeNoop, nil
	}

	log := slog.With("date", date.String(), "category", category, "delta", delta.String())

	switch len(rows) {
	case 0:
		kind, err := kindOf(ctx, tx, category)
		if err != nil {
			return OutcomeNoop, err
		}
		_, err = tx.InsertTransaction(ctx, core.Transaction{
			Date:        date,
			Kind:        kind,
			Category:    category,
			Amount:      newTotal,
			Description: core.AdjustmentMarker,
		})
		if err != nil {
			return OutcomeNoop, fmt.Errorf("insert actual: %w", err)
		}
		log.DebugContext(ctx, "Actual inserted")
		return OutcomeInserted, nil

	case 1:
		row := rows[0]
		row.Amount = newTotal
		if err := tx.UpdateTransaction(ctx, row); err != nil {
			return OutcomeNoop, fmt.Errorf("update actual: %w", err)
		}
		log.DebugContext(ctx, "Actual updated in place", "id", row.ID)
		return OutcomeUpdated, nil
	}

	for _, row := range rows {
		if !row.IsAdjustment() {
			continue
		}
		row.Amount = newTotal.Sub(current.Sub(row.Amount))
		if err := tx.UpdateTransaction(ctx, row); err != nil {
			return OutcomeNoop, fmt.Errorf("update adjustment: %w", err)
		}
		log.DebugContext(ctx, "Adjustment row updated", "id", row.ID)
		return OutcomeAdjustmentMoved, nil
	}

	_, err = tx.InsertTransaction(ctx, core.Transaction{
		Date:        date,
		Kind:        rows[0].Kind,
		Category:    category,
		Amount:      delta,
		Description: core.AdjustmentMarker,
	})
	if err != nil {
		return OutcomeNoop, fmt.Errorf("insert adjustment: %w", err)
	}
	log.DebugContext(ctx, "Adjustment row added")
	return OutcomeAdjustmentAdded, nil
}

// DailyEdits is one submission of the daily view: budget values expressed at
// the daily ratio and new actual totals for the day.
type DailyEdits struct {
	Budgets map[string]decimal.Decimal
	Actuals map[string]decimal.Decimal
}

// DailyResult counts what ApplyDailyEdits changed.
type DailyResult struct {
	Budgets  int
	Outcomes map[string]Outcome
}

// Changed reports whether the batch wrote anything.
func (d DailyResult) Changed() bool {
	if d.Budgets > 0 {
		return true
	}
	for _, o := range d.Outcomes {
		if o != OutcomeNoop {
			return true
		}
	}
	return false
}

// ApplyDailyEdits writes a daily view submission for date in one transaction.
func (r *Resolver) ApplyDailyEdits(ctx context.Context, date core.Date, edits DailyEdits, ratio float64) (DailyResult, error) {
	res := DailyResult{Outcomes: map[string]Outcome{}}
	err := r.store.WithTx(ctx, func(tx storage.Tx) error {
		res = DailyResult{Outcomes: map[string]Outcome{}}
		for _, category := range sortedKeys(edits.Budgets) {
			if err := setBudget(ctx, tx, category, edits.Budgets[category], ratio); err != nil {
				return err
			}
			res.Budgets++
		}
		for _, category := range sortedKeys(edits.Actuals) {
			out, err := retarget(ctx, tx, date, category, edits.Actuals[category])
			if err != nil {
				return err
			}
			res.Outcomes[category] = out
		}
		return nil
	})
	return res, err
}

// ClearDay deletes every row of (date, category).
func (r *Resolver) ClearDay(ctx context.Context, date core.Date, category string) (int64, error) {
	var n int64
	err := r.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		n, err = tx.DeleteDayCategory(ctx, date, category)
		return err
	})
	return n, err
}

func dayRows(ctx context.Context, tx storage.Tx, date core.Date, category string) ([]core.Transaction, error) {
	all, err := tx.ListTransactions(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list day rows: %w", err)
	}
	var rows []core.Transaction
	for _, t := range all {
		if t.Category == category {
			rows = append(rows, t)
		}
	}
	// Oldest first so the first adjustment found is the original one.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// kindOf resolves a category's kind, treating unknown categories as Expense.
func kindOf(ctx context.Context, tx storage.Tx, category string) (core.Kind, error) {
	c, ok, err := tx.GetCategory(ctx, category)
	if err != nil {
		return "", fmt.Errorf("lookup category: %w", err)
	}
	if !ok {
		return core.KindExpense, nil
	}
	return c.Group.Kind(), nil
}
