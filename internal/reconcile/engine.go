package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/period"
)

// Source is the read side of the ledger the engine needs.
type Source interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	DefaultBudgets(ctx context.Context) (map[string]decimal.Decimal, error)
	SumsByCategory(ctx context.Context, start, end core.Date) (map[string]decimal.Decimal, error)
}

// Engine loads reconciliation inputs from a Source.
type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Reconcile computes the report of p.
func (e *Engine) Reconcile(ctx context.Context, p period.Period) (Report, error) {
	categories, err := e.src.ListCategories(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list categories: %w", err)
	}
	budgets, err := e.src.DefaultBudgets(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load default budgets: %w", err)
	}
	actuals, err := e.src.SumsByCategory(ctx, p.Start, p.End)
	if err != nil {
		return Report{}, fmt.Errorf("sum actuals: %w", err)
	}

	report := Compute(categories, budgets, actuals, p.Ratio)
	report.Period = p
	slog.DebugContext(ctx, "Reconciled period",
		"mode", p.Mode, "start", p.Start.String(), "end", p.End.String(), "rows", len(report.Rows))
	return report, nil
}

// Pace classifies how fast the outflow budget is being spent.
type Pace string

const (
	PaceCritical Pace = "Critical"
	PaceHigh     Pace = "High"
	PaceNormal   Pace = "Normal"
	PaceLow      Pace = "Low"
)

// PaceOf maps a budget-used percentage to a pace.
func PaceOf(usedPct float64) Pace {
	switch {
	case usedPct > 100:
		return PaceCritical
	case usedPct > 80:
		return PaceHigh
	case usedPct < 20:
		return PaceLow
	}
	return PaceNormal
}
