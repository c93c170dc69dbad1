package tui

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/reconcile"
	"budgetbook/internal/services"
)

// Params select what the dashboard shows.
type Params struct {
	Mode   period.Mode
	Anchor core.Date
}

// Equal reports whether p and o select the same view.
func (p Params) Equal(o Params) bool {
	return p.Mode == o.Mode && p.Anchor.Equal(o.Anchor.Time)
}

// Shift moves the anchor by n periods of the current mode. Monthly steps
// land on the first of the month.
func (p Params) Shift(n int) Params {
	switch p.Mode {
	case period.ModeWeekly:
		p.Anchor = p.Anchor.AddDays(7 * n)
	case period.ModeMonthly:
		p.Anchor = core.NewDate(p.Anchor.Year(), p.Anchor.Month()+time.Month(n), 1)
	default:
		p.Anchor = p.Anchor.AddDays(n)
	}
	return p
}

// View is everything the tabs render for one Params.
type View struct {
	Params       Params
	Period       period.Period
	Report       reconcile.Report // the selected period
	Day          reconcile.Report // the anchor day
	Transactions []core.Transaction
	Budgets      map[string]decimal.Decimal // DEFAULT budgets at the mode ratio
	Categories   []core.Category
}

// BudgetLine is one row of the budget tab.
type BudgetLine struct {
	Category string
	Group    core.Group
	Amount   decimal.Decimal
}

// BudgetLines returns every category with its scaled budget, in group order
// and sorted by name within a group.
func (v View) BudgetLines() []BudgetLine {
	lines := make([]BudgetLine, 0, len(v.Categories))
	for _, c := range v.Categories {
		lines = append(lines, BudgetLine{Category: c.Name, Group: c.Group, Amount: v.Budgets[c.Name]})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Group != lines[j].Group {
			return lines[i].Group.Order() < lines[j].Group.Order()
		}
		return lines[i].Category < lines[j].Category
	})
	return lines
}

// DayRows flattens the day report in display order.
func (v View) DayRows() []reconcile.Row {
	var rows []reconcile.Row
	for _, g := range v.Day.ByGroup() {
		rows = append(rows, g.Rows...)
	}
	return rows
}

// Session is the dashboard's view-model. It recomputes only when the
// requested Params differ from the cached ones or a mutation has been
// committed since the last computation.
type Session struct {
	svc *services.LedgerService

	mu       sync.Mutex
	params   Params
	view     View
	ready    bool
	computes int

	dirty atomic.Bool
}

// NewSession creates a session invalidated by every mutation svc commits.
func NewSession(svc *services.LedgerService) *Session {
	s := &Session{svc: svc}
	svc.OnChange(func(*amqp.LedgerChangedMessage) { s.Invalidate() })
	return s
}

// Invalidate forces the next View call to recompute.
func (s *Session) Invalidate() {
	s.dirty.Store(true)
}

// Computes returns how many times the view was recomputed.
func (s *Session) Computes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computes
}

// View returns the view of p, recomputing it when needed.
func (s *Session) View(ctx context.Context, p Params) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready && s.params.Equal(p) && !s.dirty.Load() {
		return s.view, nil
	}

	// Cleared before computing so a mutation committed meanwhile marks the
	// result stale again.
	s.dirty.Store(false)
	v, err := s.compute(ctx, p)
	if err != nil {
		s.ready = false
		return View{}, err
	}
	s.params, s.view, s.ready = p, v, true
	s.computes++
	return v, nil
}

func (s *Session) compute(ctx context.Context, p Params) (View, error) {
	per, err := period.Resolve(p.Mode, p.Anchor)
	if err != nil {
		return View{}, err
	}
	v := View{Params: p, Period: per}

	if v.Report, err = s.svc.Reconcile(ctx, per); err != nil {
		return View{}, fmt.Errorf("reconcile %s: %w", per.Title(), err)
	}
	if per.Mode == period.ModeDaily {
		v.Day = v.Report
	} else if v.Day, err = s.svc.Reconcile(ctx, period.Daily(p.Anchor)); err != nil {
		return View{}, fmt.Errorf("reconcile day: %w", err)
	}
	if v.Transactions, err = s.svc.DayTransactions(ctx, p.Anchor); err != nil {
		return View{}, fmt.Errorf("list transactions: %w", err)
	}
	if v.Budgets, err = s.svc.DefaultBudgets(ctx, period.Ratio(p.Mode)); err != nil {
		return View{}, fmt.Errorf("load budgets: %w", err)
	}
	reg, err := s.svc.Categories(ctx)
	if err != nil {
		return View{}, fmt.Errorf("load categories: %w", err)
	}
	v.Categories = reg.Categories()
	return v, nil
}
