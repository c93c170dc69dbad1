// Package reconcile joins categories, standing monthly budgets and summed
// actuals into a per-category budget-versus-actual report.
package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/period"
)

// Row is the reconciled view of one category over a period.
type Row struct {
	Category   string          `json:"category"`
	Group      core.Group      `json:"group"`
	Known      bool            `json:"known"`
	FullBudget decimal.Decimal `json:"full_budget"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	Actual     decimal.Decimal `json:"actual"`
	Diff       decimal.Decimal `json:"diff"`
	Usage      float64         `json:"usage"`
}

// Summary aggregates a report's rows.
type Summary struct {
	IncomeActual    decimal.Decimal `json:"income_actual"`
	OutflowActual   decimal.Decimal `json:"outflow_actual"`
	OutflowBudgeted decimal.Decimal `json:"outflow_budgeted"`
	SavingActual    decimal.Decimal `json:"saving_actual"`
	Net             decimal.Decimal `json:"net"`
}

// Report is the full reconciliation of a period.
type Report struct {
	Period  period.Period `json:"period"`
	Rows    []Row         `json:"rows"`
	Summary Summary       `json:"summary"`
}

// GroupShare is one group's part of the grand total actual.
type GroupShare struct {
	Group   core.Group      `json:"group"`
	Actual  decimal.Decimal `json:"actual"`
	Percent float64         `json:"percent"`
}

// Compute reconciles categories against DEFAULT budgets and actuals with the
// given ratio. Every category yields exactly one row. Names present only in
// budgets or actuals are appended, sorted, as unknown Expense rows.
func Compute(categories []core.Category, budgets, actuals map[string]decimal.Decimal, ratio float64) Report {
	reg := core.NewRegistry(categories)
	factor := decimal.NewFromFloat(ratio)

	refs := make([]core.CategoryRef, 0, reg.Len())
	for _, c := range reg.Categories() {
		refs = append(refs, core.CategoryRef{Category: c, Known: true})
	}
	var orphans []string
	seen := map[string]bool{}
	for _, src := range []map[string]decimal.Decimal{budgets, actuals} {
		for name := range src {
			if seen[name] || reg.Resolve(name).Known {
				continue
			}
			seen[name] = true
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		refs = append(refs, reg.Resolve(name))
	}

	rows := make([]Row, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, computeRow(ref, budgets[ref.Name], actuals[ref.Name], factor))
	}
	return Report{Rows: rows, Summary: summarize(rows)}
}

func computeRow(ref core.CategoryRef, full, actual, factor decimal.Decimal) Row {
	budgeted := full.Mul(factor)
	row := Row{
		Category:   ref.Name,
		Group:      ref.Group,
		Known:      ref.Known,
		FullBudget: full,
		Budgeted:   budgeted,
		Actual:     actual,
	}
	if ref.Group.OverIsFavorable() {
		row.Diff = actual.Sub(budgeted)
	} else {
		row.Diff = budgeted.Sub(actual)
	}
	switch {
	case budgeted.IsPositive():
		row.Usage = actual.Div(budgeted).Mul(decimal.NewFromInt(100)).InexactFloat64()
	case actual.IsPositive():
		row.Usage = 100
	}
	return row
}

func summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		switch {
		case r.Group == core.GroupIncome:
			s.IncomeActual = s.IncomeActual.Add(r.Actual)
		case r.Group == core.GroupSaving:
			s.SavingActual = s.SavingActual.Add(r.Actual)
		case r.Group.IsOutflow():
			s.OutflowActual = s.OutflowActual.Add(r.Actual)
			s.OutflowBudgeted = s.OutflowBudgeted.Add(r.Budgeted)
		}
	}
	s.Net = s.IncomeActual.Sub(s.OutflowActual).Sub(s.SavingActual)
	return s
}

// Remaining is outflow budgeted minus outflow actual.
func (s Summary) Remaining() decimal.Decimal {
	return s.OutflowBudgeted.Sub(s.OutflowActual)
}

// UsedPercent is outflow actual as a percentage of outflow budgeted.
func (s Summary) UsedPercent() float64 {
	return core.Percent(s.OutflowActual, s.OutflowBudgeted)
}

// Row returns the row of category, if present.
func (r Report) Row(category string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Category == category {
			return row, true
		}
	}
	return Row{}, false
}

// TopOutflows returns up to n outflow rows with a positive actual, ordered by
// actual descending. Ties keep report order.
func (r Report) TopOutflows(n int) []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Group.IsOutflow() && row.Actual.IsPositive() {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Actual.GreaterThan(out[j].Actual)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GroupShares returns every group's actual as a percentage of the grand
// total actual, in group display order. Percentages are 0 when the total is 0.
func (r Report) GroupShares() []GroupShare {
	sums := map[core.Group]decimal.Decimal{}
	total := decimal.Zero
	for _, row := range r.Rows {
		sums[row.Group] = sums[row.Group].Add(row.Actual)
		total = total.Add(row.Actual)
	}
	shares := make([]GroupShare, 0, len(core.Groups))
	for _, g := range core.Groups {
		shares = append(shares, GroupShare{Group: g, Actual: sums[g], Percent: core.Percent(sums[g], total)})
	}
	return shares
}

// ByGroup returns rows bucketed per group in group display order, each bucket
// sorted by category name. Empty groups are omitted.
func (r Report) ByGroup() []GroupRows {
	buckets := map[core.Group][]Row{}
	for _, row := range r.Rows {
		buckets[row.Group] = append(buckets[row.Group], row)
	}
	var out []GroupRows
	for _, g := range core.Groups {
		rows := buckets[g]
		if len(rows) == 0 {
			continue
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
		out = append(out, GroupRows{Group: g, Rows: rows})
	}
	return out
}

// GroupRows is one group's slice of a report.
type GroupRows struct {
	Group core.Group
	Rows  []Row
}

// Budgeted sums the bucket's budgeted amounts.
func (g GroupRows) Budgeted() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range g.Rows {
		sum = sum.Add(r.Budgeted)
	}
	return sum
}

// Actual sums the bucket's actual amounts.
func (g GroupRows) Actual() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range g.Rows {
		sum = sum.Add(r.Actual)
	}
	return sum
}
