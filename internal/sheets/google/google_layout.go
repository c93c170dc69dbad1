package google

import (
	"fmt"

	"budgetbook/internal/reconcile"
)

var reportHeader = []any{"Group", "Category", "Budget", "Actual", "Diff", "Usage %"}

// reportValues lays a report out as sheet rows: a header, categories grouped
// by group and sorted by name, a blank separator and a totals block.
func reportValues(r reconcile.Report) [][]any {
	values := [][]any{
		{r.Period.Title()},
		reportHeader,
	}
	for _, g := range r.ByGroup() {
		for _, row := range g.Rows {
			values = append(values, []any{
				string(row.Group),
				row.Category,
				row.Budgeted.StringFixed(2),
				row.Actual.StringFixed(2),
				row.Diff.StringFixed(2),
				fmt.Sprintf("%.1f", row.Usage),
			})
		}
	}
	s := r.Summary
	values = append(values,
		[]any{},
		[]any{"Total income", "", "", s.IncomeActual.StringFixed(2)},
		[]any{"Total outflow", "", s.OutflowBudgeted.StringFixed(2), s.OutflowActual.StringFixed(2), s.Remaining().StringFixed(2), fmt.Sprintf("%.1f", s.UsedPercent())},
		[]any{"Saved", "", "", s.SavingActual.StringFixed(2)},
		[]any{"Net", "", "", s.Net.StringFixed(2)},
	)
	return values
}
