package tui

import (
	"fmt"
	"strings"

	"budgetbook/internal/period"
	"budgetbook/internal/tui/components"
	"budgetbook/internal/tui/theme"
)

func (a App) renderDailyTab(cw int) string {
	t := theme.Active
	s := a.view.Day.Summary

	var b strings.Builder
	b.WriteString(components.MetricRow([]components.Metric{
		{Label: "Income", Value: money(s.IncomeActual), Color: t.Green},
		{Label: "Spend", Value: money(s.OutflowActual), Note: "of " + money(s.OutflowBudgeted)},
		{Label: "Saved", Value: money(s.SavingActual)},
		{Label: "Net", Value: money(s.Net), Color: signColor(s.Net)},
		{Label: "Expense left", Value: money(s.Remaining()), Color: signColor(s.Remaining())},
	}, cw))
	b.WriteString("\n")

	nameW := max(cw-60, 16)
	b.WriteString(renderHeader([]column{
		{text: "Category", width: nameW},
		{text: "Group", width: 8},
		{text: "Budget", width: 11, right: true},
		{text: "Actual", width: 11, right: true},
		{text: "Diff", width: 11, right: true},
		{text: "Usage", width: 8, right: true},
	}))
	b.WriteString("\n")

	rows := a.view.DayRows()
	start, end := window(len(rows), a.cursor, a.listHeight())
	for i := start; i < end; i++ {
		row := rows[i]
		budget, actual := money(row.Budgeted), money(row.Actual)
		if a.edit.active && i == a.cursor {
			cell := colored("["+a.edit.input.View()+"]", t.AccentBright)
			if a.edit.field == editBudget {
				budget = cell
			} else {
				actual = cell
			}
		}
		name := row.Category
		if !row.Known {
			name += " (?)"
		}
		usage := colored(fmt.Sprintf("%.1f%%", row.Usage), components.ColorForUsage(row.Usage, row.Group.OverIsFavorable()))
		b.WriteString(renderLine([]column{
			{text: name, width: nameW},
			{text: string(row.Group), width: 8},
			{text: budget, width: 11, right: true},
			{text: actual, width: 11, right: true},
			{text: colored(money(row.Diff), signColor(row.Diff)), width: 11, right: true},
			{text: usage, width: 8, right: true},
		}, i == a.cursor))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n  %s", colored(fmt.Sprintf("%d transaction(s) on %s · budgets at 1/%.2f of monthly", len(a.view.Transactions), a.params.Anchor, period.DaysPerMonth), t.TextDim))
	return b.String()
}
