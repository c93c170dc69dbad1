package tui

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/tui/theme"
)

func (a App) renderBudgetTab(cw int) string {
	t := theme.Active
	lines := a.view.BudgetLines()

	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n\n", colored(string(a.params.Mode)+" budgets, stored as monthly DEFAULT amounts", t.TextMuted))

	nameW := max(cw-40, 16)
	b.WriteString(renderHeader([]column{
		{text: "Category", width: nameW},
		{text: "Group", width: 8},
		{text: "Amount", width: 12, right: true},
	}))
	b.WriteString("\n")

	start, end := window(len(lines), a.cursor, a.listHeight()-2)
	for i := start; i < end; i++ {
		line := lines[i]
		amount := money(line.Amount)
		if a.edit.active && i == a.cursor {
			amount = colored("["+a.edit.input.View()+"]", t.AccentBright)
		}
		b.WriteString(renderLine([]column{
			{text: line.Category, width: nameW},
			{text: string(line.Group), width: 8},
			{text: amount, width: 12, right: true},
		}, i == a.cursor))
		b.WriteString("\n")
	}

	totals := map[core.Group]decimal.Decimal{}
	for _, line := range lines {
		totals[line.Group] = totals[line.Group].Add(line.Amount)
	}
	var parts []string
	for _, g := range core.Groups {
		parts = append(parts, fmt.Sprintf("%s %s", g, money(totals[g])))
	}
	fmt.Fprintf(&b, "\n  %s", colored(strings.Join(parts, " · "), t.TextDim))
	return b.String()
}
