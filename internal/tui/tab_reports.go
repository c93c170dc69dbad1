package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"budgetbook/internal/core"
	"budgetbook/internal/reconcile"
	"budgetbook/internal/tui/components"
	"budgetbook/internal/tui/theme"
)

func paceColor(p reconcile.Pace) lipgloss.Color {
	t := theme.Active
	switch p {
	case reconcile.PaceCritical:
		return t.Red
	case reconcile.PaceHigh:
		return t.Orange
	case reconcile.PaceLow:
		return t.TextMuted
	}
	return t.Green
}

func (a App) renderReportsTab(cw int) string {
	rep := a.view.Report
	s := rep.Summary
	used := s.UsedPercent()
	pace := reconcile.PaceOf(used)

	var b strings.Builder
	b.WriteString(components.MetricRow([]components.Metric{
		{Label: "Budget out", Value: money(s.OutflowBudgeted)},
		{Label: "Spent", Value: money(s.OutflowActual)},
		{Label: "Remaining", Value: money(s.Remaining()), Color: signColor(s.Remaining())},
		{Label: "Used", Value: fmt.Sprintf("%.1f%%", used), Color: components.ColorForUsage(used, false)},
		{Label: "Pace", Value: string(pace), Color: paceColor(pace)},
	}, cw))
	b.WriteString("\n  ")
	b.WriteString(components.UsageBar(used, max(cw-12, 10)))
	b.WriteString("\n")

	widths := components.LayoutRow(cw, 2)
	barW := max(components.CardInnerWidth(widths[0])-34, 6)

	var top strings.Builder
	outflows := rep.TopOutflows(a.topN)
	if len(outflows) == 0 {
		top.WriteString(colored("No spending in this period", theme.Active.TextDim))
	}
	for _, row := range outflows {
		pct := core.Percent(row.Actual, s.OutflowBudgeted)
		fmt.Fprintf(&top, "%s %s %s\n", pad(row.Category, 18, false), pad(money(row.Actual), 11, true), components.UsageBar(pct, barW))
	}

	var comp strings.Builder
	for _, share := range rep.GroupShares() {
		fmt.Fprintf(&comp, "%s %s %s\n", pad(string(share.Group), 8, false), pad(money(share.Actual), 11, true),
			colored(fmt.Sprintf("%5.1f%%", share.Percent), theme.Active.Accent))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		components.ContentCard(fmt.Sprintf("Top %d outflows", a.topN), strings.TrimRight(top.String(), "\n"), widths[0]),
		components.ContentCard("Composition", strings.TrimRight(comp.String(), "\n"), widths[1]),
	))
	return b.String()
}
