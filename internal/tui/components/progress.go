package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"budgetbook/internal/tui/theme"
)

// ColorForUsage returns the color of a usage percentage: red above 100,
// orange above 80, green otherwise. favorable inverts it for income and
// saving rows, where reaching the budget is the goal.
func ColorForUsage(pct float64, favorable bool) lipgloss.Color {
	t := theme.Active
	if favorable {
		if pct >= 100 {
			return t.Green
		}
		return t.Yellow
	}
	switch {
	case pct > 100:
		return t.Red
	case pct > 80:
		return t.Orange
	default:
		return t.Green
	}
}

// UsageBar renders a budget usage bar of barWidth cells followed by the
// percentage. The bar is clamped to 0..100% while the label is not.
func UsageBar(pct float64, barWidth int) string {
	t := theme.Active
	if barWidth < 4 {
		barWidth = 4
	}

	fill := pct / 100
	if fill < 0 {
		fill = 0
	}
	if fill > 1 {
		fill = 1
	}

	color := ColorForUsage(pct, false)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return bar.ViewAs(fill) + " " + pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
}
