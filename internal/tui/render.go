package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/tui/theme"
)

// listOverhead approximates the lines a tab spends outside its row list.
const listOverhead = 12

// column is one cell of a list line.
type column struct {
	text  string
	width int
	right bool
}

// pad fits s to w display cells.
func pad(s string, w int, right bool) string {
	sw := lipgloss.Width(s)
	if sw > w {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r)) > w-1 {
			r = r[:len(r)-1]
		}
		return string(r) + "…"
	}
	gap := strings.Repeat(" ", w-sw)
	if right {
		return gap + s
	}
	return s + gap
}

func renderColumns(cols []column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = pad(c.text, c.width, c.right)
	}
	return strings.Join(parts, " ")
}

// renderLine renders one list line, marking the selected one.
func renderLine(cols []column, selected bool) string {
	t := theme.Active
	if selected {
		marker := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render("▸ ")
		return marker + lipgloss.NewStyle().Bold(true).Render(renderColumns(cols))
	}
	return "  " + renderColumns(cols)
}

func renderHeader(cols []column) string {
	return "  " + lipgloss.NewStyle().Foreground(theme.Active.TextMuted).Bold(true).Render(renderColumns(cols))
}

// window returns the [start, end) slice of n rows that keeps cursor visible
// in h lines.
func window(n, cursor, h int) (int, int) {
	if h < 1 {
		h = 1
	}
	if n <= h {
		return 0, n
	}
	start := cursor - h/2
	if start < 0 {
		start = 0
	}
	if start+h > n {
		start = n - h
	}
	return start, start + h
}

func (a App) listHeight() int {
	return max(a.height-listOverhead, minContentHeight)
}

func money(d decimal.Decimal) string {
	return core.FormatCurrency(d)
}

// signColor colours a balance: red below zero, primary otherwise.
func signColor(d decimal.Decimal) lipgloss.Color {
	if d.IsNegative() {
		return theme.Active.Red
	}
	return theme.Active.TextPrimary
}

func colored(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}
