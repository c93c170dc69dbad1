package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"budgetbook/internal/tui/theme"
)

// Tab is one entry of the tab bar.
type Tab struct {
	Name string
	Key  rune
}

// Tabs lists the dashboard tabs in order.
var Tabs = []Tab{
	{Name: "Daily", Key: '1'},
	{Name: "Reports", Key: '2'},
	{Name: "Budget", Key: '3'},
	{Name: "Log", Key: '4'},
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Padding(0, 1)
	keyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		label := keyStyle.Render(string(tab.Key)) + " "
		if i == activeIdx {
			parts = append(parts, activeStyle.Render(label+tab.Name))
		} else {
			parts = append(parts, inactiveStyle.Render(label+tab.Name))
		}
	}
	return strings.Join(parts, keyStyle.Render("│"))
}

// TabIdxByKey returns the tab index for a key press, or -1.
func TabIdxByKey(key string) int {
	for i, tab := range Tabs {
		if key == string(tab.Key) {
			return i
		}
	}
	return -1
}
