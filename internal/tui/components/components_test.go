package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"budgetbook/internal/tui/theme"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{100, 4, []int{25, 25, 25, 25}},
		{10, 3, []int{4, 3, 3}},
		{5, 0, nil},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("LayoutRow(%d, %d) = %v", tt.total, tt.n, got)
		}
		sum := 0
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("LayoutRow(%d, %d)[%d] = %d, want %d", tt.total, tt.n, i, got[i], tt.want[i])
			}
			sum += got[i]
		}
		if tt.n > 0 && sum != tt.total {
			t.Errorf("widths sum to %d, want %d", sum, tt.total)
		}
	}
}

func TestMetricRowWidth(t *testing.T) {
	row := MetricRow([]Metric{
		{Label: "Income", Value: "$10.00"},
		{Label: "Spend", Value: "$4.00", Note: "of $5.00"},
		{Label: "Net", Value: "$6.00"},
	}, 60)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 60 {
			t.Errorf("line %d width = %d, want 60", i, w)
		}
	}
	if !strings.Contains(row, "of $5.00") {
		t.Error("note missing")
	}
}

func TestColorForUsage(t *testing.T) {
	th := theme.Active
	tests := []struct {
		pct       float64
		favorable bool
		want      lipgloss.Color
	}{
		{50, false, th.Green},
		{85, false, th.Orange},
		{120, false, th.Red},
		{120, true, th.Green},
		{40, true, th.Yellow},
	}
	for _, tt := range tests {
		if got := ColorForUsage(tt.pct, tt.favorable); got != tt.want {
			t.Errorf("ColorForUsage(%v, %v) = %s, want %s", tt.pct, tt.favorable, got, tt.want)
		}
	}
}

func TestUsageBarKeepsUnclampedLabel(t *testing.T) {
	out := UsageBar(150, 20)
	if !strings.Contains(out, "150.0%") {
		t.Errorf("label should show the real usage: %q", out)
	}
	if lipgloss.Width(out) != 20+1+6 {
		t.Errorf("width = %d", lipgloss.Width(out))
	}
}

func TestTabIdxByKey(t *testing.T) {
	if TabIdxByKey("3") != 2 || TabIdxByKey("9") != -1 {
		t.Errorf("TabIdxByKey mismatch")
	}
	bar := RenderTabBar(1)
	for _, tab := range Tabs {
		if !strings.Contains(bar, tab.Name) {
			t.Errorf("tab bar missing %s", tab.Name)
		}
	}
}
