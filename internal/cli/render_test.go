package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Budget",
		Headers: []string{"Category", "Amount"},
		Rows: [][]string{
			{"Rent", "$1000.00"},
			SeparatorRow,
			{"Groceries", "$45.00"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[4], "│ Rent      │ $1000.00 │") {
		t.Errorf("row not padded: %q", lines[4])
	}
	if !strings.Contains(lines[6], "│ Groceries │   $45.00 │") {
		t.Errorf("numbers should be right-aligned: %q", lines[6])
	}
	width := lipgloss.Width(lines[1])
	for i, l := range lines[1:] {
		if lipgloss.Width(l) != width {
			t.Errorf("line %d width %d, want %d", i+1, lipgloss.Width(l), width)
		}
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if out := RenderTable(Table{}); out != "" {
		t.Errorf("empty table rendered %q", out)
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "[░░░░]"},
		{50, "[██░░]"},
		{250, "[████]"},
		{-10, "[░░░░]"},
	}
	for _, tt := range tests {
		if got := RenderBar(tt.pct, 4); got != tt.want {
			t.Errorf("RenderBar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestRenderUsage(t *testing.T) {
	if got := RenderUsage(112.34, false); got != "112.3%" {
		t.Errorf("RenderUsage = %q", got)
	}
}
