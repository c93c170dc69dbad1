package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/storage/memory"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func newTestApp(t *testing.T) (App, *memory.Store) {
	t.Helper()
	svc, store := newTestService(t)
	a := NewApp(context.Background(), svc, Options{Mode: period.ModeDaily, Anchor: testDay})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return drain(t, m, a.loadCmd()), store
}

// drain runs the dashboard's own commands to completion, feeding each
// message back into Update.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) App {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		switch msg.(type) {
		case viewLoadedMsg, mutationMsg:
		default:
			t.Fatalf("unexpected message %T", msg)
		}
		m, cmd = m.Update(msg)
	}
	return m.(App)
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(a App, key string) (App, tea.Cmd) {
	m, cmd := a.Update(keyMsg(key))
	return m.(App), cmd
}

func dayRowIndex(t *testing.T, a App, category string) int {
	t.Helper()
	for i, row := range a.view.DayRows() {
		if row.Category == category {
			return i
		}
	}
	t.Fatalf("no row for %s", category)
	return -1
}

func TestAppLoadsAndRenders(t *testing.T) {
	a, _ := newTestApp(t)
	if !a.loaded {
		t.Fatal("view not loaded")
	}
	out := a.View()
	for _, want := range []string{"Daily", "Reports", "Groceries", "Expense left", "2025-03-14"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	for _, tab := range []string{"2", "3", "4"} {
		a, _ = press(a, tab)
		if a.View() == "" {
			t.Errorf("tab %s rendered nothing", tab)
		}
	}
	if a.activeTab != tabLog {
		t.Errorf("activeTab = %d", a.activeTab)
	}
}

func TestAppModeAndNavigation(t *testing.T) {
	a, _ := newTestApp(t)

	a, cmd := press(a, "m")
	a = drain(t, a, cmd)
	if a.view.Period.Mode != period.ModeMonthly || a.view.Period.Title() != "March 2025" {
		t.Fatalf("period = %s %s", a.view.Period.Mode, a.view.Period.Title())
	}

	a, cmd = press(a, "l")
	a = drain(t, a, cmd)
	if !a.params.Anchor.Equal(core.NewDate(2025, 4, 1).Time) || a.view.Period.Title() != "April 2025" {
		t.Errorf("next month = %s / %s", a.params.Anchor, a.view.Period.Title())
	}

	a, cmd = press(a, "w")
	a = drain(t, a, cmd)
	if a.view.Period.Mode != period.ModeWeekly {
		t.Errorf("mode = %s", a.view.Period.Mode)
	}
}

func TestAppEditActual(t *testing.T) {
	a, store := newTestApp(t)
	ctx := context.Background()
	if _, err := store.InsertTransaction(ctx, core.Transaction{Date: testDay, Kind: core.KindExpense, Category: "Groceries", Amount: decimal.NewFromInt(10)}); err != nil {
		t.Fatal(err)
	}
	a, cmd := press(a, "r")
	a = drain(t, a, cmd)

	a.cursor = dayRowIndex(t, a, "Groceries")
	a, _ = press(a, "enter")
	if !a.edit.active || a.edit.category != "Groceries" || a.edit.input.Value() != "10.00" {
		t.Fatalf("editor = %+v", a.edit)
	}
	a.edit.input.SetValue("25")
	a, cmd = press(a, "enter")
	a = drain(t, a, cmd)

	sum, _ := store.SumAmount(ctx, "Groceries", testDay, testDay)
	if !sum.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Groceries = %s, want 25", sum)
	}
	if !strings.Contains(a.status, "Groceries") {
		t.Errorf("status = %q", a.status)
	}
	if row := a.view.DayRows()[a.cursor]; !row.Actual.Equal(decimal.NewFromInt(25)) {
		t.Errorf("view not refreshed, actual = %s", row.Actual)
	}
}

func TestAppEditBudget(t *testing.T) {
	a, store := newTestApp(t)

	a, cmd := press(a, "m")
	a = drain(t, a, cmd)
	a, _ = press(a, "3")

	for i, line := range a.view.BudgetLines() {
		if line.Category == "Rent" {
			a.cursor = i
		}
	}
	a, _ = press(a, "enter")
	if a.edit.field != editBudget || a.edit.ratio != 1.0 {
		t.Fatalf("editor = %+v", a.edit)
	}
	a.edit.input.SetValue("950")
	a, cmd = press(a, "enter")
	drain(t, a, cmd)

	got, ok, _ := store.GetDefaultBudget(context.Background(), "Rent")
	if !ok || !got.Equal(decimal.NewFromInt(950)) {
		t.Errorf("Rent budget = %s (%v), want 950", got, ok)
	}
}

func TestAppRejectsInvalidAmount(t *testing.T) {
	a, store := newTestApp(t)
	a.cursor = dayRowIndex(t, a, "Eat Out")
	a, _ = press(a, "enter")
	a.edit.input.SetValue("lots")
	a, cmd := press(a, "enter")

	if cmd != nil {
		t.Error("an invalid amount must not write")
	}
	if a.edit.active || !strings.Contains(a.status, "Invalid amount") {
		t.Errorf("edit = %v, status = %q", a.edit.active, a.status)
	}
	if sum, _ := store.SumAmount(context.Background(), "Eat Out", testDay, testDay); !sum.IsZero() {
		t.Errorf("Eat Out = %s", sum)
	}
}

func TestAppDeleteLogRow(t *testing.T) {
	a, store := newTestApp(t)
	ctx := context.Background()
	for _, amount := range []int64{5, 7} {
		if _, err := store.InsertTransaction(ctx, core.Transaction{Date: testDay, Kind: core.KindExpense, Category: "Eat Out", Amount: decimal.NewFromInt(amount)}); err != nil {
			t.Fatal(err)
		}
	}
	a, cmd := press(a, "r")
	a = drain(t, a, cmd)

	a, _ = press(a, "4")
	a, cmd = press(a, "x")
	a = drain(t, a, cmd)

	rows, _ := store.ListTransactions(ctx, testDay)
	if len(rows) != 1 || len(a.view.Transactions) != 1 {
		t.Errorf("rows left = %d, view = %d", len(rows), len(a.view.Transactions))
	}
	if !strings.HasPrefix(a.status, "Deleted Eat Out") {
		t.Errorf("status = %q", a.status)
	}
}

func TestAppClearDay(t *testing.T) {
	a, store := newTestApp(t)
	ctx := context.Background()
	if _, err := store.InsertTransaction(ctx, core.Transaction{Date: testDay, Kind: core.KindExpense, Category: "Shopping", Amount: decimal.NewFromInt(30)}); err != nil {
		t.Fatal(err)
	}
	a, cmd := press(a, "r")
	a = drain(t, a, cmd)

	a.cursor = dayRowIndex(t, a, "Shopping")
	a, cmd = press(a, "x")
	drain(t, a, cmd)

	if sum, _ := store.SumAmount(ctx, "Shopping", testDay, testDay); !sum.IsZero() {
		t.Errorf("Shopping = %s after clear", sum)
	}
}

func TestAppAddFormCancel(t *testing.T) {
	a, _ := newTestApp(t)
	a, _ = press(a, "a")
	if a.addForm == nil || a.addVals.Date != "2025-03-14" {
		t.Fatal("add form not opened on the anchor day")
	}
	if !strings.Contains(a.View(), "Add transaction") {
		t.Error("form not rendered")
	}
	a, _ = press(a, "esc")
	if a.addForm != nil || a.status != "Add cancelled" {
		t.Errorf("form = %v, status = %q", a.addForm, a.status)
	}
}

func TestAddValuesTransaction(t *testing.T) {
	v := &addValues{Date: "2025-03-14", Group: "Income", Category: "Tutoring", Amount: "80,5", Description: " lesson "}
	in, err := v.transaction()
	if err != nil {
		t.Fatal(err)
	}
	if in.Group != core.GroupIncome || !in.Amount.Equal(decimal.RequireFromString("80.5")) || in.Description != "lesson" {
		t.Errorf("transaction = %+v", in)
	}

	v.Amount = "-3"
	if _, err := v.transaction(); err == nil {
		t.Error("negative amount accepted")
	}
}
