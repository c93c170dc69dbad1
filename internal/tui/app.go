// Package tui provides the interactive Bubble Tea dashboard of the ledger.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/services"
	"budgetbook/internal/tui/components"
	"budgetbook/internal/tui/theme"
)

const (
	tabDaily = iota
	tabReports
	tabBudget
	tabLog
)

const (
	minTerminalWidth = 72
	maxContentWidth  = 140
	minContentHeight = 5
)

// Options configure the dashboard.
type Options struct {
	Mode    period.Mode
	Anchor  core.Date
	TopN    int
	Theme   string
	NoColor bool
}

// viewLoadedMsg carries a recomputed view.
type viewLoadedMsg struct {
	view View
	err  error
}

// mutationMsg reports the outcome of a write.
type mutationMsg struct {
	status string
	err    error
}

type editField int

const (
	editActual editField = iota
	editBudget
)

// editState is the inline cell editor.
type editState struct {
	active   bool
	field    editField
	category string
	ratio    float64
	input    textinput.Model
}

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	svc     *services.LedgerService
	session *Session
	topN    int

	params  Params
	view    View
	loaded  bool
	loading bool
	err     error
	status  string

	width     int
	height    int
	activeTab int
	cursor    int
	showHelp  bool

	edit    editState
	addForm *huh.Form
	addVals *addValues
	spinner spinner.Model
}

// NewApp creates the dashboard model.
func NewApp(ctx context.Context, svc *services.LedgerService, opts Options) App {
	if opts.Mode == "" {
		opts.Mode = period.ModeDaily
	}
	if opts.Anchor.IsZero() {
		opts.Anchor = core.Today()
	}
	if opts.TopN < 1 {
		opts.TopN = 5
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		ctx:     ctx,
		svc:     svc,
		session: NewSession(svc),
		topN:    opts.TopN,
		params:  Params{Mode: opts.Mode, Anchor: opts.Anchor},
		loading: true,
		spinner: sp,
	}
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctx context.Context, svc *services.LedgerService, opts Options) error {
	lipgloss.SetColorProfile(colorProfile(opts.NoColor))
	theme.SetActive(opts.Theme)

	p := tea.NewProgram(NewApp(ctx, svc, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func colorProfile(noColor bool) termenv.Profile {
	if noColor {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.loadCmd(), a.spinner.Tick)
}

func (a App) loadCmd() tea.Cmd {
	s, ctx, p := a.session, a.ctx, a.params
	return func() tea.Msg {
		v, err := s.View(ctx, p)
		return viewLoadedMsg{view: v, err: err}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.addForm != nil {
			a.addForm = a.addForm.WithWidth(a.contentWidth() - 4)
		}
		return a, nil

	case viewLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.view = msg.view
		a.loaded = true
		a.clampCursor()
		return a, nil

	case mutationMsg:
		if msg.err != nil {
			a.status = "Error: " + msg.err.Error()
			return a, nil
		}
		a.status = msg.status
		a.session.Invalidate()
		a.loading = true
		return a, a.loadCmd()

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	if a.addForm != nil {
		return a.updateAddForm(msg)
	}
	if a.edit.active {
		var cmd tea.Cmd
		a.edit.input, cmd = a.edit.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if a.addForm != nil {
		if key == "esc" {
			a.addForm = nil
			a.status = "Add cancelled"
			return a, nil
		}
		return a.updateAddForm(msg)
	}
	if a.edit.active {
		return a.updateEdit(msg)
	}
	if !a.loaded {
		return a, nil
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if idx := components.TabIdxByKey(key); idx >= 0 {
		a.activeTab = idx
		a.cursor = 0
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "tab", "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		a.cursor = 0
	case "shift+tab", "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		a.cursor = 0
	case "d":
		return a.setParams(Params{Mode: period.ModeDaily, Anchor: a.params.Anchor})
	case "w":
		return a.setParams(Params{Mode: period.ModeWeekly, Anchor: a.params.Anchor})
	case "m":
		return a.setParams(Params{Mode: period.ModeMonthly, Anchor: a.params.Anchor})
	case "h", "[":
		return a.setParams(a.params.Shift(-1))
	case "l", "]":
		return a.setParams(a.params.Shift(1))
	case "t":
		return a.setParams(Params{Mode: a.params.Mode, Anchor: core.Today()})
	case "j", "down":
		if a.cursor < a.rowCount()-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "g":
		a.cursor = 0
	case "G":
		a.cursor = max(a.rowCount()-1, 0)
	case "r":
		a.session.Invalidate()
		a.loading = true
		return a, a.loadCmd()
	case "a":
		a.addVals = newAddValues(a.params.Anchor)
		a.addForm = newAddForm(a.addVals, a.view.Categories)
		if a.width > 0 {
			a.addForm = a.addForm.WithWidth(a.contentWidth() - 4)
		}
		return a, a.addForm.Init()
	case "enter", "e":
		switch a.activeTab {
		case tabDaily:
			return a.startEdit(editActual)
		case tabBudget:
			return a.startEdit(editBudget)
		}
	case "b":
		if a.activeTab == tabDaily {
			return a.startEdit(editBudget)
		}
	case "x":
		return a, a.deleteCmd()
	}
	return a, nil
}

func (a App) setParams(p Params) (tea.Model, tea.Cmd) {
	a.params = p
	a.loading = true
	return a, a.loadCmd()
}

func (a App) rowCount() int {
	switch a.activeTab {
	case tabDaily:
		return len(a.view.DayRows())
	case tabBudget:
		return len(a.view.BudgetLines())
	case tabLog:
		return len(a.view.Transactions)
	}
	return 0
}

func (a *App) clampCursor() {
	if n := a.rowCount(); a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// startEdit opens the inline editor on the selected row.
func (a App) startEdit(field editField) (tea.Model, tea.Cmd) {
	var category string
	var current decimal.Decimal
	ratio := period.Ratio(a.params.Mode)

	switch a.activeTab {
	case tabDaily:
		rows := a.view.DayRows()
		if a.cursor >= len(rows) {
			return a, nil
		}
		row := rows[a.cursor]
		category, current = row.Category, row.Actual
		if field == editBudget {
			current = row.Budgeted
			ratio = period.Ratio(period.ModeDaily)
		}
	case tabBudget:
		lines := a.view.BudgetLines()
		if a.cursor >= len(lines) {
			return a, nil
		}
		category, current = lines[a.cursor].Category, lines[a.cursor].Amount
	default:
		return a, nil
	}

	ti := textinput.New()
	ti.CharLimit = 16
	ti.Width = 12
	ti.Prompt = ""
	ti.SetValue(current.StringFixed(2))
	ti.CursorEnd()
	cmd := ti.Focus()

	a.edit = editState{active: true, field: field, category: category, ratio: ratio, input: ti}
	return a, cmd
}

func (a App) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.edit.active = false
		return a, nil
	case "enter":
		a.edit.active = false
		value, err := core.ParseAmount(a.edit.input.Value())
		if err != nil {
			a.status = fmt.Sprintf("Invalid amount %q", a.edit.input.Value())
			return a, nil
		}
		return a, a.saveEditCmd(a.edit, value)
	}
	var cmd tea.Cmd
	a.edit.input, cmd = a.edit.input.Update(msg)
	return a, cmd
}

func (a App) saveEditCmd(e editState, value decimal.Decimal) tea.Cmd {
	svc, ctx, date := a.svc, a.ctx, a.params.Anchor
	return func() tea.Msg {
		if e.field == editBudget {
			if err := svc.SetBudgets(ctx, map[string]decimal.Decimal{e.category: value}, e.ratio); err != nil {
				return mutationMsg{err: err}
			}
			return mutationMsg{status: fmt.Sprintf("Budget for %s set to %s", e.category, core.FormatCurrency(value))}
		}
		out, err := svc.RetargetActual(ctx, date, e.category, value)
		if err != nil {
			return mutationMsg{err: err}
		}
		return mutationMsg{status: fmt.Sprintf("%s on %s is now %s (%s)", e.category, date, core.FormatCurrency(value), out)}
	}
}

// deleteCmd removes the selected log row, or clears the selected category's
// day on the daily tab.
func (a App) deleteCmd() tea.Cmd {
	svc, ctx, date := a.svc, a.ctx, a.params.Anchor
	switch a.activeTab {
	case tabLog:
		if a.cursor >= len(a.view.Transactions) {
			return nil
		}
		id := a.view.Transactions[a.cursor].ID
		return func() tea.Msg {
			t, err := svc.DeleteTransaction(ctx, id)
			if err != nil {
				return mutationMsg{err: err}
			}
			return mutationMsg{status: fmt.Sprintf("Deleted %s %s", t.Category, core.FormatCurrency(t.Amount))}
		}
	case tabDaily:
		rows := a.view.DayRows()
		if a.cursor >= len(rows) {
			return nil
		}
		category := rows[a.cursor].Category
		return func() tea.Msg {
			n, err := svc.ClearDay(ctx, date, category)
			if err != nil {
				return mutationMsg{err: err}
			}
			return mutationMsg{status: fmt.Sprintf("Cleared %d row(s) of %s", n, category)}
		}
	}
	return nil
}

func (a App) updateAddForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.addForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.addForm = f
	}

	switch a.addForm.State {
	case huh.StateCompleted:
		a.addForm = nil
		in, err := a.addVals.transaction()
		if err != nil {
			a.status = "Error: " + err.Error()
			return a, nil
		}
		svc, ctx := a.svc, a.ctx
		return a, func() tea.Msg {
			if _, err := svc.AddTransaction(ctx, in); err != nil {
				return mutationMsg{err: err}
			}
			return mutationMsg{status: fmt.Sprintf("Added %s %s on %s", in.Category, core.FormatCurrency(in.Amount), in.Date)}
		}
	case huh.StateAborted:
		a.addForm = nil
		a.status = "Add cancelled"
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols), need at least %d.\n", a.width, minTerminalWidth)
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.addForm != nil {
		return components.ContentCard("Add transaction", a.addForm.View(), a.contentWidth())
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active
	var body string
	if a.err != nil {
		body = lipgloss.NewStyle().Foreground(t.Red).Render("Could not load the ledger: " + a.err.Error())
	} else {
		body = a.spinner.View() + lipgloss.NewStyle().Foreground(t.TextMuted).Render(" Loading ledger...")
	}
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(a.width, max(a.height, 5), lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	bindings := []struct{ key, desc string }{
		{"1 2 3 4", "Jump to tab"},
		{"← →", "Previous / next tab"},
		{"d w m", "Daily, weekly or monthly view"},
		{"h l", "Previous / next period"},
		{"t", "Back to today"},
		{"j k", "Move the cursor"},
		{"enter", "Edit actual (Daily) or budget (Budget)"},
		{"b", "Edit the daily budget (Daily)"},
		{"x", "Delete row (Log) or clear the day (Daily)"},
		{"a", "Add a transaction"},
		{"r", "Reload"},
		{"q", "Quit"},
	}
	var b strings.Builder
	for _, bind := range bindings {
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Render(fmt.Sprintf("%-8s", bind.key)), descStyle.Render(bind.desc))
	}
	b.WriteString("\n" + descStyle.Render("Press any key to close"))

	card := components.ContentCard("Keyboard shortcuts", b.String(), 60)
	return lipgloss.Place(a.width, max(a.height, 5), lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain() string {
	t := theme.Active
	cw := a.contentWidth()

	pill := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)
	header := components.RenderTabBar(a.activeTab) + "\n" +
		" " + pill.Render(string(a.params.Mode)) + dim.Render(" │ ") + a.view.Period.Title() +
		dim.Render(" │ anchor "+a.params.Anchor.String())
	if a.loading {
		header += dim.Render("  refreshing…")
	}

	right := "[?]help [q]uit"
	statusBar := components.RenderStatusBar(a.width, " "+a.status, right)

	var content string
	switch a.activeTab {
	case tabDaily:
		content = a.renderDailyTab(cw)
	case tabReports:
		content = a.renderReportsTab(cw)
	case tabBudget:
		content = a.renderBudgetTab(cw)
	case tabLog:
		content = a.renderLogTab(cw)
	}

	contentH := a.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}
	content = fitHeight(content, contentH)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// fitHeight truncates or pads s to exactly h lines.
func fitHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
