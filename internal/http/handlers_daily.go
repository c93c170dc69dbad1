package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"budgetbook/internal/adjust"
	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/period"
	"budgetbook/internal/reconcile"
	"budgetbook/internal/services"
)

type dailyPage struct {
	Nav          string
	Date         core.Date
	Prev, Next   core.Date
	Income       decimal.Decimal
	Spend        decimal.Decimal
	Saved        decimal.Decimal
	Net          decimal.Decimal
	ExpenseLeft  decimal.Decimal
	Groups       []reconcile.GroupRows
	Transactions []core.Transaction
	AllGroups    []core.Group
	Categories   []core.Category
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := dateOrDefault(r.URL.Query().Get("date"), core.Today())

	rep, err := s.report(ctx, period.Daily(date))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	txs, err := s.svc.DayTransactions(ctx, date)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	reg, err := s.svc.Categories(ctx)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	s.render(w, r, "daily.html", dailyPage{
		Nav:          "daily",
		Date:         date,
		Prev:         date.AddDays(-1),
		Next:         date.AddDays(1),
		Income:       rep.Summary.IncomeActual,
		Spend:        rep.Summary.OutflowActual,
		Saved:        rep.Summary.SavingActual,
		Net:          rep.Summary.Net,
		ExpenseLeft:  rep.Summary.Remaining(),
		Groups:       rep.ByGroup(),
		Transactions: txs,
		AllGroups:    core.Groups,
		Categories:   reg.Categories(),
	})
}

// handleDailySubmit applies the daily grid: budget_<category> fields at the
// daily ratio and actual_<category> fields as new totals for the day.
func (s *Server) handleDailySubmit(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	date, err := core.ParseDate(r.PostForm.Get("date"))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	budgets := ParseFieldBatch(r.PostForm, budgetPrefix)
	actuals := ParseFieldBatch(r.PostForm, actualPrefix)
	current, err := s.svc.DefaultBudgets(ctx, period.Ratio(period.ModeDaily))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	dropUnchanged(budgets.Values, current)

	// The grid shows totals at 2dp; an untouched sub-cent total must not be retargeted.
	day, err := s.svc.Reconcile(ctx, period.Daily(date))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	totals := make(map[string]decimal.Decimal, len(day.Rows))
	for _, row := range day.Rows {
		totals[row.Category] = row.Actual
	}
	dropUnchanged(actuals.Values, totals)

	res, err := s.svc.ApplyDailyEdits(ctx, date, adjust.DailyEdits{Budgets: budgets.Values, Actuals: actuals.Values})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	resp := NewHTMXResponse().Redirect(dailyURL(date))
	if res.Changed() {
		s.logger.LogMutation(ctx, applog.OpDaily, date.String(), "", applog.NewFields().
			With(applog.FieldCount, res.Budgets+len(res.Outcomes)))
		resp.TriggerLedgerChanged(date).TriggerSuccessNotification("Day updated")
	}
	if skipped := len(budgets.Skipped) + len(actuals.Skipped); skipped > 0 {
		applog.FromContext(ctx).WarnContext(ctx, "Ignored malformed daily fields",
			"budgets", budgets.Skipped, "actuals", actuals.Skipped)
		resp.TriggerNotification(NotificationWarning, fmt.Sprintf("%d malformed value(s) ignored", skipped), 5000)
	}
	resp.Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	form := r.PostForm

	date, err := core.ParseDate(form.Get("date"))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	group, err := core.ParseGroup(form.Get("group"))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	amount, err := core.ParseAmount(form.Get("amount"))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	category := sanitizeInput(form.Get("category"))

	id, err := s.svc.AddTransaction(ctx, services.NewTransaction{
		Date:        date,
		Group:       group,
		Category:    category,
		Amount:      amount,
		Description: sanitizeInput(form.Get("description")),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	s.logger.LogMutation(ctx, applog.OpAdd, date.String(), category, applog.NewFields().
		With(applog.FieldAmount, amount.String()).
		With("id", id))

	NewHTMXResponse().
		Redirect(safeNext(form.Get("next"), dailyURL(date))).
		TriggerLedgerChanged(date).
		TriggerSuccessNotification(fmt.Sprintf("Recorded %s for %s", core.FormatCurrency(amount), category)).
		Write(w)
}

// handleDeleteTransaction removes one row and returns to a local next URL,
// or to the logs of date.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequestError("Invalid transaction id").Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	removed, err := s.svc.DeleteTransaction(ctx, id)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	s.logger.LogMutation(ctx, applog.OpDelete, removed.Date.String(), removed.Category, applog.NewFields().With("id", id))

	date := dateOrDefault(r.Form.Get("date"), removed.Date)
	NewHTMXResponse().
		Redirect(safeNext(r.Form.Get("next"), logsURL(date))).
		TriggerLedgerChanged(removed.Date).
		Write(w)
}

func (s *Server) handleClearDay(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	date, err := core.ParseDate(r.Form.Get("date"))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	category := core.NormalizeName(r.Form.Get("category"))
	if category == "" {
		ErrorFor(r, core.ErrEmptyCategory).Write(w)
		return
	}

	n, err := s.svc.ClearDay(ctx, date, category)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	resp := NewHTMXResponse().Redirect(safeNext(r.Form.Get("next"), dailyURL(date)))
	if n > 0 {
		s.logger.LogMutation(ctx, applog.OpClear, date.String(), category, applog.NewFields().With(applog.FieldCount, n))
		resp.TriggerLedgerChanged(date)
	}
	resp.Write(w)
}
