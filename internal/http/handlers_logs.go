package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"budgetbook/internal/adjust"
	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
)

type logsPage struct {
	Nav          string
	Date         core.Date
	Prev, Next   core.Date
	Transactions []core.Transaction
	TotalFlow    decimal.Decimal
	Categories   []core.Category
}

// handleLogs lists one day's rows, defaulting to the latest day with rows.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	latest, err := s.svc.LatestDate(ctx)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	date := dateOrDefault(r.URL.Query().Get("date"), latest)

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

	page := logsPage{
		Nav:          "logs",
		Date:         date,
		Prev:         date.AddDays(-1),
		Next:         date.AddDays(1),
		Transactions: txs,
		Categories:   reg.Categories(),
	}
	for _, t := range txs {
		page.TotalFlow = page.TotalFlow.Add(t.Amount)
	}
	s.render(w, r, "logs.html", page)
}

// handleLogsSubmit replaces the day's rows (optionally one category's) with
// the submitted list. JSON callers get the counts back; forms are redirected.
func (s *Server) handleLogsSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	edit, err := ParseLogEdit(r)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	res, err := s.svc.SyncLog(ctx, adjust.LogScope{Date: edit.Date, Category: edit.Scope}, edit.Rows)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	if res.Changed() {
		s.logger.LogMutation(ctx, applog.OpLogSync, edit.Date.String(), edit.Scope, applog.NewFields().
			With("inserted", res.Inserted).
			With("updated", res.Updated).
			With("deleted", res.Deleted))
	}

	if isJSON(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	resp := NewHTMXResponse().Redirect(logsURL(edit.Date))
	if res.Changed() {
		resp.TriggerLedgerChanged(edit.Date).TriggerSuccessNotification(
			fmt.Sprintf("%d added, %d updated, %d removed", res.Inserted, res.Updated, res.Deleted))
	}
	resp.Write(w)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
