package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/period"
	"budgetbook/internal/reconcile"
)

type topOutflow struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Pct    float64         `json:"pct"`
}

// reportView is what both the reports page and the JSON API show for a period.
type reportView struct {
	Title     string                 `json:"title"`
	Report    reconcile.Report       `json:"report"`
	Remaining decimal.Decimal        `json:"remaining"`
	UsedPct   float64                `json:"used_pct"`
	Pace      reconcile.Pace         `json:"pace"`
	Top       []topOutflow           `json:"top"`
	Shares    []reconcile.GroupShare `json:"shares"`
	TotalFlow decimal.Decimal        `json:"total_flow"`
}

type reportsPage struct {
	Nav    string
	ViewBy period.Mode
	Year   int
	Month  string
	Date   core.Date
	Modes  []period.Mode
	Months []string
	reportView
}

// parseSelection reads view_by, year, month and date, falling back to a
// monthly view of the current month for anything missing or malformed.
func parseSelection(r *http.Request, now time.Time) period.Selection {
	q := r.URL.Query()
	sel := period.Selection{
		Mode:  period.ModeMonthly,
		Date:  dateOrDefault(q.Get("date"), core.DateOf(now)),
		Year:  now.Year(),
		Month: currentMonthAbbrev(now),
	}
	if m, err := period.ParseMode(q.Get("view_by")); err == nil {
		sel.Mode = m
	}
	if y, err := strconv.Atoi(strings.TrimSpace(q.Get("year"))); err == nil && y > 0 && y < 10000 {
		sel.Year = y
	}
	if m, err := period.MonthFromName(q.Get("month")); err == nil {
		sel.Month = monthAbbrevs[m-1]
	}
	return sel
}

func (s *Server) buildReportView(r *http.Request, p period.Period) (reportView, error) {
	rep, err := s.report(r.Context(), p)
	if err != nil {
		return reportView{}, err
	}
	sum := rep.Summary
	v := reportView{
		Title:     p.Title(),
		Report:    rep,
		Remaining: sum.Remaining(),
		UsedPct:   sum.UsedPercent(),
		Pace:      reconcile.PaceOf(sum.UsedPercent()),
		Shares:    rep.GroupShares(),
	}
	for _, row := range rep.TopOutflows(s.topN) {
		v.Top = append(v.Top, topOutflow{
			Name:   row.Category,
			Amount: row.Actual,
			Pct:    core.Percent(row.Actual, sum.OutflowBudgeted),
		})
	}
	for _, sh := range v.Shares {
		v.TotalFlow = v.TotalFlow.Add(sh.Actual)
	}
	return v, nil
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	sel := parseSelection(r, time.Now())
	p, err := sel.Period()
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	view, err := s.buildReportView(r, p)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	s.render(w, r, "reports.html", reportsPage{
		Nav:        "reports",
		ViewBy:     sel.Mode,
		Year:       sel.Year,
		Month:      sel.Month,
		Date:       sel.Date,
		Modes:      period.Modes,
		Months:     monthAbbrevs,
		reportView: view,
	})
}

// handleAPIReconcile serves the same report as JSON.
func (s *Server) handleAPIReconcile(w http.ResponseWriter, r *http.Request) {
	sel := parseSelection(r, time.Now())
	p, err := sel.Period()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	view, err := s.buildReportView(r, p)
	if err != nil {
		s.logger.LogError(r.Context(), "Reconcile failed", err, applog.ComponentHTTP, applog.OpReconcile, nil)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reconcile failed"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}
