package http

import (
	"net/http"
	"net/url"
	"sort"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/period"
)

type budgetRow struct {
	Category string
	Amount   decimal.Decimal
}

type budgetGroup struct {
	Group core.Group
	Rows  []budgetRow
	Total decimal.Decimal
}

type budgetPage struct {
	Nav       string
	Frequency period.Mode
	Modes     []period.Mode
	Groups    []budgetGroup
}

// frequencyOf reads the frequency parameter, defaulting to Monthly.
func frequencyOf(v string) period.Mode {
	if m, err := period.ParseMode(v); err == nil {
		return m
	}
	return period.ModeMonthly
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	freq := frequencyOf(r.URL.Query().Get("frequency"))

	reg, err := s.svc.Categories(ctx)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	budgets, err := s.svc.DefaultBudgets(ctx, period.Ratio(freq))
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	buckets := map[core.Group][]budgetRow{}
	for _, c := range reg.Categories() {
		buckets[c.Group] = append(buckets[c.Group], budgetRow{Category: c.Name, Amount: budgets[c.Name]})
	}
	page := budgetPage{Nav: "budget", Frequency: freq, Modes: period.Modes}
	for _, g := range core.Groups {
		rows := buckets[g]
		if len(rows) == 0 {
			continue
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Category < rows[j].Category })
		bg := budgetGroup{Group: g, Rows: rows}
		for _, row := range rows {
			bg.Total = bg.Total.Add(row.Amount)
		}
		page.Groups = append(page.Groups, bg)
	}
	s.render(w, r, "budget.html", page)
}

// handleBudgetSubmit stores budget_<category> values read at the frequency's ratio.
func (s *Server) handleBudgetSubmit(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	freq := frequencyOf(r.PostForm.Get("frequency"))
	ratio := period.Ratio(freq)

	batch := ParseFieldBatch(r.PostForm, budgetPrefix)
	current, err := s.svc.DefaultBudgets(ctx, ratio)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	dropUnchanged(batch.Values, current)

	if err := s.svc.SetBudgets(ctx, batch.Values, ratio); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	resp := NewHTMXResponse().Redirect("/budget?frequency=" + url.QueryEscape(freq.String()))
	if n := len(batch.Values); n > 0 {
		s.logger.LogMutation(ctx, applog.OpBudget, core.DefaultMonth, "", applog.NewFields().
			With(applog.FieldCount, n).
			With(applog.FieldMode, freq.String()))
		resp.TriggerBudgetsChanged().TriggerSuccessNotification("Budgets saved")
	}
	resp.Write(w)
}
