// Package worker reacts to ledger change events: it recomputes the affected
// monthly reports, raises budget alerts and mirrors the reports to sinks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/reconcile"
	"budgetbook/internal/sheets"
)

// DefaultThreshold is the outflow usage percentage above which a category alerts.
const DefaultThreshold = 90.0

// Alert is one outflow category whose monthly usage crossed the threshold.
type Alert struct {
	Month    string
	Category string
	Group    core.Group
	Budgeted string
	Actual   string
	Usage    float64
}

// Consumer delivers ledger change events until ctx is done.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// AlertWorker recomputes monthly reports on ledger changes.
type AlertWorker struct {
	engine    *reconcile.Engine
	sink      sheets.ReportSink
	threshold float64
	now       func() time.Time

	// OnAlert, when set, receives every alert in addition to the log line.
	OnAlert func(context.Context, Alert)
}

// NewAlertWorker creates a worker over src. sink may be nil; a threshold <= 0
// selects DefaultThreshold.
func NewAlertWorker(src reconcile.Source, sink sheets.ReportSink, thresholdPct float64) *AlertWorker {
	if thresholdPct <= 0 {
		thresholdPct = DefaultThreshold
	}
	return &AlertWorker{
		engine:    reconcile.NewEngine(src),
		sink:      sink,
		threshold: thresholdPct,
		now:       time.Now,
	}
}

// HandleLedgerChanged recomputes every month named by msg. Budget changes
// name no month and refresh the current one.
func (w *AlertWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"id", msg.ID,
		"action", msg.Action,
		"months", msg.Months)

	months := msg.Months
	if msg.AllMonths() {
		months = []string{core.DateOf(w.now()).MonthKey()}
	}

	var errs []error
	for _, key := range months {
		if _, err := w.RefreshMonth(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RefreshMonth recomputes one month, logs its alerts and writes it to the sink.
func (w *AlertWorker) RefreshMonth(ctx context.Context, monthKey string) ([]Alert, error) {
	p, err := period.MonthOf(monthKey)
	if err != nil {
		// A malformed key will never parse; don't requeue it.
		slog.WarnContext(ctx, "Skipping invalid month", "month", monthKey, "error", err)
		return nil, nil
	}
	report, err := w.engine.Reconcile(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", monthKey, err)
	}

	alerts := w.alerts(monthKey, report)
	for _, a := range alerts {
		slog.WarnContext(ctx, "Budget threshold exceeded",
			"month", a.Month,
			"category", a.Category,
			"group", a.Group,
			"usage_pct", a.Usage,
			"budgeted", a.Budgeted,
			"actual", a.Actual)
		if w.OnAlert != nil {
			w.OnAlert(ctx, a)
		}
	}

	if w.sink != nil {
		if err := w.sink.WriteReport(ctx, monthKey, report); err != nil {
			return alerts, fmt.Errorf("write report %s: %w", monthKey, err)
		}
	}
	slog.InfoContext(ctx, "Month refreshed",
		"month", monthKey,
		"used_pct", report.Summary.UsedPercent(),
		"alerts", len(alerts))
	return alerts, nil
}

func (w *AlertWorker) alerts(monthKey string, r reconcile.Report) []Alert {
	var out []Alert
	for _, row := range r.Rows {
		if !row.Group.IsOutflow() || row.Usage <= w.threshold {
			continue
		}
		out = append(out, Alert{
			Month:    monthKey,
			Category: row.Category,
			Group:    row.Group,
			Budgeted: core.FormatCurrency(row.Budgeted),
			Actual:   core.FormatCurrency(row.Actual),
			Usage:    row.Usage,
		})
	}
	return out
}

// Run consumes events and refreshes the current month every interval until
// ctx is cancelled or either loop fails. An interval <= 0 disables the
// periodic refresh.
func (w *AlertWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeLedgerChanged(ctx, w.HandleLedgerChanged)
		})
	}
	if interval > 0 {
		g.Go(func() error {
			return w.refreshLoop(ctx, interval)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *AlertWorker) refreshLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.RefreshMonth(ctx, core.DateOf(w.now()).MonthKey()); err != nil {
			slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
