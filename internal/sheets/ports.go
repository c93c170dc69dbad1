package sheets

import (
	"context"

	"budgetbook/internal/reconcile"
)

// Ports for outbound adapters.
type (
	// ReportSink receives a freshly computed monthly report.
	ReportSink interface {
		// WriteReport replaces whatever the sink holds for monthKey (YYYY-MM).
		WriteReport(ctx context.Context, monthKey string, report reconcile.Report) error
	}
)
