package google

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/reconcile"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", os.DevNull+"/missing.json")

	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteReport_NoService(t *testing.T) {
	c := New(nil, "sheet-id", "")
	if err := c.WriteReport(context.Background(), "2025-03", reconcile.Report{}); err == nil {
		t.Error("expected error without a service")
	}
}

func TestTabTitle(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"", "2025-03 Budget"},
		{"  Mirror ", "2025-03 Mirror"},
	}
	for _, tt := range tests {
		if got := New(nil, "id", tt.base).tabTitle("2025-03"); got != tt.want {
			t.Errorf("tabTitle with base %q = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestTabCache(t *testing.T) {
	c := New(nil, "id", "")
	c.cacheValidDuration = 50 * time.Millisecond

	if c.hasTab("2025-03 Budget") {
		t.Fatal("cache should start empty")
	}
	c.rememberTabs("2025-03 Budget")
	if !c.hasTab("2025-03 Budget") {
		t.Error("remembered tab should be known")
	}
	time.Sleep(80 * time.Millisecond)
	if c.hasTab("2025-03 Budget") {
		t.Error("cache should expire")
	}

	c.rememberTabs("2025-04 Budget")
	c.InvalidateTabCache()
	if c.hasTab("2025-04 Budget") {
		t.Error("invalidated cache should be empty")
	}
}

func TestReportValues(t *testing.T) {
	cats := []core.Category{
		{Name: "Salary", Group: core.GroupIncome},
		{Name: "Rent", Group: core.GroupExpense},
		{Name: "Groceries", Group: core.GroupExpense},
	}
	d := decimal.NewFromInt
	report := reconcile.Compute(cats,
		map[string]decimal.Decimal{"Rent": d(1000), "Groceries": d(300)},
		map[string]decimal.Decimal{"Salary": d(2000), "Rent": d(1000), "Groceries": d(150)},
		1.0)
	report.Period = period.Monthly(2025, 3)

	values := reportValues(report)
	if values[0][0] != "March 2025" {
		t.Errorf("title row = %v", values[0])
	}
	if len(values[1]) != len(reportHeader) {
		t.Errorf("header = %v", values[1])
	}
	// Groups in display order, categories sorted by name within a group.
	if values[2][1] != "Salary" || values[3][1] != "Groceries" || values[4][1] != "Rent" {
		t.Errorf("category order = %v %v %v", values[2][1], values[3][1], values[4][1])
	}
	if values[3][3] != "150.00" || values[3][4] != "150.00" || values[3][5] != "50.0" {
		t.Errorf("groceries row = %v", values[3])
	}

	totals := values[len(values)-3]
	if totals[0] != "Total outflow" || totals[2] != "1300.00" || totals[3] != "1150.00" {
		t.Errorf("outflow totals = %v", totals)
	}
}
