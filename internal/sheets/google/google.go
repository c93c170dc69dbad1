package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"budgetbook/internal/reconcile"
	ports "budgetbook/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultTabBase = "Budget"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Tab suffix; the month key is prefixed ("2025-03 Budget").
	tabBase string

	mu                 sync.Mutex
	knownTabs          map[string]struct{}
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var _ ports.ReportSink = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME, the tab suffix (default "Budget").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME")), nil
}

// New wraps an existing service.
func New(svc *gsheet.Service, spreadsheetID, tabBase string) *Client {
	tabBase = strings.TrimSpace(tabBase)
	if tabBase == "" {
		tabBase = defaultTabBase
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		tabBase:            tabBase,
		cacheValidDuration: 10 * time.Minute,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteReport replaces the month's tab with the report, creating the tab if
// the spreadsheet does not have it yet.
func (c *Client) WriteReport(ctx context.Context, monthKey string, report reconcile.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := c.tabTitle(monthKey)
	if err := c.ensureTab(ctx, title); err != nil {
		return err
	}

	rng := fmt.Sprintf("'%s'!A:H", title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	values := reportValues(report)
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", title), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write report to %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Report mirrored to sheet", "sheet", title, "rows", len(values))
	return nil
}

func (c *Client) tabTitle(monthKey string) string {
	return strings.TrimSpace(monthKey) + " " + c.tabBase
}

func (c *Client) ensureTab(ctx context.Context, title string) error {
	if c.hasTab(title) {
		return nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	c.rememberTabs(titles...)
	if c.hasTab(title) {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Added sheet", "sheet", title)
	c.rememberTabs(title)
	return nil
}

func (c *Client) hasTab(title string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().After(c.cacheExpiresAt) {
		c.knownTabs = nil
		return false
	}
	_, ok := c.knownTabs[title]
	return ok
}

func (c *Client) rememberTabs(titles ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.knownTabs == nil || time.Now().After(c.cacheExpiresAt) {
		c.knownTabs = make(map[string]struct{}, len(titles))
		c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	}
	for _, t := range titles {
		c.knownTabs[t] = struct{}{}
	}
}

// InvalidateTabCache forces the next write to list the spreadsheet's tabs again.
func (c *Client) InvalidateTabCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.knownTabs = nil
	c.cacheExpiresAt = time.Time{}
}
