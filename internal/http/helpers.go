package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

// monthAbbrevs are the month values the report picker submits.
var monthAbbrevs = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// dateOrDefault parses a YYYY-MM-DD value, falling back to def when it is
// missing or malformed.
func dateOrDefault(s string, def core.Date) core.Date {
	if d, err := core.ParseDate(strings.TrimSpace(s)); err == nil {
		return d
	}
	return def
}

// sanitizeInput removes control characters except tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// safeNext returns next when it is a same-origin path, otherwise fallback.
// Absolute URLs, scheme-relative URLs and backslash tricks are rejected.
func safeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

func dailyURL(d core.Date) string {
	return "/?date=" + d.String()
}

func logsURL(d core.Date) string {
	return "/logs?date=" + d.String()
}

// parseSignedAmount reads a log amount. Unlike core.ParseAmount it keeps the
// sign, since adjustment rows carry negative deltas.
func parseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// templateFuncs are the helpers every page template can call.
func templateFuncs() map[string]any {
	return map[string]any{
		"money":  core.FormatCurrency,
		"amount": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"pct":    func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
		"bar": func(f float64) int {
			if f < 0 {
				return 0
			}
			if f > 100 {
				return 100
			}
			return int(f + 0.5)
		},
		"usageClass": usageClass,
		"negative":   func(d decimal.Decimal) bool { return d.IsNegative() },
		"lower":      strings.ToLower,
		"fmtDate":    func(d core.Date) string { return d.Format("02 January 2006") },
	}
}

// usageClass colours a usage cell: over budget is bad for outflows and good
// for income and savings.
func usageClass(usage float64, favorable bool) string {
	switch {
	case usage > 100 && favorable:
		return "good"
	case usage > 100:
		return "bad"
	case usage > 80 && !favorable:
		return "warn"
	}
	return ""
}

func currentMonthAbbrev(now time.Time) string {
	return monthAbbrevs[now.Month()-1]
}
