// Package period computes the closed date interval and pro-ration ratio of a
// daily, weekly or monthly view.
//
// The ratio scales a standing monthly budget to the interval. Daily and weekly
// views divide by the average month length DaysPerMonth; a monthly view always
// uses 1.0 whatever the month's actual length, so monthly budgets compare
// directly against monthly actuals.
package period

import (
	"fmt"
	"strings"
	"time"

	"budgetbook/internal/core"
)

// DaysPerMonth is the nominal month length used to pro-rate daily and weekly views.
const DaysPerMonth = 30.44

// Mode selects the granularity of a view.
type Mode string

const (
	ModeDaily   Mode = "Daily"
	ModeWeekly  Mode = "Weekly"
	ModeMonthly Mode = "Monthly"
)

// Modes lists every mode in menu order.
var Modes = []Mode{ModeDaily, ModeWeekly, ModeMonthly}

// Period is a closed interval [Start, End] with its budget ratio.
type Period struct {
	Mode  Mode
	Start core.Date
	End   core.Date
	Ratio float64
}

// ParseMode accepts a mode name case-insensitively. A single letter
// (d, w, m) is accepted as shorthand.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "d":
		return ModeDaily, nil
	case "weekly", "week", "w":
		return ModeWeekly, nil
	case "monthly", "month", "m":
		return ModeMonthly, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidMode, s)
}

func (m Mode) String() string {
	return string(m)
}

// Ratio returns the factor scaling a monthly budget to one interval of mode m.
// Unknown modes return 0 so callers fall back to treating values as monthly.
func Ratio(m Mode) float64 {
	switch m {
	case ModeDaily:
		return 1 / DaysPerMonth
	case ModeWeekly:
		return 7 / DaysPerMonth
	case ModeMonthly:
		return 1.0
	}
	return 0
}

// Daily returns the single-day period of anchor.
func Daily(anchor core.Date) Period {
	return Period{Mode: ModeDaily, Start: anchor, End: anchor, Ratio: Ratio(ModeDaily)}
}

// Weekly returns the Monday-to-Sunday week containing anchor.
func Weekly(anchor core.Date) Period {
	offset := (int(anchor.Weekday()) + 6) % 7
	start := anchor.AddDays(-offset)
	return Period{Mode: ModeWeekly, Start: start, End: start.AddDays(6), Ratio: Ratio(ModeWeekly)}
}

// Monthly returns the calendar month (year, month).
func Monthly(year int, month time.Month) Period {
	start := core.NewDate(year, month, 1)
	next := core.Date{Time: start.AddDate(0, 1, 0)}
	return Period{Mode: ModeMonthly, Start: start, End: next.AddDays(-1), Ratio: Ratio(ModeMonthly)}
}

// MonthOf returns the monthly period of a YYYY-MM key.
func MonthOf(key string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(key))
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", core.ErrInvalidMonth, key)
	}
	return Monthly(t.Year(), t.Month()), nil
}

// MonthFromName parses "Jan".."Dec" or a full English month name.
func MonthFromName(name string) (time.Month, error) {
	name = strings.TrimSpace(name)
	for m := time.January; m <= time.December; m++ {
		full := m.String()
		if strings.EqualFold(name, full) || strings.EqualFold(name, full[:3]) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", core.ErrInvalidMonth, name)
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d core.Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// Key identifies the period for caching.
func (p Period) Key() string {
	return fmt.Sprintf("%s:%s:%s", p.Mode, p.Start, p.End)
}

// Title is a human label such as "2025-03-14", "Week of 2025-03-10" or "March 2025".
func (p Period) Title() string {
	switch p.Mode {
	case ModeWeekly:
		return "Week of " + p.Start.String()
	case ModeMonthly:
		return p.Start.Format("January 2006")
	}
	return p.Start.String()
}
