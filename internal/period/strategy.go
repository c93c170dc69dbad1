package period

import (
	"fmt"

	"budgetbook/internal/core"
)

// Strategy computes the period of one mode around an anchor date.
// Each mode has its own implementation registered in strategies.
type Strategy interface {
	Period(anchor core.Date) Period
}

// DailyStrategy resolves the anchor day itself.
type DailyStrategy struct{}

func (DailyStrategy) Period(anchor core.Date) Period { return Daily(anchor) }

// WeeklyStrategy resolves the Monday-to-Sunday week around the anchor.
type WeeklyStrategy struct{}

func (WeeklyStrategy) Period(anchor core.Date) Period { return Weekly(anchor) }

// MonthlyStrategy resolves the calendar month of the anchor.
type MonthlyStrategy struct{}

func (MonthlyStrategy) Period(anchor core.Date) Period {
	return Monthly(anchor.Year(), anchor.Month())
}

var strategies = map[Mode]Strategy{
	ModeDaily:   DailyStrategy{},
	ModeWeekly:  WeeklyStrategy{},
	ModeMonthly: MonthlyStrategy{},
}

// GetStrategy returns the strategy registered for mode.
func GetStrategy(mode Mode) (Strategy, error) {
	s, ok := strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidMode, mode)
	}
	return s, nil
}

// Resolve computes the period of mode around anchor.
func Resolve(mode Mode, anchor core.Date) (Period, error) {
	s, err := GetStrategy(mode)
	if err != nil {
		return Period{}, err
	}
	return s.Period(anchor), nil
}

// Selection is the raw input of a period picker: a mode plus the anchors
// each mode reads. Monthly views use Year and Month when set, otherwise the
// month of Date.
type Selection struct {
	Mode  Mode
	Date  core.Date
	Year  int
	Month string
}

// Period resolves the selection.
func (s Selection) Period() (Period, error) {
	if s.Mode == ModeMonthly && s.Year > 0 && s.Month != "" {
		m, err := MonthFromName(s.Month)
		if err != nil {
			return Period{}, err
		}
		return Monthly(s.Year, m), nil
	}
	anchor := s.Date
	if anchor.IsZero() {
		anchor = core.Today()
	}
	return Resolve(s.Mode, anchor)
}
