package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// DefaultMonth marks the standing monthly budget row of a category.
const DefaultMonth = "DEFAULT"

// AdjustmentMarker is the description carried by synthetic adjustment rows.
const AdjustmentMarker = "Daily Manager Adjustment"

const (
	GroupIncome  Group = "Income"
	GroupBill    Group = "Bill"
	GroupExpense Group = "Expense"
	GroupSaving  Group = "Saving"
	GroupDebt    Group = "Debt"
)

const (
	KindIncome  Kind = "Income"
	KindExpense Kind = "Expense"
)

type (
	// Group classifies a category's polarity for variance computation.
	Group string

	// Kind is the stored direction of a transaction.
	Kind string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          int64
		Date        Date
		Kind        Kind
		Category    string
		Amount      decimal.Decimal
		Description string
	}

	Category struct {
		Name  string
		Group Group
	}

	Budget struct {
		Category string
		Month    string
		Amount   decimal.Decimal
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidGroup    = errors.New("invalid group")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidMode     = errors.New("invalid period mode")
	ErrEmptyCategory   = errors.New("empty category")
	ErrNotFound        = errors.New("not found")
	ErrDescriptionSize = errors.New("description too long (max 200 characters)")
)

// Groups lists every group in display order.
var Groups = []Group{GroupIncome, GroupBill, GroupExpense, GroupSaving, GroupDebt}

// ParseGroup accepts a group name case-insensitively.
func ParseGroup(s string) (Group, error) {
	s = strings.TrimSpace(s)
	for _, g := range Groups {
		if strings.EqualFold(s, string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroup, s)
}

func (g Group) Valid() bool {
	for _, known := range Groups {
		if g == known {
			return true
		}
	}
	return false
}

// IsOutflow reports whether the group counts towards spending (Bill, Expense, Debt).
func (g Group) IsOutflow() bool {
	return g == GroupBill || g == GroupExpense || g == GroupDebt
}

// Order is the group's position in Groups; unknown groups sort last.
func (g Group) Order() int {
	for i, x := range Groups {
		if x == g {
			return i
		}
	}
	return len(Groups)
}

// OverIsFavorable reports whether exceeding the budget is a good outcome.
func (g Group) OverIsFavorable() bool {
	return g == GroupIncome || g == GroupSaving
}

// Kind returns the transaction direction recorded for rows in this group.
func (g Group) Kind() Kind {
	if g == GroupIncome {
		return KindIncome
	}
	return KindExpense
}

func (g Group) String() string {
	return string(g)
}

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return KindIncome, nil
	case "expense":
		return KindExpense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// MonthKey returns the YYYY-MM key of the date's month.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// IsAdjustment reports whether the row is a synthetic adjustment row.
func (t Transaction) IsAdjustment() bool {
	return t.Description == AdjustmentMarker
}

// Validate checks a transaction before it is written. Adjustment rows carry
// signed deltas, every other row must be non-negative.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsNegative() && !t.IsAdjustment() {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return ErrDescriptionSize
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if !c.Group.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGroup, c.Group)
	}
	return nil
}

// ValidMonth reports whether m is DEFAULT or a YYYY-MM key.
func ValidMonth(m string) bool {
	if m == DefaultMonth {
		return true
	}
	_, err := time.Parse("2006-01", m)
	return err == nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !ValidMonth(b.Month) {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, b.Month)
	}
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
