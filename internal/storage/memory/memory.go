// Package memory is an in-process ledger store. Transactions work on a copy of
// the state that replaces the live one only when the batch succeeds.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

type Store struct {
	mu sync.Mutex
	st *state
}

var _ storage.Ledger = (*Store)(nil)

type state struct {
	cats    []core.Category
	budgets map[string]decimal.Decimal
	rows    []core.Transaction
	nextID  int64
}

// New returns a store seeded with categories. Duplicate names keep the first group.
func New(categories []core.Category) *Store {
	st := &state{budgets: map[string]decimal.Decimal{}, nextID: 1}
	v := view{st}
	for _, c := range categories {
		if c.Validate() != nil {
			continue
		}
		_, _ = v.EnsureCategory(context.Background(), c.Name, c.Group)
	}
	return &Store{st: st}
}

// NewStarter returns a store seeded with the starter categories.
func NewStarter() *Store {
	return New(core.StarterCategories)
}

// NewFromFile seeds categories from a two-column Name,Group CSV file. Names
// may be quoted to hold commas. Blank lines, # comments and malformed records
// are skipped; a missing or empty file yields the starter set.
func NewFromFile(path string) *Store {
	cats := readCategories(path)
	if len(cats) == 0 {
		return NewStarter()
	}
	return New(cats)
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = 2
	r.TrimLeadingSpace = true
	var out []core.Category
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}
		if err != nil {
			break
		}
		g, err := core.ParseGroup(rec[1])
		if err != nil {
			continue
		}
		out = append(out, core.Category{Name: core.NormalizeName(rec[0]), Group: g})
	}
	return out
}

func (s *Store) do(fn func(v view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(view{s.st})
}

func (s *Store) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.st.clone()
	if err := fn(view{draft}); err != nil {
		return err
	}
	s.st = draft
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListCategories(ctx context.Context) (out []core.Category, err error) {
	err = s.do(func(v view) error { out, err = v.ListCategories(ctx); return err })
	return
}

func (s *Store) GetCategory(ctx context.Context, name string) (c core.Category, ok bool, err error) {
	err = s.do(func(v view) error { c, ok, err = v.GetCategory(ctx, name); return err })
	return
}

func (s *Store) GetDefaultBudget(ctx context.Context, category string) (d decimal.Decimal, ok bool, err error) {
	err = s.do(func(v view) error { d, ok, err = v.GetDefaultBudget(ctx, category); return err })
	return
}

func (s *Store) DefaultBudgets(ctx context.Context) (out map[string]decimal.Decimal, err error) {
	err = s.do(func(v view) error { out, err = v.DefaultBudgets(ctx); return err })
	return
}

func (s *Store) SumAmount(ctx context.Context, category string, start, end core.Date) (d decimal.Decimal, err error) {
	err = s.do(func(v view) error { d, err = v.SumAmount(ctx, category, start, end); return err })
	return
}

func (s *Store) SumsByCategory(ctx context.Context, start, end core.Date) (out map[string]decimal.Decimal, err error) {
	err = s.do(func(v view) error { out, err = v.SumsByCategory(ctx, start, end); return err })
	return
}

func (s *Store) ListTransactions(ctx context.Context, date core.Date) (out []core.Transaction, err error) {
	err = s.do(func(v view) error { out, err = v.ListTransactions(ctx, date); return err })
	return
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (t core.Transaction, err error) {
	err = s.do(func(v view) error { t, err = v.GetTransaction(ctx, id); return err })
	return
}

func (s *Store) LatestTransactionDate(ctx context.Context) (d core.Date, ok bool, err error) {
	err = s.do(func(v view) error { d, ok, err = v.LatestTransactionDate(ctx); return err })
	return
}

func (s *Store) UpsertDefaultBudget(ctx context.Context, category string, amount decimal.Decimal) error {
	return s.do(func(v view) error { return v.UpsertDefaultBudget(ctx, category, amount) })
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (id int64, err error) {
	err = s.do(func(v view) error { id, err = v.InsertTransaction(ctx, t); return err })
	return
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return s.do(func(v view) error { return v.UpdateTransaction(ctx, t) })
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	return s.do(func(v view) error { return v.DeleteTransaction(ctx, id) })
}

func (s *Store) DeleteTransactions(ctx context.Context, ids []int64) error {
	return s.do(func(v view) error { return v.DeleteTransactions(ctx, ids) })
}

func (s *Store) DeleteDayCategory(ctx context.Context, date core.Date, category string) (n int64, err error) {
	err = s.do(func(v view) error { n, err = v.DeleteDayCategory(ctx, date, category); return err })
	return
}

func (s *Store) EnsureCategory(ctx context.Context, name string, group core.Group) (c core.Category, err error) {
	err = s.do(func(v view) error { c, err = v.EnsureCategory(ctx, name, group); return err })
	return
}

func (st *state) clone() *state {
	out := &state{
		cats:    append([]core.Category(nil), st.cats...),
		budgets: make(map[string]decimal.Decimal, len(st.budgets)),
		rows:    append([]core.Transaction(nil), st.rows...),
		nextID:  st.nextID,
	}
	for k, v := range st.budgets {
		out.budgets[k] = v
	}
	return out
}

// view implements storage.Tx over a state without locking.
type view struct {
	st *state
}

func (v view) ListCategories(context.Context) ([]core.Category, error) {
	return append([]core.Category(nil), v.st.cats...), nil
}

func (v view) GetCategory(_ context.Context, name string) (core.Category, bool, error) {
	for _, c := range v.st.cats {
		if c.Name == name {
			return c, true, nil
		}
	}
	return core.Category{}, false, nil
}

func (v view) EnsureCategory(ctx context.Context, name string, group core.Group) (core.Category, error) {
	c := core.Category{Name: name, Group: group}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if existing, ok, _ := v.GetCategory(ctx, name); ok {
		return existing, nil
	}
	v.st.cats = append(v.st.cats, c)
	return c, nil
}

func (v view) GetDefaultBudget(_ context.Context, category string) (decimal.Decimal, bool, error) {
	d, ok := v.st.budgets[category]
	return d, ok, nil
}

func (v view) DefaultBudgets(context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(v.st.budgets))
	for k, d := range v.st.budgets {
		out[k] = d
	}
	return out, nil
}

func (v view) UpsertDefaultBudget(_ context.Context, category string, amount decimal.Decimal) error {
	b := core.Budget{Category: category, Month: core.DefaultMonth, Amount: amount}
	if err := b.Validate(); err != nil {
		return err
	}
	v.st.budgets[category] = amount
	return nil
}

func inRange(d, start, end core.Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

func (v view) SumAmount(_ context.Context, category string, start, end core.Date) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, r := range v.st.rows {
		if r.Category == category && inRange(r.Date, start, end) {
			sum = sum.Add(r.Amount)
		}
	}
	return sum, nil
}

func (v view) SumsByCategory(_ context.Context, start, end core.Date) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	for _, r := range v.st.rows {
		if inRange(r.Date, start, end) {
			out[r.Category] = out[r.Category].Add(r.Amount)
		}
	}
	return out, nil
}

func (v view) ListTransactions(_ context.Context, date core.Date) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, r := range v.st.rows {
		if r.Date.Equal(date.Time) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (v view) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	if i := v.index(id); i >= 0 {
		return v.st.rows[i], nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
}

func (v view) LatestTransactionDate(context.Context) (core.Date, bool, error) {
	var latest core.Date
	for _, r := range v.st.rows {
		if r.Date.After(latest.Time) {
			latest = r.Date
		}
	}
	return latest, !latest.IsZero(), nil
}

func (v view) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	t.ID = v.st.nextID
	v.st.nextID++
	v.st.rows = append(v.st.rows, t)
	return t.ID, nil
}

func (v view) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	i := v.index(t.ID)
	if i < 0 {
		return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	v.st.rows[i] = t
	return nil
}

func (v view) DeleteTransaction(ctx context.Context, id int64) error {
	if v.index(id) < 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return v.DeleteTransactions(ctx, []int64{id})
}

func (v view) DeleteTransactions(_ context.Context, ids []int64) error {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]core.Transaction, 0, len(v.st.rows))
	for _, r := range v.st.rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	v.st.rows = kept
	return nil
}

func (v view) DeleteDayCategory(_ context.Context, date core.Date, category string) (int64, error) {
	kept := make([]core.Transaction, 0, len(v.st.rows))
	var n int64
	for _, r := range v.st.rows {
		if r.Date.Equal(date.Time) && r.Category == category {
			n++
			continue
		}
		kept = append(kept, r)
	}
	v.st.rows = kept
	return n, nil
}

func (v view) index(id int64) int {
	for i, r := range v.st.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}
