package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the SQLite ledger.
type SQLiteRepository struct {
	ledgerQueries
	db *sql.DB
}

var _ Ledger = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before the main pool opens the file in WAL mode.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps SQLite from returning SQLITE_BUSY inside batches.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite ledger opened", "path", dbPath)
	return &SQLiteRepository{ledgerQueries: ledgerQueries{q: New(db)}, db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WithTx runs fn inside one SQL transaction, committing only if fn succeeds.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ledgerQueries{q: r.q.WithTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ledgerQueries maps the ledger contract onto Queries, bound to either the
// pool or a transaction.
type ledgerQueries struct {
	q *Queries
}

func (l ledgerQueries) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := l.q.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Category{Name: row.Name, Group: core.Group(row.GroupType)})
	}
	return out, nil
}

func (l ledgerQueries) GetCategory(ctx context.Context, name string) (core.Category, bool, error) {
	row, err := l.q.GetCategory(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, false, nil
	}
	if err != nil {
		return core.Category{}, false, fmt.Errorf("get category: %w", err)
	}
	return core.Category{Name: row.Name, Group: core.Group(row.GroupType)}, true, nil
}

func (l ledgerQueries) EnsureCategory(ctx context.Context, name string, group core.Group) (core.Category, error) {
	c := core.Category{Name: name, Group: group}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := l.q.InsertCategory(ctx, name, string(group)); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	stored, _, err := l.GetCategory(ctx, name)
	if err != nil {
		return core.Category{}, err
	}
	return stored, nil
}

func (l ledgerQueries) GetDefaultBudget(ctx context.Context, category string) (decimal.Decimal, bool, error) {
	amount, err := l.q.GetDefaultBudget(ctx, category)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get default budget: %w", err)
	}
	return decimal.NewFromFloat(amount), true, nil
}

func (l ledgerQueries) DefaultBudgets(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := l.q.ListDefaultBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list default budgets: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.Category] = decimal.NewFromFloat(row.Amount)
	}
	return out, nil
}

func (l ledgerQueries) UpsertDefaultBudget(ctx context.Context, category string, amount decimal.Decimal) error {
	b := core.Budget{Category: category, Month: core.DefaultMonth, Amount: amount}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := l.q.UpsertDefaultBudget(ctx, category, amount.InexactFloat64()); err != nil {
		return fmt.Errorf("upsert default budget: %w", err)
	}
	return nil
}

func (l ledgerQueries) SumAmount(ctx context.Context, category string, start, end core.Date) (decimal.Decimal, error) {
	total, err := l.q.SumAmount(ctx, category, start.String(), end.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum amount: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(total.Float64), nil
}

func (l ledgerQueries) SumsByCategory(ctx context.Context, start, end core.Date) (map[string]decimal.Decimal, error) {
	rows, err := l.q.SumsByCategory(ctx, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.Category] = decimal.NewFromFloat(row.Total)
	}
	return out, nil
}

func (l ledgerQueries) ListTransactions(ctx context.Context, date core.Date) ([]core.Transaction, error) {
	rows, err := l.q.ListTransactionsByDate(ctx, date.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (l ledgerQueries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := l.q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return toTransaction(row)
}

func (l ledgerQueries) LatestTransactionDate(ctx context.Context) (core.Date, bool, error) {
	latest, err := l.q.LatestTransactionDate(ctx)
	if err != nil {
		return core.Date{}, false, fmt.Errorf("latest transaction date: %w", err)
	}
	if !latest.Valid {
		return core.Date{}, false, nil
	}
	d, err := core.ParseDate(latest.String)
	if err != nil {
		return core.Date{}, false, err
	}
	return d, true, nil
}

func (l ledgerQueries) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	id, err := l.q.InsertTransaction(ctx, InsertTransactionParams{
		Date:        t.Date.String(),
		Type:        string(t.Kind),
		Category:    t.Category,
		Amount:      t.Amount.InexactFloat64(),
		Description: t.Description,
	})
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction inserted", "id", id, "category", t.Category, "date", t.Date.String())
	return id, nil
}

func (l ledgerQueries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	n, err := l.q.UpdateTransaction(ctx, UpdateTransactionParams{
		Date:        t.Date.String(),
		Type:        string(t.Kind),
		Category:    t.Category,
		Amount:      t.Amount.InexactFloat64(),
		Description: t.Description,
		ID:          t.ID,
	})
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (l ledgerQueries) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := l.q.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (l ledgerQueries) DeleteTransactions(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if _, err := l.q.DeleteTransaction(ctx, id); err != nil {
			return fmt.Errorf("delete transaction %d: %w", id, err)
		}
	}
	return nil
}

func (l ledgerQueries) DeleteDayCategory(ctx context.Context, date core.Date, category string) (int64, error) {
	n, err := l.q.DeleteDayCategory(ctx, date.String(), category)
	if err != nil {
		return 0, fmt.Errorf("delete day category: %w", err)
	}
	return n, nil
}

func toTransaction(row TransactionRow) (core.Transaction, error) {
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Date:        d,
		Kind:        core.Kind(row.Type),
		Category:    row.Category,
		Amount:      decimal.NewFromFloat(row.Amount),
		Description: row.Description,
	}, nil
}
