// Package storage defines the ledger store contract and implements it on SQLite.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
)

// Reader is the read side of the ledger.
type Reader interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, name string) (core.Category, bool, error)
	GetDefaultBudget(ctx context.Context, category string) (decimal.Decimal, bool, error)
	DefaultBudgets(ctx context.Context) (map[string]decimal.Decimal, error)
	SumAmount(ctx context.Context, category string, start, end core.Date) (decimal.Decimal, error)
	SumsByCategory(ctx context.Context, start, end core.Date) (map[string]decimal.Decimal, error)
	// ListTransactions returns the rows of one day, newest first.
	ListTransactions(ctx context.Context, date core.Date) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	// LatestTransactionDate returns the most recent date holding a row.
	LatestTransactionDate(ctx context.Context) (core.Date, bool, error)
}

// Writer is the mutation side of the ledger.
type Writer interface {
	UpsertDefaultBudget(ctx context.Context, category string, amount decimal.Decimal) error
	InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	DeleteTransactions(ctx context.Context, ids []int64) error
	// DeleteDayCategory removes every row of (date, category) and returns how many went.
	DeleteDayCategory(ctx context.Context, date core.Date, category string) (int64, error)
	// EnsureCategory creates the category if missing and returns the stored one.
	// An existing category keeps its group.
	EnsureCategory(ctx context.Context, name string, group core.Group) (core.Category, error)
}

// Tx is a ledger view bound to one store transaction.
type Tx interface {
	Reader
	Writer
}

// Ledger is a complete ledger store. Calls made directly on it auto-commit;
// WithTx groups a batch so that any error rolls the whole batch back.
type Ledger interface {
	Tx
	WithTx(ctx context.Context, fn func(Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
