package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the ledger's SQL statements.
type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type CategoryRow struct {
	ID        int64
	Name      string
	GroupType string
}

type TransactionRow struct {
	ID          int64
	Date        string
	Type        string
	Category    string
	Amount      float64
	Description string
}

type CategorySum struct {
	Category string
	Total    float64
}

type BudgetRow struct {
	Category string
	Amount   float64
}

const listCategories = `-- name: ListCategories :many
SELECT id, name, group_type FROM categories ORDER BY id
`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var i CategoryRow
		if err := rows.Scan(&i.ID, &i.Name, &i.GroupType); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategory = `-- name: GetCategory :one
SELECT id, name, group_type FROM categories WHERE name = ?
`

func (q *Queries) GetCategory(ctx context.Context, name string) (CategoryRow, error) {
	row := q.db.QueryRowContext(ctx, getCategory, name)
	var i CategoryRow
	err := row.Scan(&i.ID, &i.Name, &i.GroupType)
	return i, err
}

const insertCategory = `-- name: InsertCategory :exec
INSERT OR IGNORE INTO categories (name, group_type) VALUES (?, ?)
`

func (q *Queries) InsertCategory(ctx context.Context, name, groupType string) error {
	_, err := q.db.ExecContext(ctx, insertCategory, name, groupType)
	return err
}

const getDefaultBudget = `-- name: GetDefaultBudget :one
SELECT amount FROM budgets WHERE category = ? AND month = 'DEFAULT'
`

func (q *Queries) GetDefaultBudget(ctx context.Context, category string) (float64, error) {
	row := q.db.QueryRowContext(ctx, getDefaultBudget, category)
	var amount float64
	err := row.Scan(&amount)
	return amount, err
}

const listDefaultBudgets = `-- name: ListDefaultBudgets :many
SELECT category, amount FROM budgets WHERE month = 'DEFAULT'
`

func (q *Queries) ListDefaultBudgets(ctx context.Context) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listDefaultBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetRow
	for rows.Next() {
		var i BudgetRow
		if err := rows.Scan(&i.Category, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertDefaultBudget = `-- name: UpsertDefaultBudget :exec
INSERT INTO budgets (category, amount, month) VALUES (?, ?, 'DEFAULT')
ON CONFLICT (category, month) DO UPDATE SET amount = excluded.amount
`

func (q *Queries) UpsertDefaultBudget(ctx context.Context, category string, amount float64) error {
	_, err := q.db.ExecContext(ctx, upsertDefaultBudget, category, amount)
	return err
}

const sumAmount = `-- name: SumAmount :one
SELECT SUM(amount) FROM transactions WHERE category = ? AND date BETWEEN ? AND ?
`

func (q *Queries) SumAmount(ctx context.Context, category, start, end string) (sql.NullFloat64, error) {
	row := q.db.QueryRowContext(ctx, sumAmount, category, start, end)
	var total sql.NullFloat64
	err := row.Scan(&total)
	return total, err
}

const sumsByCategory = `-- name: SumsByCategory :many
SELECT category, SUM(amount) AS total FROM transactions
WHERE date BETWEEN ? AND ?
GROUP BY category
`

func (q *Queries) SumsByCategory(ctx context.Context, start, end string) ([]CategorySum, error) {
	rows, err := q.db.QueryContext(ctx, sumsByCategory, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategorySum
	for rows.Next() {
		var i CategorySum
		if err := rows.Scan(&i.Category, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTransactionsByDate = `-- name: ListTransactionsByDate :many
SELECT id, date, type, category, amount, description FROM transactions
WHERE date = ?
ORDER BY id DESC
`

func (q *Queries) ListTransactionsByDate(ctx context.Context, date string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByDate, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Date, &i.Type, &i.Category, &i.Amount, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTransaction = `-- name: GetTransaction :one
SELECT id, date, type, category, amount, description FROM transactions WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i TransactionRow
	err := row.Scan(&i.ID, &i.Date, &i.Type, &i.Category, &i.Amount, &i.Description)
	return i, err
}

const latestTransactionDate = `-- name: LatestTransactionDate :one
SELECT MAX(date) FROM transactions
`

func (q *Queries) LatestTransactionDate(ctx context.Context) (sql.NullString, error) {
	row := q.db.QueryRowContext(ctx, latestTransactionDate)
	var date sql.NullString
	err := row.Scan(&date)
	return date, err
}

const insertTransaction = `-- name: InsertTransaction :one
INSERT INTO transactions (date, type, category, amount, description)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`

type InsertTransactionParams struct {
	Date        string
	Type        string
	Category    string
	Amount      float64
	Description string
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, insertTransaction,
		arg.Date,
		arg.Type,
		arg.Category,
		arg.Amount,
		arg.Description,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const updateTransaction = `-- name: UpdateTransaction :execrows
UPDATE transactions
SET date = ?, type = ?, category = ?, amount = ?, description = ?
WHERE id = ?
`

type UpdateTransactionParams struct {
	Date        string
	Type        string
	Category    string
	Amount      float64
	Description string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Date,
		arg.Type,
		arg.Category,
		arg.Amount,
		arg.Description,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `-- name: DeleteTransaction :execrows
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteDayCategory = `-- name: DeleteDayCategory :execrows
DELETE FROM transactions WHERE date = ? AND category = ?
`

func (q *Queries) DeleteDayCategory(ctx context.Context, date, category string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDayCategory, date, category)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
