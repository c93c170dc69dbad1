// Package gormstore implements the ledger on Postgres through gorm.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

type Store struct {
	ops
}

var _ storage.Ledger = (*Store)(nil)

// Open connects to dsn, migrates the schema and seeds the starter categories.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Store{ops{db: db}}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&CategoryModel{}, &BudgetModel{}, &TransactionModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return s.seed()
}

func (s *Store) seed() error {
	ctx := context.Background()
	var count int64
	if err := s.db.Model(&CategoryModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, c := range core.StarterCategories {
		if _, err := s.EnsureCategory(ctx, c.Name, c.Group); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	slog.Info("Seeded starter categories", "count", len(core.StarterCategories))
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ops{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ops implements storage.Tx on a gorm handle, either the pool or a transaction.
type ops struct {
	db *gorm.DB
}

func (o ops) ListCategories(ctx context.Context) ([]core.Category, error) {
	var rows []CategoryModel
	if err := o.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Category{Name: r.Name, Group: core.Group(r.GroupType)})
	}
	return out, nil
}

func (o ops) GetCategory(ctx context.Context, name string) (core.Category, bool, error) {
	var row CategoryModel
	err := o.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Category{}, false, nil
	}
	if err != nil {
		return core.Category{}, false, fmt.Errorf("get category: %w", err)
	}
	return core.Category{Name: row.Name, Group: core.Group(row.GroupType)}, true, nil
}

func (o ops) EnsureCategory(ctx context.Context, name string, group core.Group) (core.Category, error) {
	c := core.Category{Name: name, Group: group}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	row := CategoryModel{Name: name, GroupType: string(group)}
	if err := o.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	stored, _, err := o.GetCategory(ctx, name)
	return stored, err
}

func (o ops) GetDefaultBudget(ctx context.Context, category string) (decimal.Decimal, bool, error) {
	var row BudgetModel
	err := o.db.WithContext(ctx).Where("category = ? AND month = ?", category, core.DefaultMonth).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get default budget: %w", err)
	}
	return row.Amount, true, nil
}

func (o ops) DefaultBudgets(ctx context.Context) (map[string]decimal.Decimal, error) {
	var rows []BudgetModel
	if err := o.db.WithContext(ctx).Where("month = ?", core.DefaultMonth).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list default budgets: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Amount
	}
	return out, nil
}

func (o ops) UpsertDefaultBudget(ctx context.Context, category string, amount decimal.Decimal) error {
	b := core.Budget{Category: category, Month: core.DefaultMonth, Amount: amount}
	if err := b.Validate(); err != nil {
		return err
	}
	row := BudgetModel{Category: category, Month: core.DefaultMonth, Amount: amount}
	err := o.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert default budget: %w", err)
	}
	return nil
}

func (o ops) SumAmount(ctx context.Context, category string, start, end core.Date) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := o.db.WithContext(ctx).Model(&TransactionModel{}).
		Select("SUM(amount)").
		Where("category = ? AND date BETWEEN ? AND ?", category, start.Time, end.Time).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum amount: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (o ops) SumsByCategory(ctx context.Context, start, end core.Date) (map[string]decimal.Decimal, error) {
	var rows []struct {
		Category string
		Total    decimal.Decimal
	}
	err := o.db.WithContext(ctx).Model(&TransactionModel{}).
		Select("category, SUM(amount) AS total").
		Where("date BETWEEN ? AND ?", start.Time, end.Time).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Total
	}
	return out, nil
}

func (o ops) ListTransactions(ctx context.Context, date core.Date) ([]core.Transaction, error) {
	var rows []TransactionModel
	if err := o.db.WithContext(ctx).Where("date = ?", date.Time).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, toTransaction(r))
	}
	return out, nil
}

func (o ops) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var row TransactionModel
	err := o.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return toTransaction(row), nil
}

func (o ops) LatestTransactionDate(ctx context.Context) (core.Date, bool, error) {
	var latest sql.NullTime
	if err := o.db.WithContext(ctx).Model(&TransactionModel{}).Select("MAX(date)").Row().Scan(&latest); err != nil {
		return core.Date{}, false, fmt.Errorf("latest transaction date: %w", err)
	}
	if !latest.Valid {
		return core.Date{}, false, nil
	}
	return core.DateOf(latest.Time), true, nil
}

func (o ops) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	row := fromTransaction(t)
	row.ID = 0
	if err := o.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return row.ID, nil
}

func (o ops) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res := o.db.WithContext(ctx).Model(&TransactionModel{}).Where("id = ?", t.ID).Updates(map[string]any{
		"date":        t.Date.Time,
		"type":        string(t.Kind),
		"category":    t.Category,
		"amount":      t.Amount,
		"description": t.Description,
	})
	if res.Error != nil {
		return fmt.Errorf("update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (o ops) DeleteTransaction(ctx context.Context, id int64) error {
	res := o.db.WithContext(ctx).Delete(&TransactionModel{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (o ops) DeleteTransactions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := o.db.WithContext(ctx).Where("id IN ?", ids).Delete(&TransactionModel{}).Error; err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	return nil
}

func (o ops) DeleteDayCategory(ctx context.Context, date core.Date, category string) (int64, error) {
	res := o.db.WithContext(ctx).Where("date = ? AND category = ?", date.Time, category).Delete(&TransactionModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete day category: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func toTransaction(r TransactionModel) core.Transaction {
	return core.Transaction{
		ID:          r.ID,
		Date:        core.DateOf(r.Date),
		Kind:        core.Kind(r.Type),
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

func fromTransaction(t core.Transaction) TransactionModel {
	return TransactionModel{
		ID:          t.ID,
		Date:        t.Date.Time,
		Type:        string(t.Kind),
		Category:    t.Category,
		Amount:      t.Amount,
		Description: t.Description,
	}
}
