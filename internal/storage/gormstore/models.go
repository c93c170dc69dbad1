package gormstore

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryModel is a row of the categories table.
type CategoryModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;uniqueIndex;not null"`
	GroupType string `gorm:"size:16;not null"`
}

func (CategoryModel) TableName() string { return "categories" }

// BudgetModel is a row of the budgets table, unique per (category, month).
type BudgetModel struct {
	ID       uint            `gorm:"primaryKey"`
	Category string          `gorm:"size:255;not null;uniqueIndex:idx_budget_category_month"`
	Month    string          `gorm:"size:16;not null;default:DEFAULT;uniqueIndex:idx_budget_category_month"`
	Amount   decimal.Decimal `gorm:"type:numeric(18,6);not null"`
}

func (BudgetModel) TableName() string { return "budgets" }

// TransactionModel is a row of the transactions table.
type TransactionModel struct {
	ID          int64           `gorm:"primaryKey"`
	Date        time.Time       `gorm:"type:date;not null;index;index:idx_tx_date_category,priority:1"`
	Type        string          `gorm:"size:16;not null"`
	Category    string          `gorm:"size:255;not null;index;index:idx_tx_date_category,priority:2"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	Description string          `gorm:"size:200;not null;default:''"`
	CreatedAt   time.Time
}

func (TransactionModel) TableName() string { return "transactions" }
