package adjust

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

// LogScope selects the stored rows a log edit replaces: one day, optionally
// narrowed to a single category.
type LogScope struct {
	Date     core.Date
	Category string
}

func (s LogScope) includes(t core.Transaction) bool {
	return s.Category == "" || t.Category == s.Category
}

// LogRow is one row of an edited log. ID is zero for rows added by the user.
type LogRow struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// SyncResult counts the writes of a log edit.
type SyncResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
}

func (s SyncResult) Changed() bool {
	return s.Inserted+s.Updated+s.Deleted > 0
}

// SyncLog replaces the rows in scope with edited, matching rows by store id:
// stored rows missing from edited are deleted, rows whose fields changed are
// updated, and rows without an id are inserted.
func (r *Resolver) SyncLog(ctx context.Context, scope LogScope, edited []LogRow) (SyncResult, error) {
	var res SyncResult
	err := r.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		res, err = syncLog(ctx, tx, scope, edited)
		return err
	})
	if err == nil && res.Changed() {
		slog.InfoContext(ctx, "Log synced",
			"date", scope.Date.String(),
			"scope_category", scope.Category,
			"inserted", res.Inserted,
			"updated", res.Updated,
			"deleted", res.Deleted)
	}
	return res, err
}

func syncLog(ctx context.Context, tx storage.Tx, scope LogScope, edited []LogRow) (SyncResult, error) {
	var res SyncResult
	all, err := tx.ListTransactions(ctx, scope.Date)
	if err != nil {
		return res, fmt.Errorf("list log rows: %w", err)
	}
	stored := map[int64]core.Transaction{}
	for _, t := range all {
		if scope.includes(t) {
			stored[t.ID] = t
		}
	}

	keep := map[int64]bool{}
	for _, row := range edited {
		row.Category = core.NormalizeName(row.Category)
		row.Description = strings.TrimSpace(row.Description)
		if row.Category == "" && scope.Category != "" {
			row.Category = scope.Category
		}
		if row.Category == "" {
			return res, core.ErrEmptyCategory
		}

		if row.ID == 0 {
			kind, err := kindOf(ctx, tx, row.Category)
			if err != nil {
				return res, err
			}
			_, err = tx.InsertTransaction(ctx, core.Transaction{
				Date:        scope.Date,
				Kind:        kind,
				Category:    row.Category,
				Amount:      row.Amount,
				Description: row.Description,
			})
			if err != nil {
				return res, fmt.Errorf("insert log row: %w", err)
			}
			res.Inserted++
			continue
		}

		current, ok := stored[row.ID]
		if !ok {
			return res, fmt.Errorf("log row %d: %w", row.ID, core.ErrNotFound)
		}
		keep[row.ID] = true
		if current.Category == row.Category && current.Amount.Equal(row.Amount) && current.Description == row.Description {
			continue
		}
		updated := current
		updated.Amount = row.Amount
		updated.Description = row.Description
		if updated.Category != row.Category {
			updated.Category = row.Category
			if updated.Kind, err = kindOf(ctx, tx, row.Category); err != nil {
				return res, err
			}
		}
		if err := tx.UpdateTransaction(ctx, updated); err != nil {
			return res, fmt.Errorf("update log row: %w", err)
		}
		res.Updated++
	}

	var drop []int64
	for id := range stored {
		if !keep[id] {
			drop = append(drop, id)
		}
	}
	sort.Slice(drop, func(i, j int) bool { return drop[i] < drop[j] })
	if err := tx.DeleteTransactions(ctx, drop); err != nil {
		return res, fmt.Errorf("delete log rows: %w", err)
	}
	res.Deleted = len(drop)
	return res, nil
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
