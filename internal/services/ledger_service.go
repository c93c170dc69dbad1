// Package services orchestrates ledger writes, reconciliation and change events.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"budgetbook/internal/adjust"
	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/reconcile"
	"budgetbook/internal/storage"
)

// EventPublisher sends ledger change events.
type EventPublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// NewTransaction is the input of AddTransaction.
type NewTransaction struct {
	Date        core.Date
	Group       core.Group
	Category    string
	Amount      decimal.Decimal
	Description string
}

// LedgerService is the single entry point front-ends use to read and mutate
// the ledger. Every committed mutation notifies listeners and publishes one
// event; publish failures are logged, never returned.
type LedgerService struct {
	ledger    storage.Ledger
	engine    *reconcile.Engine
	resolver  *adjust.Resolver
	publisher EventPublisher

	mu        sync.RWMutex
	listeners []func(*amqp.LedgerChangedMessage)
}

// NewLedgerService wires a service around ledger. amqpClient may be nil, in
// which case events are only delivered to in-process listeners.
func NewLedgerService(ledger storage.Ledger, amqpClient *amqp.Client) *LedgerService {
	s := &LedgerService{
		ledger:   ledger,
		engine:   reconcile.NewEngine(ledger),
		resolver: adjust.NewResolver(ledger),
	}
	if amqpClient != nil {
		s.publisher = amqpClient
	}
	return s
}

// WithPublisher replaces the event publisher.
func (s *LedgerService) WithPublisher(p EventPublisher) *LedgerService {
	s.publisher = p
	return s
}

// OnChange registers fn to run after every committed mutation.
func (s *LedgerService) OnChange(fn func(*amqp.LedgerChangedMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Ledger exposes the underlying store for read-only helpers.
func (s *LedgerService) Ledger() storage.Ledger {
	return s.ledger
}

// Reconcile computes the report of p.
func (s *LedgerService) Reconcile(ctx context.Context, p period.Period) (reconcile.Report, error) {
	return s.engine.Reconcile(ctx, p)
}

// Categories returns the registry of stored categories.
func (s *LedgerService) Categories(ctx context.Context) (*core.Registry, error) {
	cats, err := s.ledger.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return core.NewRegistry(cats), nil
}

// DayTransactions returns the rows of date, newest first.
func (s *LedgerService) DayTransactions(ctx context.Context, date core.Date) ([]core.Transaction, error) {
	return s.ledger.ListTransactions(ctx, date)
}

// LatestDate returns the most recent date with rows, or today when the ledger is empty.
func (s *LedgerService) LatestDate(ctx context.Context) (core.Date, error) {
	d, ok, err := s.ledger.LatestTransactionDate(ctx)
	if err != nil {
		return core.Date{}, err
	}
	if !ok {
		return core.Today(), nil
	}
	return d, nil
}

// DefaultBudgets returns every category's DEFAULT budget scaled by ratio.
func (s *LedgerService) DefaultBudgets(ctx context.Context, ratio float64) (map[string]decimal.Decimal, error) {
	budgets, err := s.ledger.DefaultBudgets(ctx)
	if err != nil {
		return nil, err
	}
	factor := decimal.NewFromFloat(ratio)
	for k, v := range budgets {
		budgets[k] = v.Mul(factor)
	}
	return budgets, nil
}

// AddTransaction records a row, creating its category with in.Group if it is
// new. The stored kind follows the category's stored group.
func (s *LedgerService) AddTransaction(ctx context.Context, in NewTransaction) (int64, error) {
	name := core.NormalizeName(in.Category)
	if name == "" {
		return 0, core.ErrEmptyCategory
	}
	if !in.Group.Valid() {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidGroup, in.Group)
	}
	if in.Amount.IsNegative() {
		return 0, core.ErrInvalidAmount
	}
	var id int64
	err := s.ledger.WithTx(ctx, func(tx storage.Tx) error {
		cat, err := tx.EnsureCategory(ctx, name, in.Group)
		if err != nil {
			return fmt.Errorf("ensure category: %w", err)
		}
		id, err = tx.InsertTransaction(ctx, core.Transaction{
			Date:        in.Date,
			Kind:        cat.Group.Kind(),
			Category:    cat.Name,
			Amount:      in.Amount,
			Description: strings.TrimSpace(in.Description),
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction added", "id", id, "category", name, "date", in.Date.String())
	s.changed(ctx, amqp.NewLedgerChangedMessage(amqp.ActionTransactionAdded, []string{in.Date.MonthKey()}, []string{name}))
	return id, nil
}

// DeleteTransaction removes one row and returns it.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var removed core.Transaction
	err := s.ledger.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		if removed, err = tx.GetTransaction(ctx, id); err != nil {
			return err
		}
		return tx.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "category", removed.Category)
	s.changed(ctx, amqp.NewLedgerChangedMessage(amqp.ActionTransactionDeleted,
		[]string{removed.Date.MonthKey()}, []string{removed.Category}))
	return removed, nil
}

// ApplyDailyEdits writes a daily view submission. Budget values are read at
// the daily ratio.
func (s *LedgerService) ApplyDailyEdits(ctx context.Context, date core.Date, edits adjust.DailyEdits) (adjust.DailyResult, error) {
	res, err := s.resolver.ApplyDailyEdits(ctx, date, edits, period.Ratio(period.ModeDaily))
	if err != nil {
		return res, fmt.Errorf("apply daily edits: %w", err)
	}
	if res.Changed() {
		var months []string
		if res.Budgets == 0 {
			months = []string{date.MonthKey()}
		}
		s.changed(ctx, amqp.NewLedgerChangedMessage(amqp.ActionDailyEdited, months, editedCategories(edits)))
	}
	return res, nil
}

// RetargetActual sets the day's total of one category.
func (s *LedgerService) RetargetActual(ctx context.Context, date core.Date, category string, total decimal.Decimal) (adjust.Outcome, error) {
	out, err := s.resolver.RetargetActual(ctx, date, category, total)
	if err != nil {
		return out, fmt.Errorf("retarget actual: %w", err)
	}
	if out != adjust.OutcomeNoop {
		s.changed(ctx, amqp.NewLedgerChangedMessage(amqp.ActionDailyEdited, []string{date.MonthKey()}, []string{category}))
	}
	return out, nil
}

// ClearDay deletes every row of (date, category).
func (s *LedgerService) ClearDay(ctx context.Context, date core.Date, category string) (int64, error) {
	n, err := s.resolver.ClearDay(ctx, date, category)
	if err != nil {
		return 0, fmt.Errorf("clear day: %w", err)
	}
	if n > 0 {
		s.changed(ctx, amqp.NewLedgerChangedMessage(amqp.ActionDayCleared, []string{date.MonthKey()}, []string{category}))
	}
	return n, nil
}

// SetBudgets stores budget values expressed at ratio as DEFAULT budgets.
func (s *LedgerService) SetBudgets(ctx context.Context, values map[string]decimal.Decimal, ratio float64) error {
	if len(values) == 0 {
		return nil
	}
	if err := s.resolver.SetBudgets(ctx, values, ratio); err != nil {
		return fmt.Errorf("set budgets: %w", err)
	}
	cats := make([]string, 0, len(values))
	for k := range values {
		cats = append(cats, k)
	}
	s.changed(ctx, amqp.NewLedgerChangedMessage(amqp.ActionBudgetsSet, nil, cats))
	return nil
}

// SyncLog applies a bulk log edit.
func (s *LedgerService) SyncLog(ctx context.Context, scope adjust.LogScope, rows []adjust.LogRow) (adjust.SyncResult, error) {
	res, err := s.resolver.SyncLog(ctx, scope, rows)
	if err != nil {
		return res, fmt.Errorf("sync log: %w", err)
	}
	if res.Changed() {
		var cats []string
		if scope.Category != "" {
			cats = []string{scope.Category}
		}
		s.changed(ctx, amqp.NewLedgerChangedMessage(amqp.ActionLogSynced, []string{scope.Date.MonthKey()}, cats))
	}
	return res, nil
}

func (s *LedgerService) changed(ctx context.Context, msg *amqp.LedgerChangedMessage) {
	s.mu.RLock()
	listeners := make([]func(*amqp.LedgerChangedMessage), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(msg)
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping ledger event", "action", msg.Action)
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		// The write is committed locally; the worker's periodic refresh catches up.
		slog.ErrorContext(ctx, "Failed to publish ledger event", "id", msg.ID, "action", msg.Action, "error", err)
	}
}

// Close closes the ledger and the publisher when it can be closed.
func (s *LedgerService) Close() error {
	var errs []error
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}

func editedCategories(e adjust.DailyEdits) []string {
	var out []string
	for k := range e.Budgets {
		out = append(out, k)
	}
	for k := range e.Actuals {
		out = append(out, k)
	}
	return out
}
