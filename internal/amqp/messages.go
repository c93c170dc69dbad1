package amqp

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Ledger change actions.
const (
	ActionTransactionAdded   = "transaction_added"
	ActionTransactionDeleted = "transaction_deleted"
	ActionDailyEdited        = "daily_edited"
	ActionDayCleared         = "day_cleared"
	ActionBudgetsSet         = "budgets_set"
	ActionLogSynced          = "log_synced"
	ActionRefresh            = "refresh"
)

// LedgerChangedMessage announces a committed mutation batch. It carries only
// what the consumer needs to decide which monthly reports to recompute; the
// ledger itself stays the source of truth.
type LedgerChangedMessage struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Months     []string  `json:"months,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message with a fresh id. Months and
// categories are deduplicated and sorted.
func NewLedgerChangedMessage(action string, months, categories []string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:         uuid.NewString(),
		Action:     action,
		Months:     uniqueSorted(months),
		Categories: uniqueSorted(categories),
		Timestamp:  time.Now(),
	}
}

// AllMonths reports whether the change affects every month, as budget edits do.
func (m *LedgerChangedMessage) AllMonths() bool {
	return len(m.Months) == 0
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON parses a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
