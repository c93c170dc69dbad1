package gormstore

import (
	"os"
	"testing"

	"budgetbook/internal/storage"
	"budgetbook/internal/storage/storagetest"
)

// Postgres tests are opt-in: set BUDGETBOOK_POSTGRES_DSN to a disposable database.
func TestPostgresLedger(t *testing.T) {
	dsn := os.Getenv("BUDGETBOOK_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("postgres tests are disabled; set BUDGETBOOK_POSTGRES_DSN to enable")
	}

	storagetest.Run(t, func(t *testing.T) storage.Ledger {
		s, err := Open(dsn)
		if err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		if err := s.db.Exec("TRUNCATE transactions, budgets, categories RESTART IDENTITY").Error; err != nil {
			t.Fatalf("truncate: %v", err)
		}
		if err := s.seed(); err != nil {
			t.Fatalf("seed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
