package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"budgetbook/internal/storage"
	"budgetbook/internal/storage/storagetest"
)

func newSQLite(t *testing.T) storage.Ledger {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteLedger(t *testing.T) {
	storagetest.Run(t, newSQLite)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.EnsureCategory(context.Background(), "Gym", "Expense"); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	// Migrations must be a no-op on the second open.
	repo, err = storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	if _, ok, _ := repo.GetCategory(context.Background(), "Gym"); !ok {
		t.Fatal("category lost after reopen")
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}
