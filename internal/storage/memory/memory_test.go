package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"budgetbook/internal/core"
	"budgetbook/internal/storage"
	"budgetbook/internal/storage/storagetest"
)

func TestMemoryLedger(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Ledger { return NewStarter() })
}

func TestNewDedupes(t *testing.T) {
	s := New([]core.Category{
		{Name: "A", Group: core.GroupBill},
		{Name: "A", Group: core.GroupIncome},
		{Name: "", Group: core.GroupBill},
	})
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 1 || cats[0].Group != core.GroupBill {
		t.Fatalf("unexpected categories: %+v", cats)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	if s := NewFromFile(filepath.Join(dir, "missing.csv")); mustLen(t, s) != len(core.StarterCategories) {
		t.Fatal("expected starter set when file is missing")
	}

	path := filepath.Join(dir, "categories.csv")
	content := "# name,group\nRent, bill\n\nSalary,Income\nbroken line\nOdd,Assets\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if n := mustLen(t, NewFromFile(path)); n != 2 {
		t.Fatalf("got %d categories, want 2", n)
	}

	quoted := filepath.Join(dir, "quoted.csv")
	content = "\"Gifts, Birthdays\",Expense\nRent,Bill,extra\n\"Fuel\", expense\n"
	if err := os.WriteFile(quoted, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromFile(quoted)
	if n := mustLen(t, s); n != 2 {
		t.Fatalf("got %d categories, want 2", n)
	}
	c, ok, err := s.GetCategory(context.Background(), "Gifts, Birthdays")
	if err != nil || !ok || c.Group != core.GroupExpense {
		t.Errorf("quoted name with a comma = %+v, %v, %v", c, ok, err)
	}
}

func mustLen(t *testing.T, s *Store) int {
	t.Helper()
	cats, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return len(cats)
}
