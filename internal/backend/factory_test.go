package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budgetbook/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", PostgresDSN: "postgres://x"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != PostgresBackend || cfg.PostgresDSN != "postgres://x" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres without dsn", Config{Type: PostgresBackend}, "postgres DSN"},
		{"unknown", Config{Type: "sheets"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cats.csv")
	if err := os.WriteFile(path, []byte("Wages,Income\nFood,Expense\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, CategoriesFile: path})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	reg, err := res.Service.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 || !reg.Resolve("Wages").Known {
		t.Errorf("categories = %+v", reg.Categories())
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "budget.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	reg, err := res.Service.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 22 {
		t.Errorf("seeded categories = %d, want 22", reg.Len())
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}
