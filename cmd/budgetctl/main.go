// Command budgetctl reads and edits the ledger from a terminal: printed
// reports, budget and log maintenance, and an interactive dashboard.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"budgetbook/internal/backend"
	"budgetbook/internal/cli"
	"budgetbook/internal/config"
	"budgetbook/internal/core"
	applog "budgetbook/internal/log"
	"budgetbook/internal/period"
	"budgetbook/internal/services"
)

var (
	flagBackend string
	flagDBPath  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "budgetctl",
	Short:         "Household budget ledger",
	Long:          "Reconcile budgets against spending, edit daily entries and browse the ledger.",
	RunE:          runReport,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Ledger backend (sqlite, postgres, memory); defaults to DATA_BACKEND")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path; defaults to the preferences file, then SQLITE_DB_PATH")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log to stderr")

	addReportFlags(rootCmd)
}

// openService is the shared ledger opening path used by all commands.
// Preferences override the environment and flags override both.
func openService(ctx context.Context, prefs config.Preferences) (*services.LedgerService, func(), error) {
	cli.LoadEnvFile()

	logger := slog.New(applog.NewTextHandler(io.Discard, slog.LevelError))
	if flagVerbose {
		logger = slog.New(applog.NewTextHandler(os.Stderr, slog.LevelDebug))
	}
	slog.SetDefault(logger)

	cfg := config.Load()
	if prefs.Storage.DBPath != "" {
		cfg.SQLiteDBPath = prefs.Storage.DBPath
	}
	if flagDBPath != "" {
		cfg.SQLiteDBPath = flagDBPath
	}
	if flagBackend != "" {
		cfg.DataBackend = strings.ToLower(flagBackend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}
	return res.Service, cleanup, nil
}

// loadPreferences falls back to defaults on a broken preferences file.
func loadPreferences() config.Preferences {
	prefs, err := config.LoadPreferences()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Ignoring preferences: %v\n", err)
		return config.DefaultPreferences()
	}
	return prefs
}

// parseDateFlag parses a YYYY-MM-DD flag, where empty means today.
func parseDateFlag(s string) (core.Date, error) {
	if s == "" {
		return core.Today(), nil
	}
	return core.ParseDate(s)
}

// parseModeFlag parses a mode flag, where empty means fallback.
func parseModeFlag(s, fallback string) (period.Mode, error) {
	if s == "" {
		s = fallback
	}
	return period.ParseMode(s)
}
