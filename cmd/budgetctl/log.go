package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"budgetbook/internal/cli"
	"budgetbook/internal/core"
)

var (
	flagLogDate     string
	flagLogCategory string
	flagLogLatest   bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Browse and edit the transaction log",
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "Transactions of one day",
	Args:  cobra.NoArgs,
	RunE:  runLogList,
}

var logDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one transaction by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogDelete,
}

var logClearCmd = &cobra.Command{
	Use:   "clear CATEGORY",
	Short: "Delete every transaction of a category on --date",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogClear,
}

func init() {
	logListCmd.Flags().StringVarP(&flagLogDate, "date", "d", "", "Day YYYY-MM-DD (default today)")
	logListCmd.Flags().StringVarP(&flagLogCategory, "category", "c", "", "Only this category")
	logListCmd.Flags().BoolVar(&flagLogLatest, "latest", false, "Show the most recent day with transactions")
	logClearCmd.Flags().StringVarP(&flagLogDate, "date", "d", "", "Day YYYY-MM-DD (default today)")

	logCmd.AddCommand(logListCmd, logDeleteCmd, logClearCmd)
	rootCmd.AddCommand(logCmd)
}

func runLogList(cmd *cobra.Command, _ []string) error {
	date, err := parseDateFlag(flagLogDate)
	if err != nil {
		return err
	}

	svc, cleanup, err := openService(cmd.Context(), loadPreferences())
	if err != nil {
		return err
	}
	defer cleanup()

	if flagLogLatest {
		if date, err = svc.LatestDate(cmd.Context()); err != nil {
			return err
		}
	}
	txs, err := svc.DayTransactions(cmd.Context(), date)
	if err != nil {
		return err
	}

	category := core.NormalizeName(flagLogCategory)
	rows := make([][]string, 0, len(txs))
	total := decimal.Zero
	for _, t := range txs {
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		total = total.Add(t.Amount)
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.Category,
			string(t.Kind),
			core.FormatCurrency(t.Amount),
			t.Description,
		})
	}
	if len(rows) == 0 {
		fmt.Printf("\n  No transactions on %s.\n", date)
		return nil
	}
	rows = append(rows, cli.SeparatorRow, []string{"", "Total flow", "", core.FormatCurrency(total), ""})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Transactions " + date.String(),
		Headers: []string{"ID", "Category", "Kind", "Amount", "Description"},
		Rows:    rows,
	}))
	return nil
}

func runLogDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid transaction id %q", args[0])
	}

	svc, cleanup, err := openService(cmd.Context(), loadPreferences())
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := svc.DeleteTransaction(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Printf("  Deleted #%d: %s %s on %s\n", t.ID, t.Category, core.FormatCurrency(t.Amount), t.Date)
	return nil
}

func runLogClear(cmd *cobra.Command, args []string) error {
	date, err := parseDateFlag(flagLogDate)
	if err != nil {
		return err
	}
	category := core.NormalizeName(args[0])

	svc, cleanup, err := openService(cmd.Context(), loadPreferences())
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := svc.ClearDay(cmd.Context(), date, category)
	if err != nil {
		return err
	}
	fmt.Printf("  Cleared %d %s transaction(s) on %s\n", n, category, date)
	return nil
}
