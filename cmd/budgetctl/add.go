package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetbook/internal/adjust"
	"budgetbook/internal/core"
	"budgetbook/internal/services"
)

var (
	flagAddDate        string
	flagAddGroup       string
	flagAddDescription string
)

var addCmd = &cobra.Command{
	Use:   "add CATEGORY AMOUNT",
	Short: "Record a transaction",
	Long:  "Record a transaction. A category that doesn't exist yet is created in --group.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

var retargetCmd = &cobra.Command{
	Use:   "retarget CATEGORY TOTAL",
	Short: "Make a category's day total equal TOTAL",
	Long: "Make a category's total for --date equal TOTAL by editing the day's single row " +
		"or adding an adjustment row for the difference.",
	Args: cobra.ExactArgs(2),
	RunE: runRetarget,
}

func init() {
	addCmd.Flags().StringVarP(&flagAddDate, "date", "d", "", "Transaction date YYYY-MM-DD (default today)")
	addCmd.Flags().StringVarP(&flagAddGroup, "group", "g", string(core.GroupExpense), "Group for a new category")
	addCmd.Flags().StringVar(&flagAddDescription, "description", "", "Free-text description")

	retargetCmd.Flags().StringVarP(&flagAddDate, "date", "d", "", "Day to edit YYYY-MM-DD (default today)")

	rootCmd.AddCommand(addCmd, retargetCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	date, err := parseDateFlag(flagAddDate)
	if err != nil {
		return err
	}
	group, err := core.ParseGroup(flagAddGroup)
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(args[1])
	if err != nil {
		return err
	}

	svc, cleanup, err := openService(cmd.Context(), loadPreferences())
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := svc.AddTransaction(cmd.Context(), services.NewTransaction{
		Date:        date,
		Group:       group,
		Category:    args[0],
		Amount:      amount,
		Description: flagAddDescription,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Added #%d: %s %s on %s\n", id, core.NormalizeName(args[0]), core.FormatCurrency(amount), date)
	return nil
}

func runRetarget(cmd *cobra.Command, args []string) error {
	date, err := parseDateFlag(flagAddDate)
	if err != nil {
		return err
	}
	total, err := core.ParseAmount(args[1])
	if err != nil {
		return err
	}
	category := core.NormalizeName(args[0])

	svc, cleanup, err := openService(cmd.Context(), loadPreferences())
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := svc.RetargetActual(cmd.Context(), date, category, total)
	if err != nil {
		return err
	}
	if outcome == adjust.OutcomeNoop {
		fmt.Printf("  %s on %s is already %s\n", category, date, core.FormatCurrency(total))
		return nil
	}
	fmt.Printf("  %s on %s set to %s (%s)\n", category, date, core.FormatCurrency(total), outcome)
	return nil
}
