package main

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"budgetbook/internal/cli"
	"budgetbook/internal/core"
	"budgetbook/internal/period"
)

var flagBudgetMode string

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "List or change default budgets",
}

var budgetListCmd = &cobra.Command{
	Use:   "list",
	Short: "Default budgets scaled to a period mode",
	Args:  cobra.NoArgs,
	RunE:  runBudgetList,
}

var budgetSetCmd = &cobra.Command{
	Use:   "set CATEGORY AMOUNT",
	Short: "Set a category's default budget, given per --mode interval",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetSet,
}

func init() {
	budgetCmd.PersistentFlags().StringVarP(&flagBudgetMode, "mode", "m", "monthly", "Period mode the amounts are expressed in")
	budgetCmd.AddCommand(budgetListCmd, budgetSetCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetList(cmd *cobra.Command, _ []string) error {
	mode, err := period.ParseMode(flagBudgetMode)
	if err != nil {
		return err
	}

	svc, cleanup, err := openService(cmd.Context(), loadPreferences())
	if err != nil {
		return err
	}
	defer cleanup()

	reg, err := svc.Categories(cmd.Context())
	if err != nil {
		return err
	}
	budgets, err := svc.DefaultBudgets(cmd.Context(), period.Ratio(mode))
	if err != nil {
		return err
	}

	cats := reg.Categories()
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Group != cats[j].Group {
			return cats[i].Group.Order() < cats[j].Group.Order()
		}
		return cats[i].Name < cats[j].Name
	})

	var rows [][]string
	totals := map[core.Group]decimal.Decimal{}
	var prev core.Group
	for i, c := range cats {
		if i > 0 && c.Group != prev {
			rows = append(rows, cli.SeparatorRow)
		}
		prev = c.Group
		amount := budgets[c.Name]
		totals[c.Group] = totals[c.Group].Add(amount)
		rows = append(rows, []string{c.Name, string(c.Group), core.FormatCurrency(amount)})
	}
	if len(rows) == 0 {
		fmt.Println("\n  No categories configured.")
		return nil
	}
	rows = append(rows, cli.SeparatorRow)
	for _, g := range core.Groups {
		if t, ok := totals[g]; ok {
			rows = append(rows, []string{"Total " + string(g), "", core.FormatCurrency(t)})
		}
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s budgets", mode),
		Headers: []string{"Category", "Group", "Budget"},
		Rows:    rows,
	}))
	return nil
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	mode, err := period.ParseMode(flagBudgetMode)
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(args[1])
	if err != nil {
		return err
	}
	category := core.NormalizeName(args[0])

	svc, cleanup, err := openService(cmd.Context(), loadPreferences())
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.SetBudgets(cmd.Context(), map[string]decimal.Decimal{category: amount}, period.Ratio(mode)); err != nil {
		return err
	}
	fmt.Printf("  %s budget set to %s per %s interval\n", category, core.FormatCurrency(amount), mode)
	return nil
}
