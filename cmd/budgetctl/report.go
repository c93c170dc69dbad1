package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"budgetbook/internal/cli"
	"budgetbook/internal/core"
	"budgetbook/internal/period"
	"budgetbook/internal/reconcile"
)

var (
	flagMode  string
	flagDate  string
	flagYear  int
	flagMonth int
	flagTop   int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Budget against actual for a day, week or month",
	RunE:  runReport,
}

func init() {
	addReportFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagMode, "mode", "m", "", "Period mode: daily, weekly or monthly (default from preferences)")
	cmd.Flags().StringVarP(&flagDate, "date", "d", "", "Anchor date YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&flagYear, "year", 0, "Report year; with --month selects a monthly report")
	cmd.Flags().IntVar(&flagMonth, "month", 0, "Report month 1-12")
	cmd.Flags().IntVar(&flagTop, "top", 0, "Number of top outflows to list (default from preferences)")
}

// reportPeriod resolves the flags to a period. --year/--month select a month
// and take precedence over --mode/--date.
func reportPeriod(defaultMode string) (period.Period, error) {
	if flagYear != 0 || flagMonth != 0 {
		year, month := flagYear, flagMonth
		today := core.Today()
		if year == 0 {
			year = today.Year()
		}
		if month == 0 {
			month = int(today.Month())
		}
		if month < 1 || month > 12 {
			return period.Period{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
		}
		return period.Resolve(period.ModeMonthly, core.NewDate(year, time.Month(month), 1))
	}

	mode, err := parseModeFlag(flagMode, defaultMode)
	if err != nil {
		return period.Period{}, err
	}
	anchor, err := parseDateFlag(flagDate)
	if err != nil {
		return period.Period{}, err
	}
	return period.Resolve(mode, anchor)
}

func runReport(cmd *cobra.Command, _ []string) error {
	prefs := loadPreferences()
	p, err := reportPeriod(prefs.Dashboard.DefaultMode)
	if err != nil {
		return err
	}
	topN := flagTop
	if topN < 1 {
		topN = prefs.Dashboard.TopN
	}

	svc, cleanup, err := openService(cmd.Context(), prefs)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := svc.Reconcile(cmd.Context(), p)
	if err != nil {
		return err
	}
	if len(report.Rows) == 0 {
		fmt.Println("\n  No categories configured.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s", p.Mode, p.Title())))
	fmt.Println()
	fmt.Print(cli.RenderTable(reportTable(report)))
	fmt.Println()
	fmt.Print(cli.RenderTable(summaryTable(report)))

	if top := report.TopOutflows(topN); len(top) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(topTable(top, report.Summary.OutflowActual)))
	}
	return nil
}

func reportTable(r reconcile.Report) cli.Table {
	var rows [][]string
	for i, g := range r.ByGroup() {
		if i > 0 {
			rows = append(rows, cli.SeparatorRow)
		}
		for _, row := range g.Rows {
			name := row.Category
			if !row.Known {
				name += " (?)"
			}
			rows = append(rows, []string{
				name,
				string(row.Group),
				core.FormatCurrency(row.Budgeted),
				core.FormatCurrency(row.Actual),
				core.FormatCurrency(row.Diff),
				cli.RenderUsage(row.Usage, row.Group.OverIsFavorable()),
			})
		}
	}
	return cli.Table{
		Headers: []string{"Category", "Group", "Budget", "Actual", "Diff", "Used"},
		Rows:    rows,
	}
}

func summaryTable(r reconcile.Report) cli.Table {
	s := r.Summary
	used := s.UsedPercent()
	return cli.Table{
		Title:   "Summary",
		Headers: []string{"", "Amount"},
		Rows: [][]string{
			{"Income", core.FormatCurrency(s.IncomeActual)},
			{"Outflow budget", core.FormatCurrency(s.OutflowBudgeted)},
			{"Outflow actual", core.FormatCurrency(s.OutflowActual)},
			{"Remaining", core.FormatCurrency(s.Remaining())},
			{"Saved", core.FormatCurrency(s.SavingActual)},
			{"Net", core.FormatCurrency(s.Net)},
			cli.SeparatorRow,
			{"Used " + cli.RenderBar(used, 20), cli.RenderUsage(used, false)},
			{"Pace", string(reconcile.PaceOf(used))},
		},
	}
}

func topTable(top []reconcile.Row, total decimal.Decimal) cli.Table {
	rows := make([][]string, 0, len(top))
	for i, row := range top {
		rows = append(rows, []string{
			fmt.Sprintf("%d. %s", i+1, row.Category),
			core.FormatCurrency(row.Actual),
			fmt.Sprintf("%.1f%%", core.Percent(row.Actual, total)),
		})
	}
	return cli.Table{
		Title:   fmt.Sprintf("Top %d outflows", len(top)),
		Headers: []string{"Category", "Actual", "Share"},
		Rows:    rows,
	}
}
