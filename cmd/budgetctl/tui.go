package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetbook/internal/tui"
)

var (
	flagNoColor bool
	flagTUIMode string
	flagTUIDate string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "Disable colors")
	tuiCmd.Flags().StringVarP(&flagTUIMode, "mode", "m", "", "Initial period mode (default from preferences)")
	tuiCmd.Flags().StringVarP(&flagTUIDate, "date", "d", "", "Initial anchor date YYYY-MM-DD (default today)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	prefs := loadPreferences()
	mode, err := parseModeFlag(flagTUIMode, prefs.Dashboard.DefaultMode)
	if err != nil {
		return err
	}
	anchor, err := parseDateFlag(flagTUIDate)
	if err != nil {
		return err
	}

	// Logging must stay off the terminal while the dashboard owns it.
	verbose := flagVerbose
	flagVerbose = false
	svc, cleanup, err := openService(cmd.Context(), prefs)
	flagVerbose = verbose
	if err != nil {
		return err
	}
	defer cleanup()

	if err := tui.Run(cmd.Context(), svc, tui.Options{
		Mode:    mode,
		Anchor:  anchor,
		TopN:    prefs.Dashboard.TopN,
		Theme:   prefs.Dashboard.Theme,
		NoColor: flagNoColor,
	}); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
