// Package cmd contains all CLI commands for the sheetmerge binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetmerge/cmd/completion"
	cmdconfig "github.com/klytics/sheetmerge/cmd/config"
	"github.com/klytics/sheetmerge/cmd/consolidate"
	cmdhistory "github.com/klytics/sheetmerge/cmd/history"
	cmdmerge "github.com/klytics/sheetmerge/cmd/merge"
	"github.com/klytics/sheetmerge/cmd/run"
	cmdsearch "github.com/klytics/sheetmerge/cmd/search"
	"github.com/klytics/sheetmerge/cmd/sheets"
	"github.com/klytics/sheetmerge/cmd/version"
	cmdwatch "github.com/klytics/sheetmerge/cmd/watch"
	"github.com/klytics/sheetmerge/internal/config"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	configFile string
	logFile    string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetmerge",
		Short: "Merge ranges from many class workbooks into one sheet",
		Long: `sheetmerge — consolidate per-class spreadsheets.

Collects a fixed cell range from every sheet of every .xlsx workbook in a
folder into one normalized sheet, and merges rows that describe the same
student into one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			if jsonOutput {
				os.Setenv("SHEETMERGE_JSON", "true")
			}
			config.UseFile(configFile)
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Show info and debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.sheetmerge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append JSON log records to this file")

	// Register subcommands
	rootCmd.AddCommand(cmdmerge.NewCommand())
	rootCmd.AddCommand(consolidate.NewCommand())
	rootCmd.AddCommand(run.NewCommand())
	rootCmd.AddCommand(cmdsearch.NewCommand())
	rootCmd.AddCommand(sheets.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdhistory.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
