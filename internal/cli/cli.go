// Package cli holds the per-command setup shared by every subcommand:
// configuration, logger, output mode and run history.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetmerge/internal/config"
	"github.com/klytics/sheetmerge/internal/history"
	"github.com/klytics/sheetmerge/internal/logging"
	"github.com/klytics/sheetmerge/internal/output"
	"github.com/klytics/sheetmerge/internal/workbook"
)

// Env is what a command needs to run.
type Env struct {
	Config  *config.Config
	Log     *logging.Logger
	JSON    bool
	Verbose bool
}

// Setup loads configuration and builds the logger from the root flags.
func Setup(cmd *cobra.Command) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if !cfg.Output.Color {
		color.NoColor = true
	}

	jsonFlag, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	logFile, _ := cmd.Flags().GetString("log-file")
	if logFile == "" {
		logFile = cfg.Log.File
	}

	lg, err := logging.New(logging.Options{
		File:    logFile,
		Level:   cfg.Log.Level,
		Verbose: verbose,
	})
	if err != nil {
		return nil, err
	}
	lg.Debug("configuration loaded", "path", config.ConfigPath(), "command", cmd.CommandPath())

	return &Env{Config: cfg, Log: lg, JSON: jsonFlag, Verbose: verbose}, nil
}

// Close flushes the log file.
func (e *Env) Close() {
	if e.Log != nil {
		e.Log.Close()
	}
}

// Record appends a run to the history file. Failures are logged, not returned.
func (e *Env) Record(ctx context.Context, rec history.Record) {
	store := history.NewStore(e.Config.History.File, e.Config.History.Enabled)
	if _, err := store.Append(ctx, rec); err != nil {
		e.Log.Warn("could not write run history", "error", err)
	}
}

// Fail reports err in the JSON envelope when --json is set and returns it so
// the root command exits non-zero.
func (e *Env) Fail(command string, err error, data interface{}) error {
	if e.JSON {
		if jerr := output.PrintJSONError(command, err, ExitCode(err), data); jerr != nil {
			fmt.Fprintln(os.Stderr, jerr)
		}
	}
	return err
}

// ExitCode maps an error to the JSON envelope's exit code.
func ExitCode(err error) int {
	var saveErr *workbook.SaveError
	switch {
	case err == nil:
		return output.ExitOK
	case errors.As(err, &saveErr):
		return output.ExitSystemError
	default:
		return output.ExitUserError
	}
}
