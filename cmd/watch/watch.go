// Package watch provides the "sheetmerge watch" command.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetmerge/cmd/run"
	"github.com/klytics/sheetmerge/internal/cli"
	"github.com/klytics/sheetmerge/internal/job"
	w "github.com/klytics/sheetmerge/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		debounce time.Duration
		runFirst bool
	)

	cmd := &cobra.Command{
		Use:   "watch <job.yaml>",
		Short: "Re-run a job whenever a workbook in its folder changes",
		Long: `Watches the job's folder for created or saved workbooks and re-runs the job
once changes have settled. Lock files and the job's own outputs are ignored.

Example:
  sheetmerge watch awards.yaml --debounce 5s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			f, err := job.Load(args[0])
			if err != nil {
				return env.Fail("watch", err, nil)
			}

			filter := job.ScanOptions(env.Config, f.Recursive)
			filter.Exclude = job.Outputs(f)

			watcher, err := w.New(w.Config{
				Directories: []string{f.Folder},
				Recursive:   filter.Recursive,
				Debounce:    debounce,
				Filter:      filter,
			}, func(ctx context.Context, changed []string) error {
				fmt.Printf("\n%s  %d workbook(s) changed, re-running %s\n",
					time.Now().Format("15:04:05"), len(changed), filepath.Base(args[0]))
				env.Log.Debug("changed workbooks", "paths", changed)
				return run.Execute(ctx, env, f, "watch")
			})
			if err != nil {
				return env.Fail("watch", err, nil)
			}
			watcher.Logger = env.Log.Logger

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if runFirst {
				if err := run.Execute(ctx, env, f, "watch"); err != nil {
					env.Log.Error("initial run failed", "error", err)
				}
			}

			fmt.Printf("Watching %s (debounce %s)\n", f.Folder, debounce)
			fmt.Println("Press Ctrl+C to stop")

			if err := watcher.Start(ctx); err != nil {
				return env.Fail("watch", err, nil)
			}

			events := watcher.Events()
			failed := 0
			for _, e := range events {
				if e.Status == "error" {
					failed++
				}
			}
			fmt.Printf("\nStopped after %d run(s), %d failed\n", len(events), failed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", w.DefaultDebounce, "Quiet period after the last change before re-running")
	cmd.Flags().BoolVar(&runFirst, "now", false, "Run the job once before watching")

	return cmd
}
