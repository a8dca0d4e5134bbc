// Package history provides the "sheetmerge history" commands.
package history

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetmerge/internal/cli"
	historypkg "github.com/klytics/sheetmerge/internal/history"
	"github.com/klytics/sheetmerge/internal/output"
)

// NewCommand creates the "history" command with its subcommands. Without a
// subcommand it lists recent runs.
func NewCommand() *cobra.Command {
	list := newListCmd()
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past merge and consolidation runs",
		Long:  "Every merge, consolidate, run and watch execution is recorded with its counts and errors.",
		RunE:  list.RunE,
	}
	cmd.Flags().AddFlagSet(list.Flags())

	cmd.AddCommand(list)
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	var (
		last    int
		command string
		task    string
		since   string
		failed  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			records, err := historypkg.Read(env.Config.History.File)
			if err != nil {
				return env.Fail("history", err, nil)
			}

			var sinceTime time.Time
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return env.Fail("history", fmt.Errorf("invalid --since date: %w (use YYYY-MM-DD)", err), nil)
				}
				sinceTime = t
			}

			filtered := historypkg.Filter(records, sinceTime, command, task, failed)
			if last > 0 && len(filtered) > last {
				filtered = filtered[len(filtered)-last:]
			}

			if env.JSON {
				return output.PrintJSON("history", filtered)
			}

			if len(filtered) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			fmt.Printf("Run History — %d Entries\n", len(filtered))
			fmt.Printf("File: %s\n\n", env.Config.History.File)

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "ID\tTIMESTAMP\tCOMMAND\tTASK\tFILES\tROWS\tDURATION\tSTATUS\n")
			for _, r := range filtered {
				status := "ok"
				if !r.OK {
					status = "failed"
				} else if len(r.Errors) > 0 {
					status = fmt.Sprintf("%d error(s)", len(r.Errors))
				}
				label := r.Task
				if label == "" {
					label = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					shortID(r.ID), r.Timestamp.Local().Format("2006-01-02 15:04:05"),
					r.Command, label, r.Files, r.Rows, formatDuration(r.DurationMs), status)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "Show last N runs")
	cmd.Flags().StringVar(&command, "command", "", "Filter by command (merge, consolidate, run, watch)")
	cmd.Flags().StringVar(&task, "task", "", "Filter by task label")
	cmd.Flags().StringVar(&since, "since", "", "Only runs since date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only runs with errors")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			records, err := historypkg.Read(env.Config.History.File)
			if err != nil {
				return env.Fail("history show", err, nil)
			}
			r, ok := historypkg.Find(records, args[0])
			if !ok {
				return env.Fail("history show", fmt.Errorf("no run with ID %q — use 'sheetmerge history' to list runs", args[0]), nil)
			}

			if env.JSON {
				return output.PrintJSON("history show", r)
			}

			fmt.Printf("ID:        %s\n", r.ID)
			fmt.Printf("Time:      %s\n", r.Timestamp.Local().Format(time.RFC1123))
			fmt.Printf("Command:   %s\n", r.Command)
			if r.Task != "" {
				fmt.Printf("Task:      %s\n", r.Task)
			}
			fmt.Printf("Input:     %s\n", r.Input)
			if r.Output != "" {
				fmt.Printf("Output:    %s\n", r.Output)
			}
			fmt.Printf("Files:     %d\n", r.Files)
			fmt.Printf("Sheets:    %d\n", r.Sheets)
			fmt.Printf("Rows:      %d\n", r.Rows)
			fmt.Printf("Duration:  %s\n", formatDuration(r.DurationMs))
			if len(r.Errors) > 0 {
				fmt.Println("Errors:")
				for _, e := range r.Errors {
					output.Warning(os.Stdout, "%s", e)
				}
			}
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			path := env.Config.History.File
			if err := historypkg.Clear(path); err != nil {
				return env.Fail("history clear", err, nil)
			}
			if env.JSON {
				return output.PrintJSON("history clear", map[string]string{"cleared": path})
			}
			fmt.Printf("Run history cleared: %s\n", path)
			return nil
		},
	}
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func formatDuration(ms int64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dms", ms)
}
