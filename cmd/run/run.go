// Package run provides the "sheetmerge run" command for YAML job files.
package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetmerge/internal/cli"
	"github.com/klytics/sheetmerge/internal/history"
	"github.com/klytics/sheetmerge/internal/job"
	"github.com/klytics/sheetmerge/internal/output"
)

// NewCommand returns the run command.
func NewCommand() *cobra.Command {
	var (
		folder string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "run <job.yaml>",
		Short: "Run the merge tasks and consolidation of a job file",
		Long: `Runs every merge task of a YAML job file in order, then consolidates the
output of the task named under 'consolidate'.

Example job.yaml:

  name: awards
  folder: ./term1
  tasks:
    - label: OLE
    - label: Displine
      on_failure: skip
  consolidate:
    task: OLE
    columns: {class_name: 1, class_number: 2, grouping: 3, value: 4}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			f, err := job.Load(args[0])
			if err != nil {
				return env.Fail("run", err, nil)
			}
			if folder != "" {
				f.Folder = folder
			}

			if dryRun {
				return printPlan(env, f)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return Execute(ctx, env, f, "run")
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Override the job's folder")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the resolved tasks without running them")

	return cmd
}

// Execute runs f, records every task in the run history and prints the
// outcome. The watch command uses it for each re-run.
func Execute(ctx context.Context, env *cli.Env, f *job.File, command string) error {
	observer, bar := cli.MergeProgress("Merging")
	exec := job.NewExecutor(env.Config,
		job.WithLogger(env.Log.Logger),
		job.WithObserver(observer),
		job.OnTask(func(tr job.TaskResult) {
			bar.Finish(fmt.Sprintf("task %s done", tr.Label))
			env.Record(ctx, taskRecord(command, f, tr))
		}),
	)

	res, err := exec.Run(ctx, f)
	if env.JSON {
		if err != nil {
			return env.Fail(command, err, res)
		}
		return output.PrintJSON(command, res)
	}

	for _, tr := range res.Tasks {
		if tr.Report != nil {
			cli.PrintReport(os.Stdout, tr.Report)
		}
		if tr.Error != "" {
			output.Failure(os.Stdout, "task %s: %s", tr.Label, tr.Error)
		}
		fmt.Println()
	}
	if c := res.Consolidation; c != nil {
		output.Success(os.Stdout, "Consolidated %s: %d group(s) merged, %d row(s) removed", c.Sheet, c.GroupsMerged, c.RowsDeleted)
		output.Dim(os.Stdout, "Saved to %s", c.Output)
	}
	return err
}

func taskRecord(command string, f *job.File, tr job.TaskResult) history.Record {
	rec := history.Record{
		Command: command,
		Task:    tr.Label,
		Input:   f.Folder,
		OK:      tr.Error == "",
	}
	if r := tr.Report; r != nil {
		rec.Output = r.OutputPath
		rec.Files = r.FilesProcessed
		rec.Sheets = r.SheetsMerged
		rec.Rows = r.RowsMerged
		rec.Errors = r.ErrorMessages()
		rec.DurationMs = r.Duration.Milliseconds()
	}
	if tr.Error != "" && (tr.Report == nil || tr.Report.SaveError == "") {
		rec.Errors = append(rec.Errors, tr.Error)
	}
	return rec
}

func printPlan(env *cli.Env, f *job.File) error {
	type planned struct {
		Label    string `json:"label"`
		Process  string `json:"process"`
		Criteria string `json:"criteria,omitempty"`
		Extent   string `json:"extent"`
		Output   string `json:"output"`
		Error    string `json:"error,omitempty"`
	}

	var plan []planned
	for _, spec := range f.Tasks {
		p := planned{Label: spec.Label}
		task, err := job.Build(spec, f.Folder, f.Recursive, env.Config)
		if err != nil {
			p.Error = err.Error()
		} else {
			p.Process = task.Process.String()
			p.Criteria = task.Criteria.String()
			p.Extent = string(task.Extent)
			p.Output = task.OutputName()
		}
		plan = append(plan, p)
	}

	if env.JSON {
		return output.PrintJSON("run", map[string]interface{}{"folder": f.Folder, "tasks": plan})
	}

	fmt.Printf("Folder: %s\n\n", f.Folder)
	rows := make([][]string, 0, len(plan))
	for _, p := range plan {
		extent := p.Extent
		if extent == "" {
			extent = "(default)"
		}
		if p.Error != "" {
			extent = "error: " + p.Error
		}
		rows = append(rows, []string{p.Label, p.Process, p.Criteria, extent, p.Output})
	}
	output.Table(os.Stdout, []string{"Task", "Process", "Criteria", "Extent", "Output"}, rows)
	if c := f.Consolidate; c != nil {
		fmt.Printf("\nThen consolidate the output of %s (columns %d/%d/%d -> %d)\n",
			c.Task, c.Columns.ClassName, c.Columns.ClassNumber, c.Columns.Grouping, c.Columns.Value)
	}
	return nil
}
