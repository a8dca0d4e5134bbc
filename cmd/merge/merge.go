// Package merge provides the "sheetmerge merge" command.
package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetmerge/internal/cli"
	"github.com/klytics/sheetmerge/internal/config"
	"github.com/klytics/sheetmerge/internal/history"
	"github.com/klytics/sheetmerge/internal/job"
	"github.com/klytics/sheetmerge/internal/merge"
	"github.com/klytics/sheetmerge/internal/output"
	"github.com/klytics/sheetmerge/internal/prompt"
)

type options struct {
	preset        string
	label         string
	process       string
	criteria      string
	extent        string
	requireMarker bool
	markerCell    string
	discipline    bool
	header        string
	headerToken   string
	when          string
	recursive     bool
	interactive   bool
}

// NewCommand returns the merge command.
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "merge [folder]",
		Short: "Merge a cell range from every sheet of every workbook in a folder",
		Long: `Reads the process range from every admitted sheet of every .xlsx workbook in
the folder and writes the rows, tagged with the sheet they came from, to
merge_<label>.xlsx in the same folder.

Examples:
  sheetmerge merge ./term1 --task ole
  sheetmerge merge ./term1 --process CV26:DM205 --criteria CV26:CV205 --label OLE
  sheetmerge merge ./term1 --task displine --marker
  sheetmerge merge --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			return runMerge(cmd, env, folder, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.preset, "task", "t", "", "Task preset from the config file (e.g. ole, displine)")
	cmd.Flags().StringVar(&opts.label, "label", "", "Label used in the output file and sheet names")
	cmd.Flags().StringVar(&opts.process, "process", "", "Process range, e.g. CV26:DM205")
	cmd.Flags().StringVar(&opts.criteria, "criteria", "", "Criteria range whose last non-blank cell ends the data")
	cmd.Flags().StringVar(&opts.extent, "extent", "", "Extent policy: forward | backward | full")
	cmd.Flags().BoolVar(&opts.requireMarker, "marker", false, "Only merge sheets whose marker cell holds the sentinel")
	cmd.Flags().StringVar(&opts.markerCell, "marker-cell", "", "Marker cell (default: row 4 of the criteria column)")
	cmd.Flags().BoolVar(&opts.discipline, "discipline", false, "Also concatenate the discipline column")
	cmd.Flags().StringVar(&opts.header, "header", "", "Header mode: enumerated | constant")
	cmd.Flags().StringVar(&opts.headerToken, "header-token", "", "Token for the constant header mode")
	cmd.Flags().StringVar(&opts.when, "when", "", "Admission expression, e.g. 'rows > 2 && marker != \"\"'")
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Include workbooks in subfolders")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Prompt for the folder and ranges when not given")

	cmd.RegisterFlagCompletionFunc("task", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := config.Load()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return cfg.PresetNames(), cobra.ShellCompDirectiveNoFileComp
	})
	cmd.RegisterFlagCompletionFunc("extent", cobra.FixedCompletions(
		[]string{string(merge.ExtentForward), string(merge.ExtentBackward), string(merge.ExtentFull)},
		cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runMerge(cmd *cobra.Command, env *cli.Env, folder string, opts options) error {
	preset, hasPreset := env.Config.Preset(opts.preset)
	if opts.preset != "" && !hasPreset {
		return env.Fail("merge", fmt.Errorf("unknown task %q — configured tasks: %s",
			opts.preset, strings.Join(env.Config.PresetNames(), ", ")), nil)
	}

	if opts.interactive {
		in := prompt.MergeInputs{Folder: folder, Process: opts.process, Criteria: opts.criteria}
		if err := ask(&in, preset, env.Config); err != nil {
			return env.Fail("merge", err, nil)
		}
		folder, opts.process, opts.criteria = in.Folder, in.Process, in.Criteria
	}
	if folder == "" {
		return env.Fail("merge", fmt.Errorf("no folder given — pass a folder or use --interactive"), nil)
	}

	spec := job.TaskSpec{
		Label:       firstNonEmpty(opts.label, preset.Label, opts.preset),
		Preset:      opts.preset,
		Process:     opts.process,
		Criteria:    opts.criteria,
		Extent:      opts.extent,
		MarkerCell:  opts.markerCell,
		Header:      opts.header,
		HeaderToken: opts.headerToken,
		When:        opts.when,
	}
	if cmd.Flags().Changed("marker") {
		spec.RequireMarker = &opts.requireMarker
	}
	if cmd.Flags().Changed("discipline") {
		spec.Discipline = &opts.discipline
	}

	task, err := job.Build(spec, folder, opts.recursive, env.Config)
	if err != nil {
		return env.Fail("merge", err, nil)
	}

	observer, bar := cli.MergeProgress("Merging")
	engine, err := merge.New(task, merge.WithLogger(env.Log.Logger), merge.WithObserver(observer))
	if err != nil {
		return env.Fail("merge", err, nil)
	}

	start := time.Now()
	res, runErr := engine.Run()
	if res == nil {
		env.Record(cmd.Context(), history.Record{
			Command:    "merge",
			Task:       task.Label,
			Input:      folder,
			Errors:     []string{runErr.Error()},
			DurationMs: time.Since(start).Milliseconds(),
		})
		return env.Fail("merge", runErr, nil)
	}
	report := res.Report
	bar.Finish(fmt.Sprintf("%d file(s) merged", report.FilesProcessed))

	env.Record(cmd.Context(), history.Record{
		Command:    "merge",
		Task:       report.Task,
		Input:      report.Folder,
		Output:     report.OutputPath,
		Files:      report.FilesProcessed,
		Sheets:     report.SheetsMerged,
		Rows:       report.RowsMerged,
		Errors:     report.ErrorMessages(),
		OK:         runErr == nil,
		DurationMs: report.Duration.Milliseconds(),
	})

	if env.JSON {
		if runErr != nil {
			return env.Fail("merge", runErr, report)
		}
		return output.PrintJSON("merge", report)
	}

	cli.PrintReport(os.Stdout, report)
	return runErr
}

func ask(in *prompt.MergeInputs, preset config.Preset, cfg *config.Config) error {
	historyFile := ""
	if cfg.History.File != "" {
		historyFile = filepath.Join(filepath.Dir(cfg.History.File), "prompt_history")
	}
	p, err := prompt.New(historyFile)
	if err != nil {
		return err
	}
	defer p.Close()

	defaults := prompt.MergeInputs{Process: preset.Process, Criteria: preset.Criteria}
	return p.FillMerge(in, defaults, cfg.Range.LabelWidth)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
