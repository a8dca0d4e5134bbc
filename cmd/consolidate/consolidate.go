// Package consolidate provides the "sheetmerge consolidate" command.
package consolidate

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetmerge/internal/cli"
	"github.com/klytics/sheetmerge/internal/consolidate"
	"github.com/klytics/sheetmerge/internal/history"
	"github.com/klytics/sheetmerge/internal/job"
	"github.com/klytics/sheetmerge/internal/output"
	"github.com/klytics/sheetmerge/internal/prompt"
)

// NewCommand returns the consolidate command.
func NewCommand() *cobra.Command {
	var (
		cols        consolidate.Columns
		sheet       string
		outPath     string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "consolidate <file.xlsx>",
		Short: "Merge rows that share a class name, class number and grouping",
		Long: `Groups the rows of one sheet by (class name, class number, grouping), joins
the value column of every group into its first row, highlights that row and
deletes the others. The result is saved next to the input as
<name>_processed.xlsx; the input is never modified.

Column numbers start at 1 (A = 1).

Example:
  sheetmerge consolidate merge_OLE.xlsx --class-name 1 --class-number 2 --grouping 3 --value 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			input := args[0]
			if !strings.HasSuffix(strings.ToLower(input), ".xlsx") {
				return env.Fail("consolidate", fmt.Errorf("expected an .xlsx file, got %q — use 'sheetmerge consolidate <file.xlsx>'", input), nil)
			}

			if interactive {
				if err := askColumns(&cols); err != nil {
					return env.Fail("consolidate", err, nil)
				}
			}

			start := time.Now()
			res, err := consolidate.Run(input, consolidate.Options{
				Sheet:   sheet,
				Columns: cols,
				Fills:   job.Fills(env.Config),
				Output:  outPath,
				Logger:  env.Log.Logger,
			})

			rec := history.Record{
				Command:    "consolidate",
				Input:      input,
				OK:         err == nil,
				DurationMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				rec.Errors = []string{err.Error()}
				env.Record(cmd.Context(), rec)
				return env.Fail("consolidate", err, nil)
			}
			rec.Output = res.Output
			rec.Rows = res.RowsDeleted
			env.Record(cmd.Context(), rec)

			if env.JSON {
				return output.PrintJSON("consolidate", res)
			}

			output.Success(os.Stdout, "Merged %d group(s) in sheet %q, removed %d row(s)", res.GroupsMerged, res.Sheet, res.RowsDeleted)
			output.Dim(os.Stdout, "Rows scanned: %d, distinct groups: %d", res.RowsScanned, res.GroupsFound)
			output.Dim(os.Stdout, "Saved to %s", res.Output)
			return nil
		},
	}

	cmd.Flags().IntVar(&cols.ClassName, "class-name", 0, "Column holding the class name")
	cmd.Flags().IntVar(&cols.ClassNumber, "class-number", 0, "Column holding the class number")
	cmd.Flags().IntVar(&cols.Grouping, "grouping", 0, "Column holding the grouping (e.g. award type)")
	cmd.Flags().IntVar(&cols.Value, "value", 0, "Column whose values are joined")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to consolidate (default: first sheet)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (default: <input>_processed.xlsx)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for column numbers not given as flags")

	return cmd
}

func askColumns(cols *consolidate.Columns) error {
	p, err := prompt.New("")
	if err != nil {
		return err
	}
	defer p.Close()

	fields := []struct {
		label string
		dst   *int
	}{
		{"Class name column", &cols.ClassName},
		{"Class number column", &cols.ClassNumber},
		{"Grouping column", &cols.Grouping},
		{"Value column", &cols.Value},
	}
	for _, f := range fields {
		if *f.dst > 0 {
			continue
		}
		answer, err := p.Ask(f.label, "", checkColumn)
		if err != nil {
			return err
		}
		*f.dst, _ = strconv.Atoi(answer)
	}
	return nil
}

func checkColumn(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fmt.Errorf("enter a column number of 1 or more")
	}
	return nil
}
