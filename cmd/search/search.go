// Package search provides the "sheetmerge search" command.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetmerge/internal/cli"
	"github.com/klytics/sheetmerge/internal/output"
	"github.com/klytics/sheetmerge/internal/progress"
	"github.com/klytics/sheetmerge/internal/scan"
	"github.com/klytics/sheetmerge/internal/search"
)

// NewCommand returns the search command.
func NewCommand() *cobra.Command {
	var (
		csvPath      string
		contextCells []string
		noRecursive  bool
	)

	cmd := &cobra.Command{
		Use:   "search <folder> <terms>",
		Short: "Find text in every sheet of every workbook under a folder",
		Long: `Searches the text cells of every .xlsx and .xlsm workbook under the folder,
case-insensitively. Separate several terms with commas; a cell matches when it
contains any of them. Each hit is shown with the sheet's context cells.

Examples:
  sheetmerge search ./term1 "tan, lim"
  sheetmerge search ./term1 alice --csv hits.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			terms := search.ParseTerms(args[1])
			if len(contextCells) == 0 {
				contextCells = env.Config.Search.ContextCells
			}

			tracker := progress.New("Searching")
			res, err := search.Run(cmd.Context(), args[0], terms, search.Options{
				ContextCells: contextCells,
				Scan: scan.Options{
					Recursive:  !noRecursive,
					Extensions: []string{".xlsx", ".xlsm"},
					LockPrefix: env.Config.Scan.LockPrefix,
				},
				Logger:   env.Log.Logger,
				Progress: tracker,
			})
			if err != nil {
				tracker.Finish("search failed")
				return env.Fail("search", err, nil)
			}
			tracker.Finish(fmt.Sprintf("%d match(es) in %d file(s)", len(res.Hits), res.FilesSearched))

			if csvPath != "" {
				if err := exportCSV(csvPath, res); err != nil {
					return env.Fail("search", err, res)
				}
				env.Log.Info("exported search results", "path", csvPath, "hits", len(res.Hits))
			}

			if env.JSON {
				return output.PrintJSON("search", res)
			}
			return printHits(res, args[0], csvPath)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Also export the hits to this CSV file")
	cmd.Flags().StringSliceVar(&contextCells, "context", nil, "Context cells shown with each hit (default from config: H3,H4,H5,H17)")
	cmd.Flags().BoolVar(&noRecursive, "no-recursive", false, "Only search the folder itself, not subfolders")

	return cmd
}

func exportCSV(path string, res *search.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := search.WriteCSV(f, res, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printHits(res *search.Result, root, csvPath string) error {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	var b strings.Builder
	if len(res.Hits) == 0 {
		output.Warning(&b, "No matches for %s", strings.Join(res.Terms, ", "))
	} else {
		header := append([]string{"File", "Sheet", "Cell", "Content"}, res.ContextCells...)
		rows := make([][]string, 0, len(res.Hits))
		for _, h := range res.Hits {
			rel, err := filepath.Rel(root, h.File)
			if err != nil {
				rel = filepath.Base(h.File)
			}
			rows = append(rows, append([]string{rel, h.Sheet, h.Cell, h.Text}, h.Context...))
		}
		output.Table(&b, header, rows)
		output.Dim(&b, "  %d match(es) in %d file(s)", len(res.Hits), res.FilesSearched)
	}

	for _, u := range res.Unreadable {
		output.Warning(&b, "could not read %s: %s", filepath.Base(u.File), u.Error)
	}
	if csvPath != "" {
		output.Success(&b, "Exported to %s", csvPath)
	}

	return output.Show(b.String())
}
