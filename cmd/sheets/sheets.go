// Package sheets provides commands for inspecting and copying workbook sheets.
package sheets

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetmerge/internal/cli"
	"github.com/klytics/sheetmerge/internal/output"
	"github.com/klytics/sheetmerge/internal/sheetcopy"
	"github.com/klytics/sheetmerge/internal/workbook"
)

// NewCommand returns the sheets command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List, preview and copy the sheets of a workbook",
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newPreviewCommand())
	cmd.AddCommand(newCopyCommand())

	return cmd
}

type sheetInfo struct {
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <file.xlsx>",
		Short: "List the sheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			h, err := workbook.Open(args[0])
			if err != nil {
				return env.Fail("sheets list", err, nil)
			}
			defer h.Close()

			var infos []sheetInfo
			for _, name := range h.SheetNames() {
				view, err := h.Sheet(name)
				if err != nil {
					return env.Fail("sheets list", err, nil)
				}
				infos = append(infos, sheetInfo{
					Name:   name,
					Rows:   view.CountNonBlankRows(),
					Height: view.Height(),
					Width:  view.Width(),
				})
			}

			if env.JSON {
				return output.PrintJSON("sheets list", infos)
			}

			rows := make([][]string, 0, len(infos))
			for i, info := range infos {
				last := "-"
				if info.Width > 0 {
					last, _ = excelize.ColumnNumberToName(info.Width)
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), info.Name, strconv.Itoa(info.Rows), fmt.Sprintf("A1:%s%d", last, info.Height)})
			}
			output.Table(os.Stdout, []string{"#", "Sheet", "Rows", "Used range"}, rows)
			return nil
		},
	}
}

func newPreviewCommand() *cobra.Command {
	var (
		sheet string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "preview <file.xlsx>",
		Short: "Show the first rows of a sheet with column letters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			h, err := workbook.Open(args[0])
			if err != nil {
				return env.Fail("sheets preview", err, nil)
			}
			defer h.Close()

			if sheet == "" {
				sheet = h.SheetNames()[0]
			}
			view, err := h.Sheet(sheet)
			if err != nil {
				return env.Fail("sheets preview", err, nil)
			}

			n := view.Height()
			if limit > 0 && limit < n {
				n = limit
			}

			if env.JSON {
				rows := make([][]string, 0, n)
				for r := 1; r <= n; r++ {
					rows = append(rows, view.RowText(r))
				}
				return output.PrintJSON("sheets preview", map[string]interface{}{"sheet": sheet, "rows": rows})
			}

			header := []string{"Row"}
			for c := 1; c <= view.Width(); c++ {
				name, _ := excelize.ColumnNumberToName(c)
				header = append(header, name)
			}
			rows := make([][]string, 0, n)
			for r := 1; r <= n; r++ {
				rows = append(rows, append([]string{strconv.Itoa(r)}, view.RowText(r)...))
			}
			output.Table(os.Stdout, header, rows)
			if n < view.Height() {
				output.Dim(os.Stdout, "  (%d of %d rows)", n, view.Height())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to preview (default: first sheet)")
	cmd.Flags().IntVarP(&limit, "rows", "n", 20, "Number of rows to show (0 for all)")

	return cmd
}

func newCopyCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "copy <file.xlsx> <sheet|pattern>...",
		Short: "Copy the values of selected sheets into a new workbook",
		Long: `Copies cell values of the selected sheets into a new workbook. Sheets are
selected by name or glob pattern, case-insensitively.

Example:
  sheetmerge sheets copy classes.xlsx "7*" Summary -o year7.xlsx`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.Setup(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			if outPath == "" {
				outPath = strings.TrimSuffix(args[0], ".xlsx") + "_selected.xlsx"
			}
			res, err := sheetcopy.Copy(args[0], outPath, args[1:])
			if err != nil {
				return env.Fail("sheets copy", err, nil)
			}
			env.Log.Info("copied sheets", "input", args[0], "output", outPath, "sheets", res.Sheets)

			if env.JSON {
				return output.PrintJSON("sheets copy", res)
			}
			output.Success(os.Stdout, "Copied %d sheet(s) to %s: %s", len(res.Sheets), res.Output, strings.Join(res.Sheets, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output workbook (default: <input>_selected.xlsx)")

	return cmd
}
