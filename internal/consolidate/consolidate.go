// Package consolidate collapses rows that share a (class name, class number,
// grouping) key into one row whose value column lists every member's value.
package consolidate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetmerge/internal/workbook"
)

// Separator joins the values of a group.
const Separator = ", "

// ErrInvalidColumn is returned for column selectors below 1.
var ErrInvalidColumn = errors.New("column selectors start at 1")

// ColumnIndexOutOfRangeError reports a selector beyond the sheet's width.
type ColumnIndexOutOfRangeError struct {
	Row    int
	Column int
	Width  int
}

func (e *ColumnIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("row %d has fewer columns than specified (column %d, sheet width %d) — check your column indices", e.Row, e.Column, e.Width)
}

// Columns are the 1-based selectors of the key and value columns.
type Columns struct {
	ClassName   int `json:"className" yaml:"class_name"`
	ClassNumber int `json:"classNumber" yaml:"class_number"`
	Grouping    int `json:"grouping" yaml:"grouping"`
	Value       int `json:"value" yaml:"value"`
}

func (c Columns) validate() error {
	for _, v := range []int{c.ClassName, c.ClassNumber, c.Grouping, c.Value} {
		if v < 1 {
			return fmt.Errorf("%w, got %+v", ErrInvalidColumn, c)
		}
	}
	return nil
}

func (c Columns) max() int {
	m := c.ClassName
	for _, v := range []int{c.ClassNumber, c.Grouping, c.Value} {
		if v > m {
			m = v
		}
	}
	return m
}

// Options configures Run.
type Options struct {
	Sheet   string // defaults to the first sheet
	Columns Columns
	Fills   workbook.Fills
	Output  string // defaults to OutputPath(path)
	Logger  *slog.Logger
}

// Result summarizes one consolidation.
type Result struct {
	Input        string `json:"input"`
	Output       string `json:"output"`
	Sheet        string `json:"sheet"`
	RowsScanned  int    `json:"rowsScanned"`
	GroupsFound  int    `json:"groupsFound"`
	GroupsMerged int    `json:"groupsMerged"`
	RowsDeleted  int    `json:"rowsDeleted"`
}

// OutputPath returns path with its extension replaced by "_processed.xlsx".
func OutputPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_processed.xlsx"
}

type key struct {
	className   string
	classNumber workbook.Value
	grouping    workbook.Value
}

type group struct {
	firstRow int
	values   []string
	members  int
}

// plan is the outcome of the grouping pass, before the workbook is touched.
type plan struct {
	groups  []*group
	deletes []int
	scanned int
}

// Run consolidates one sheet of the workbook at path and saves the result
// to a new file. Nothing is written when any row fails.
func Run(path string, opts Options) (*Result, error) {
	if err := opts.Columns.validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	out := opts.Output
	if out == "" {
		out = OutputPath(path)
	}
	fills := opts.Fills
	if fills == nil {
		fills = workbook.DefaultFills()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &workbook.FileOpenError{Path: path, Err: err}
	}
	defer f.Close()

	sheetName := opts.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	sheet, err := workbook.LoadSheet(f, sheetName)
	if err != nil {
		return nil, err
	}

	p, err := groupRows(sheet, opts.Columns)
	if err != nil {
		return nil, err
	}
	logger.Info("grouped rows", "sheet", sheetName, "rows", p.scanned, "groups", len(p.groups), "deletes", len(p.deletes))

	var anns []workbook.Annotation
	for _, g := range p.groups {
		if g.members < 2 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(opts.Columns.Value, g.firstRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, joinNonBlank(g.values)); err != nil {
			return nil, fmt.Errorf("could not set cell %s: %w", cell, err)
		}
		anns = append(anns, workbook.Annotation{Row: g.firstRow, Mark: workbook.MarkConsolidated})
	}
	width := sheet.Width()
	if width < opts.Columns.max() {
		width = opts.Columns.max()
	}
	if err := workbook.Annotate(f, sheetName, anns, fills, width); err != nil {
		return nil, err
	}

	// Deleting bottom-up keeps the remaining row numbers valid.
	sort.Sort(sort.Reverse(sort.IntSlice(p.deletes)))
	for _, row := range p.deletes {
		if err := f.RemoveRow(sheetName, row); err != nil {
			return nil, fmt.Errorf("could not delete row %d: %w", row, err)
		}
	}

	if err := f.SaveAs(out); err != nil {
		return nil, &workbook.SaveError{Path: out, Err: err}
	}

	merged := 0
	for _, g := range p.groups {
		if g.members > 1 {
			merged++
		}
	}
	logger.Info("consolidation completed", "output", out, "merged", merged, "deleted", len(p.deletes))

	return &Result{
		Input:        path,
		Output:       out,
		Sheet:        sheetName,
		RowsScanned:  p.scanned,
		GroupsFound:  len(p.groups),
		GroupsMerged: merged,
		RowsDeleted:  len(p.deletes),
	}, nil
}
