// Package sheetcopy copies the values of selected sheets into a new workbook.
package sheetcopy

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/klytics/sheetmerge/internal/workbook"
)

// ErrNoSheets is returned when the selection matches no sheet.
var ErrNoSheets = errors.New("no sheets selected")

// Result describes a completed copy.
type Result struct {
	Input  string   `json:"input"`
	Output string   `json:"output"`
	Sheets []string `json:"sheets"`
	Rows   int      `json:"rows"`
}

// Select returns the sheets in available matching any pattern, in tab order.
// Patterns use path.Match syntax and compare case-insensitively.
func Select(available, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w — pass at least one sheet name or pattern", ErrNoSheets)
	}
	for _, p := range patterns {
		if _, err := path.Match(strings.ToLower(p), ""); err != nil {
			return nil, fmt.Errorf("invalid sheet pattern %q: %w", p, err)
		}
	}

	var out []string
	for _, name := range available {
		for _, p := range patterns {
			if ok, _ := path.Match(strings.ToLower(p), strings.ToLower(name)); ok {
				out = append(out, name)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w — %v matched none of %v", ErrNoSheets, patterns, available)
	}
	return out, nil
}

// Copy writes the cell values of the selected sheets of input into a new
// workbook at output. Styles and formulas are not carried over.
func Copy(input, output string, patterns []string) (*Result, error) {
	h, err := workbook.Open(input)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	names, err := Select(h.SheetNames(), patterns)
	if err != nil {
		return nil, err
	}

	res := &Result{Input: input, Output: output, Sheets: names}
	tables := make([]*workbook.Table, 0, len(names))
	for _, name := range names {
		view, err := h.Sheet(name)
		if err != nil {
			return nil, err
		}
		rows := make([][]workbook.Value, view.Height())
		for r := range rows {
			rows[r] = view.Row(r + 1)
		}
		res.Rows += len(rows)
		tables = append(tables, &workbook.Table{Name: name, Rows: rows})
	}

	if err := workbook.WriteFile(output, nil, tables...); err != nil {
		return nil, err
	}
	return res, nil
}
