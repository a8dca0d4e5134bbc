package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetView is a read-only grid of typed cell values addressed by 1-based
// (row, column). Reads outside the populated area return a blank value.
type SheetView struct {
	Name  string
	rows  [][]Value
	width int
}

// NewSheetView builds a view from rows of values. Row i of rows is sheet row i+1.
func NewSheetView(name string, rows [][]Value) *SheetView {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return &SheetView{Name: name, rows: rows, width: width}
}

// Cell returns the value at (row, col), both 1-based.
func (s *SheetView) Cell(row, col int) Value {
	if row < 1 || col < 1 || row > len(s.rows) {
		return Blank()
	}
	r := s.rows[row-1]
	if col > len(r) {
		return Blank()
	}
	return r[col-1]
}

// CellByName returns the value at a reference such as "M4".
func (s *SheetView) CellByName(ref string) (Value, error) {
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return Blank(), fmt.Errorf("invalid cell reference %q: %w", ref, err)
	}
	return s.Cell(row, col), nil
}

// Height is the number of the last row holding any cell.
func (s *SheetView) Height() int {
	return len(s.rows)
}

// Width is the widest row's column count, the sheet's physical width.
func (s *SheetView) Width() int {
	return s.width
}

// Row returns row r padded to the sheet width.
func (s *SheetView) Row(r int) []Value {
	out := make([]Value, s.width)
	for c := 1; c <= s.width; c++ {
		out[c-1] = s.Cell(r, c)
	}
	return out
}

// RowText returns row r as display strings, trimmed of trailing blanks.
func (s *SheetView) RowText(r int) []string {
	if r < 1 || r > len(s.rows) {
		return nil
	}
	row := s.rows[r-1]
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = v.Text
	}
	return out
}

// CountNonBlankRows returns how many rows hold at least one non-blank cell.
func (s *SheetView) CountNonBlankRows() int {
	count := 0
	for _, row := range s.rows {
		for _, v := range row {
			if !v.IsBlank() {
				count++
				break
			}
		}
	}
	return count
}
