package merge

import (
	"fmt"

	"github.com/klytics/sheetmerge/internal/workbook"
)

// ExtentResolver finds the last row of a sheet that holds data. ok is false
// when the sheet contributes no rows.
type ExtentResolver interface {
	LastRow(sheet *workbook.SheetView) (last int, ok bool)
}

// ForwardScan walks the criteria column top to bottom and returns the highest
// row with a non-blank value. Interior blanks do not stop the walk.
type ForwardScan struct {
	Column   int
	StartRow int
	EndRow   int
}

// LastRow implements ExtentResolver.
func (f ForwardScan) LastRow(sheet *workbook.SheetView) (int, bool) {
	last := f.StartRow - 1
	for row := f.StartRow; row <= f.EndRow; row++ {
		if !sheet.Cell(row, f.Column).IsBlank() {
			last = row
		}
	}
	return last, last >= f.StartRow
}

// BackwardScan walks the process range from its end row upward and returns
// the first row where every process column is non-blank.
type BackwardScan struct {
	FirstColumn int
	LastColumn  int
	StartRow    int
	EndRow      int
}

// LastRow implements ExtentResolver.
func (b BackwardScan) LastRow(sheet *workbook.SheetView) (int, bool) {
	for row := b.EndRow; row >= b.StartRow; row-- {
		if rowFull(sheet, row, b.FirstColumn, b.LastColumn) {
			return row, true
		}
	}
	return b.StartRow - 1, false
}

// FullRange keeps the whole process range.
type FullRange struct {
	StartRow int
	EndRow   int
}

// LastRow implements ExtentResolver.
func (f FullRange) LastRow(_ *workbook.SheetView) (int, bool) {
	return f.EndRow, f.EndRow >= f.StartRow
}

func rowFull(sheet *workbook.SheetView, row, first, last int) bool {
	for col := first; col <= last; col++ {
		if sheet.Cell(row, col).IsBlank() {
			return false
		}
	}
	return true
}

func rowHasData(sheet *workbook.SheetView, row, first, last int) bool {
	for col := first; col <= last; col++ {
		if !sheet.Cell(row, col).IsBlank() {
			return true
		}
	}
	return false
}

// NewExtentResolver builds the resolver selected by the task's policy.
func NewExtentResolver(t Task) (ExtentResolver, error) {
	procFirst, procLast, err := t.Process.Columns()
	if err != nil {
		return nil, err
	}

	switch t.Extent {
	case ExtentForward:
		if t.Criteria.IsZero() {
			return nil, fmt.Errorf("the forward extent policy needs a criteria range — pass one such as CV21:CV200")
		}
		critCol, _, err := t.Criteria.Columns()
		if err != nil {
			return nil, err
		}
		return ForwardScan{Column: critCol, StartRow: t.Criteria.StartRow, EndRow: t.Criteria.EndRow}, nil
	case ExtentBackward:
		return BackwardScan{FirstColumn: procFirst, LastColumn: procLast, StartRow: t.Process.StartRow, EndRow: t.Process.EndRow}, nil
	case ExtentFull:
		return FullRange{StartRow: t.Process.StartRow, EndRow: t.Process.EndRow}, nil
	}
	return nil, fmt.Errorf("unknown extent policy %q — supported: forward, backward, full", t.Extent)
}
