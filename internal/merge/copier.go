package merge

import (
	"github.com/klytics/sheetmerge/internal/workbook"
)

// Span is the block of a sheet that rows are copied from, 1-based and inclusive.
type Span struct {
	FirstColumn int
	LastColumn  int
	FirstRow    int
	LastRow     int
}

// CopyRows appends every row of span that has at least one non-blank cell,
// blanks included, shifted so FirstColumn lands in column 1, and tags each
// with the sheet's name. All-blank rows are skipped. It returns the number
// of rows copied.
func CopyRows(sheet *workbook.SheetView, span Span, acc *Accumulator) int {
	if span.FirstColumn > span.LastColumn {
		return 0
	}
	copied := 0
	for row := span.FirstRow; row <= span.LastRow; row++ {
		if !rowHasData(sheet, row, span.FirstColumn, span.LastColumn) {
			continue
		}
		values := make([]workbook.Value, 0, span.LastColumn-span.FirstColumn+1)
		for col := span.FirstColumn; col <= span.LastColumn; col++ {
			values = append(values, sheet.Cell(row, col))
		}
		acc.Append(values, sheet.Name)
		copied++
	}
	return copied
}
