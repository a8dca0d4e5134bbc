package merge

import (
	"github.com/klytics/sheetmerge/internal/workbook"
)

// Accumulator is the merged output table. Rows are only ever appended at
// the cursor while sheets are copied; normalization rewrites it in place
// once at the end.
type Accumulator struct {
	rows        [][]workbook.Value
	provenance  int
	annotations workbook.AnnotationSet
}

// NewAccumulator returns an empty table that records each row's source sheet
// in provenanceColumn.
func NewAccumulator(provenanceColumn int) *Accumulator {
	return &Accumulator{provenance: provenanceColumn}
}

// Append writes values at the cursor, tags the row with source, and returns
// the 1-based row written.
func (a *Accumulator) Append(values []workbook.Value, source string) int {
	width := len(values)
	if a.provenance > width {
		width = a.provenance
	}
	row := make([]workbook.Value, width)
	copy(row, values)
	if a.provenance > 0 {
		row[a.provenance-1] = workbook.String(source)
	}
	a.rows = append(a.rows, row)
	return len(a.rows)
}

// Cursor is the next row Append will write.
func (a *Accumulator) Cursor() int {
	return len(a.rows) + 1
}

// Len returns the number of rows.
func (a *Accumulator) Len() int {
	return len(a.rows)
}

// Width returns the widest row.
func (a *Accumulator) Width() int {
	w := 0
	for _, r := range a.rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Cell returns the value at 1-based (row, col).
func (a *Accumulator) Cell(row, col int) workbook.Value {
	if row < 1 || row > len(a.rows) || col < 1 || col > len(a.rows[row-1]) {
		return workbook.Blank()
	}
	return a.rows[row-1][col-1]
}

// Set overwrites the value at 1-based (row, col), growing the row if needed.
func (a *Accumulator) Set(row, col int, v workbook.Value) {
	if row < 1 || row > len(a.rows) || col < 1 {
		return
	}
	for len(a.rows[row-1]) < col {
		a.rows[row-1] = append(a.rows[row-1], workbook.Blank())
	}
	a.rows[row-1][col-1] = v
}

// insertRow puts a new row above all existing rows.
func (a *Accumulator) insertRow(values []workbook.Value) {
	a.rows = append([][]workbook.Value{values}, a.rows...)
}

// Annotate records a highlight to apply when the table is written.
func (a *Accumulator) Annotate(ann workbook.Annotation) {
	a.annotations.Add(ann)
}

// Annotations lists recorded highlights by position.
func (a *Accumulator) Annotations() []workbook.Annotation {
	return a.annotations.List()
}

// Table returns the accumulator as a writable sheet.
func (a *Accumulator) Table(name string) *workbook.Table {
	rows := make([][]workbook.Value, len(a.rows))
	for i, r := range a.rows {
		rows[i] = append([]workbook.Value(nil), r...)
	}
	return &workbook.Table{Name: name, Rows: rows, Annotations: a.Annotations()}
}
