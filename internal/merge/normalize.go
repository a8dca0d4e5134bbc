package merge

import (
	"fmt"

	"github.com/klytics/sheetmerge/internal/workbook"
)

// NormalizeStats counts what normalization changed.
type NormalizeStats struct {
	Concatenated    int `json:"concatenated"`
	ZerosSuppressed int `json:"zerosSuppressed"`
}

// Normalize finalizes the accumulator: concatenation rules, then the header
// row, then zero sanitization. Concatenation addresses absolute columns and
// must see the original values, so it runs first.
func Normalize(acc *Accumulator, layout Layout, header Header) NormalizeStats {
	var stats NormalizeStats
	stats.Concatenated = Concatenate(acc, layout.ConcatColumn, layout.ProvenanceColumn)
	if layout.DisciplineConcat {
		stats.Concatenated += Concatenate(acc, layout.DisciplineColumn, layout.ProvenanceColumn)
	}
	InsertHeader(acc, header)
	stats.ZerosSuppressed = SanitizeZeros(acc)
	return stats
}

// Concatenate rewrites column col as "{col}-{provenance}" on every row where
// both cells hold a truthy value, and returns the rows changed.
func Concatenate(acc *Accumulator, col, provenance int) int {
	changed := 0
	for row := 1; row <= acc.Len(); row++ {
		v := acc.Cell(row, col)
		src := acc.Cell(row, provenance)
		if !v.Truthy() || !src.Truthy() {
			continue
		}
		acc.Set(row, col, workbook.String(v.Text+"-"+src.Text))
		changed++
	}
	return changed
}

// HeaderLabels returns the header labels for width columns.
func HeaderLabels(header Header, width int) []workbook.Value {
	labels := make([]workbook.Value, width)
	for i := range labels {
		if header.Mode == HeaderConstant {
			labels[i] = workbook.String(header.Token)
		} else {
			labels[i] = workbook.String(fmt.Sprintf("T%d", i+1))
		}
	}
	return labels
}

// InsertHeader inserts a header row above all data, spanning every column.
func InsertHeader(acc *Accumulator, header Header) {
	width := acc.Width()
	if width < 1 {
		width = 1
	}
	acc.insertRow(HeaderLabels(header, width))
}

// SanitizeZeros clears every numeric zero below the header and annotates the
// cell. Text "0" is left alone. Running it again changes nothing.
func SanitizeZeros(acc *Accumulator) int {
	cleared := 0
	width := acc.Width()
	for row := 2; row <= acc.Len(); row++ {
		for col := 1; col <= width; col++ {
			if !acc.Cell(row, col).IsZero() {
				continue
			}
			acc.Set(row, col, workbook.Blank())
			acc.Annotate(workbook.Annotation{Row: row, Col: col, Mark: workbook.MarkZeroSuppressed})
			cleared++
		}
	}
	return cleared
}
