package consolidate

import (
	"strings"

	"github.com/klytics/sheetmerge/internal/workbook"
)

// cellText is the trimmed display text of a cell, "" when blank.
func cellText(sheet *workbook.SheetView, row, col int) string {
	return strings.TrimSpace(sheet.Cell(row, col).Text)
}

// groupRows makes one pass from row 2 down and decides which rows merge
// into which. Rows are padded to the sheet width, so a selector beyond the
// width fails on the first data row.
func groupRows(sheet *workbook.SheetView, cols Columns) (*plan, error) {
	p := &plan{}
	index := make(map[key]*group)
	width := sheet.Width()

	for row := 2; row <= sheet.Height(); row++ {
		if m := cols.max(); m > width {
			return nil, &ColumnIndexOutOfRangeError{Row: row, Column: m, Width: width}
		}
		p.scanned++

		name := sheet.Cell(row, cols.ClassName)
		number := sheet.Cell(row, cols.ClassNumber)
		grouping := sheet.Cell(row, cols.Grouping)
		if name.IsBlank() && number.IsBlank() && grouping.IsBlank() {
			continue
		}
		// Only the class name is folded; the number and grouping compare
		// as typed cell values, so 1 and "1" are different keys.
		k := key{
			className:   strings.ToLower(name.Text),
			classNumber: number,
			grouping:    grouping,
		}

		value := cellText(sheet, row, cols.Value)
		g, ok := index[k]
		if !ok {
			g = &group{firstRow: row}
			index[k] = g
			p.groups = append(p.groups, g)
		} else {
			p.deletes = append(p.deletes, row)
		}
		g.values = append(g.values, value)
		g.members++
	}
	return p, nil
}

func joinNonBlank(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, Separator)
}
