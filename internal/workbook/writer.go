package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Table is one output sheet: rows of values plus row/cell annotations that
// become fills when the table is written.
type Table struct {
	Name        string
	Rows        [][]Value
	Annotations []Annotation
}

// Width returns the widest row's column count.
func (t *Table) Width() int {
	w := 0
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// WriteFile creates a new .xlsx file holding the given tables, one sheet each.
// Write failures are returned as *SaveError.
func WriteFile(path string, fills Fills, tables ...*Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheetName := SafeSheetName(t.Name)
		if sheetName == "" {
			sheetName = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			defaultSheet := f.GetSheetName(0)
			if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
				return fmt.Errorf("could not rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheetName); err != nil {
				return fmt.Errorf("could not create sheet %q: %w", sheetName, err)
			}
		}

		if err := writeRows(f, sheetName, t.Rows); err != nil {
			return err
		}
		if err := Annotate(f, sheetName, t.Annotations, fills, t.Width()); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]Value) error {
	dateStyles := make(map[dateFormat]int)
	for rowIdx, row := range rows {
		for colIdx, v := range row {
			if v.Kind == KindBlank {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("invalid cell coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cellName, v.Interface()); err != nil {
				return fmt.Errorf("could not set cell %s: %w", cellName, err)
			}
			if v.Kind != KindDate {
				continue
			}
			id, err := dateStyle(f, dateStyles, v)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cellName, cellName, id); err != nil {
				return fmt.Errorf("could not format date cell %s: %w", cellName, err)
			}
		}
	}
	return nil
}

// dateStyle returns a style carrying v's number format, creating it once per
// workbook.
func dateStyle(f *excelize.File, cache map[dateFormat]int, v Value) (int, error) {
	key := dateFormat{numFmt: v.NumFmt, code: v.Format}
	if id, ok := cache[key]; ok {
		return id, nil
	}
	style := &excelize.Style{NumFmt: v.NumFmt}
	if v.Format != "" {
		code := v.Format
		style = &excelize.Style{CustomNumFmt: &code}
	}
	id, err := f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("could not create date style %q: %w", v.Format, err)
	}
	cache[key] = id
	return id, nil
}

// SafeSheetName trims a name to Excel's 31-character sheet-name limit and
// replaces characters Excel rejects.
func SafeSheetName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			r = '_'
		}
		out = append(out, r)
	}
	if len(out) > 31 {
		out = out[:31]
	}
	return string(out)
}
