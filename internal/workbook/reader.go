// Package workbook reads and writes .xlsx workbooks as grids of typed values.
package workbook

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Handle is an open workbook. Formula cells read as their last cached value.
// Callers must Close it.
type Handle struct {
	Path string
	f    *excelize.File
}

// Open opens the workbook at path. Failures are returned as *FileOpenError.
func Open(path string) (*Handle, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &FileOpenError{Path: path, Err: ErrFileNotFound}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	return &Handle{Path: path, f: f}, nil
}

// OpenBytes opens a workbook held in memory.
func OpenBytes(data []byte) (*Handle, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FileOpenError{Path: "<stdin>", Err: err}
	}
	return &Handle{Path: "<stdin>", f: f}, nil
}

// SheetNames lists the workbook's sheets in tab order.
func (h *Handle) SheetNames() []string {
	return h.f.GetSheetList()
}

// Sheet loads the named sheet.
func (h *Handle) Sheet(name string) (*SheetView, error) {
	if idx, err := h.f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found — available sheets: %v", name, h.SheetNames())
	}
	return LoadSheet(h.f, name)
}

// Close releases the workbook.
func (h *Handle) Close() error {
	return h.f.Close()
}

// LoadSheet reads every populated cell of a sheet with its type. Numbers
// shown through a date format come back as KindDate.
func LoadSheet(f *excelize.File, name string) (*SheetView, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
	}

	formats := numberFormats{f: f, dates: make(map[int]*dateFormat)}
	rows := make([][]Value, len(raw))
	for r, row := range raw {
		values := make([]Value, len(row))
		for c, text := range row {
			if text == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("invalid cell coordinates: %w", err)
			}
			typ, err := f.GetCellType(name, cell)
			if err != nil {
				return nil, fmt.Errorf("could not read cell %s!%s: %w", name, cell, err)
			}
			v := classify(text, typ)
			if v.Kind == KindNumber {
				if v, err = formats.apply(name, cell, v); err != nil {
					return nil, err
				}
			}
			values[c] = v
		}
		rows[r] = values
	}
	return NewSheetView(name, rows), nil
}

func classify(raw string, typ excelize.CellType) Value {
	switch typ {
	case excelize.CellTypeBool:
		return parseRaw(raw, false, true)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return parseRaw(raw, true, false)
	default:
		return parseRaw(raw, false, false)
	}
}

type dateFormat struct {
	numFmt int
	code   string
}

// numberFormats remembers which style IDs of a workbook are date formats.
type numberFormats struct {
	f     *excelize.File
	dates map[int]*dateFormat // nil entry: not a date style
}

// apply turns v into a date when the cell's style has a date format.
func (n *numberFormats) apply(sheet, cell string, v Value) (Value, error) {
	styleID, err := n.f.GetCellStyle(sheet, cell)
	if err != nil {
		return v, fmt.Errorf("could not read style of %s!%s: %w", sheet, cell, err)
	}
	if styleID == 0 {
		return v, nil
	}

	df, seen := n.dates[styleID]
	if !seen {
		style, err := n.f.GetStyle(styleID)
		if err != nil {
			return v, fmt.Errorf("could not read style %d: %w", styleID, err)
		}
		code := ""
		if style.CustomNumFmt != nil {
			code = *style.CustomNumFmt
		}
		if IsDateFormat(style.NumFmt, code) {
			df = &dateFormat{numFmt: style.NumFmt, code: code}
		}
		n.dates[styleID] = df
	}
	if df == nil {
		return v, nil
	}

	display, err := n.f.GetCellValue(sheet, cell)
	if err != nil {
		return v, fmt.Errorf("could not read cell %s!%s: %w", sheet, cell, err)
	}
	return Date(v.Num, df.numFmt, df.code, display), nil
}
