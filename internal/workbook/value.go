package workbook

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Kind is the type of a cell value.
type Kind int

const (
	// KindBlank is an empty cell.
	KindBlank Kind = iota
	// KindString is a text cell.
	KindString
	// KindNumber is a numeric cell.
	KindNumber
	// KindBool is a boolean cell.
	KindBool
	// KindDate is a numeric cell displayed through a date or time format.
	KindDate
)

// Value is a single typed cell value. Text always holds the cell's textual
// form; Num and Bool are set for numeric and boolean cells. A date keeps its
// serial in Num, its display in Text and its number format in NumFmt (a
// built-in ID) or Format (a custom code).
type Value struct {
	Kind   Kind
	Text   string
	Num    float64
	Bool   bool
	NumFmt int
	Format string
}

// Blank returns the empty value.
func Blank() Value { return Value{} }

// String returns a text value. An empty string is kept as a string cell so
// callers can tell "" from a missing cell, although both count as blank.
func String(s string) Value { return Value{Kind: KindString, Text: s} }

// Number returns a numeric value.
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n, Text: strconv.FormatFloat(n, 'f', -1, 64)}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	text := "FALSE"
	if b {
		text = "TRUE"
	}
	return Value{Kind: KindBool, Bool: b, Text: text}
}

// Date returns a date value: serial is the spreadsheet serial number and
// display the text the source cell showed.
func Date(serial float64, numFmt int, format, display string) Value {
	return Value{Kind: KindDate, Num: serial, NumFmt: numFmt, Format: format, Text: display}
}

// Time converts a date value's serial to a time in the 1900 date system.
func (v Value) Time() (time.Time, error) {
	return excelize.ExcelDateToTime(v.Num, false)
}

// IsBlank reports whether v is missing or an empty string.
func (v Value) IsBlank() bool {
	return v.Kind == KindBlank || (v.Kind == KindString && v.Text == "")
}

// IsZero reports whether v is numerically zero. The string "0" is not zero.
func (v Value) IsZero() bool {
	return v.Kind == KindNumber && v.Num == 0
}

// Truthy reports whether v is non-blank, non-zero and not false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBlank:
		return false
	case KindString:
		return v.Text != ""
	case KindNumber, KindDate:
		return v.Num != 0
	case KindBool:
		return v.Bool
	}
	return false
}

// Equal compares kind and content. Blank and "" are different values here.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindDate:
		return v.Num == o.Num && v.NumFmt == o.NumFmt && v.Format == o.Format
	case KindBool:
		return v.Bool == o.Bool
	case KindString:
		return v.Text == o.Text
	}
	return true
}

// Interface returns the value in the form excelize.SetCellValue expects.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindString:
		return v.Text
	case KindNumber:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1e15 {
			return int64(v.Num)
		}
		return v.Num
	case KindDate:
		return v.Num
	case KindBool:
		return v.Bool
	}
	return nil
}

// dateNumFmts are the built-in number formats that display a date or time,
// including the East Asian locale formats.
var dateNumFmts = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// IsDateFormat reports whether a built-in number format ID or a custom format
// code displays numbers as dates or times. Quoted literals, bracketed
// sections and escaped characters are ignored.
func IsDateFormat(numFmt int, code string) bool {
	if code == "" {
		return dateNumFmts[numFmt]
	}
	inQuote, inBracket := false, false
	runes := []rune(strings.ToLower(code))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '"':
			inQuote = true
		case r == '[':
			// [h], [mm] and [ss] are elapsed-time sections.
			if i+1 < len(runes) && strings.ContainsRune("hms", runes[i+1]) {
				return true
			}
			inBracket = true
		case r == '\\' || r == '_' || r == '*':
			i++
		case strings.ContainsRune("ymdhs", r):
			return true
		}
	}
	return false
}

func (v Value) String() string {
	return v.Text
}

// parseRaw classifies a raw cell string read from a sheet.
func parseRaw(raw string, numeric, boolean bool) Value {
	if raw == "" {
		return Blank()
	}
	if boolean {
		return Bool(raw == "1" || strings.EqualFold(raw, "true"))
	}
	if numeric {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return Number(n)
		}
	}
	return String(raw)
}
