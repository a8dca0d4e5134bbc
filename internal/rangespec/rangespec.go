// Package rangespec parses textual cell ranges such as "CV21:DM200".
package rangespec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LegacyLabelWidth is the fixed column-label width the workbook templates
// were built around: every endpoint starts with exactly two letters.
const LegacyLabelWidth = 2

// ErrMalformedRange matches every MalformedRangeError via errors.Is.
var ErrMalformedRange = errors.New("malformed range")

// MalformedRangeError reports range text that could not be parsed.
type MalformedRangeError struct {
	Input  string
	Reason string
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("malformed range %q: %s — expected something like CV21:DM200", e.Input, e.Reason)
}

// Is lets errors.Is(err, ErrMalformedRange) match.
func (e *MalformedRangeError) Is(target error) bool {
	return target == ErrMalformedRange
}

// Spec is a parsed (start column, start row, end column, end row) descriptor.
type Spec struct {
	StartColumn string `json:"startColumn" yaml:"start_column"`
	StartRow    int    `json:"startRow" yaml:"start_row"`
	EndColumn   string `json:"endColumn" yaml:"end_column"`
	EndRow      int    `json:"endRow" yaml:"end_row"`
}

type options struct {
	labelWidth int
}

// Option configures Parse.
type Option func(*options)

// WithLabelWidth sets how many leading characters of each endpoint form the
// column label. Zero switches to automatic mode, where the label is the run
// of leading letters.
func WithLabelWidth(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.labelWidth = n
		}
	}
}

// Parse converts "CV21:DM200" into a Spec. Row order and column order are not
// validated; a reversed range simply resolves to no rows later on.
func Parse(text string, opts ...Option) (Spec, error) {
	o := options{labelWidth: LegacyLabelWidth}
	for _, opt := range opts {
		opt(&o)
	}

	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 {
		return Spec{}, &MalformedRangeError{Input: text, Reason: "expected exactly one ':'"}
	}

	startCol, startRow, err := parseEndpoint(parts[0], o.labelWidth)
	if err != nil {
		return Spec{}, &MalformedRangeError{Input: text, Reason: err.Error()}
	}
	endCol, endRow, err := parseEndpoint(parts[1], o.labelWidth)
	if err != nil {
		return Spec{}, &MalformedRangeError{Input: text, Reason: err.Error()}
	}

	return Spec{
		StartColumn: startCol,
		StartRow:    startRow,
		EndColumn:   endCol,
		EndRow:      endRow,
	}, nil
}

// MustParse is Parse for compile-time constants; it panics on error.
func MustParse(text string, opts ...Option) Spec {
	s, err := Parse(text, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func parseEndpoint(endpoint string, width int) (string, int, error) {
	endpoint = strings.TrimSpace(endpoint)

	if width == 0 {
		for width < len(endpoint) && isLetter(endpoint[width]) {
			width++
		}
		if width == 0 {
			return "", 0, fmt.Errorf("endpoint %q has no column letters", endpoint)
		}
	}

	if len(endpoint) < width {
		return "", 0, fmt.Errorf("endpoint %q is shorter than the %d-character column label", endpoint, width)
	}

	label := endpoint[:width]
	row, err := strconv.Atoi(strings.TrimSpace(endpoint[width:]))
	if err != nil {
		return "", 0, fmt.Errorf("row of endpoint %q is not an integer", endpoint)
	}
	if row < 1 {
		return "", 0, fmt.Errorf("row of endpoint %q must be at least 1", endpoint)
	}
	return strings.ToUpper(label), row, nil
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// Columns resolves the column labels to 1-based indices.
func (s Spec) Columns() (start, end int, err error) {
	start, err = excelize.ColumnNameToNumber(s.StartColumn)
	if err != nil {
		return 0, 0, &MalformedRangeError{Input: s.String(), Reason: fmt.Sprintf("invalid start column %q", s.StartColumn)}
	}
	end, err = excelize.ColumnNameToNumber(s.EndColumn)
	if err != nil {
		return 0, 0, &MalformedRangeError{Input: s.String(), Reason: fmt.Sprintf("invalid end column %q", s.EndColumn)}
	}
	return start, end, nil
}

// WithEndRow returns a copy of s ending at row.
func (s Spec) WithEndRow(row int) Spec {
	s.EndRow = row
	return s
}

// IsZero reports whether s is the empty Spec.
func (s Spec) IsZero() bool {
	return s == Spec{}
}

func (s Spec) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s%d:%s%d", s.StartColumn, s.StartRow, s.EndColumn, s.EndRow)
}
