// Package merge consolidates a caller-specified range from every sheet of
// every workbook in a folder into a single normalized sheet.
package merge

import (
	"fmt"
	"strings"

	"github.com/klytics/sheetmerge/internal/rangespec"
	"github.com/klytics/sheetmerge/internal/scan"
	"github.com/klytics/sheetmerge/internal/workbook"
)

// ExtentPolicy selects how the populated extent of a sheet is found.
type ExtentPolicy string

const (
	// ExtentForward keeps rows up to the last non-blank criteria cell.
	ExtentForward ExtentPolicy = "forward"
	// ExtentBackward keeps rows up to the last fully populated process row.
	ExtentBackward ExtentPolicy = "backward"
	// ExtentFull keeps the whole process range.
	ExtentFull ExtentPolicy = "full"
)

// HeaderMode selects the labels written into the synthesized header row.
type HeaderMode string

const (
	// HeaderEnumerated writes T1, T2, ... across the columns.
	HeaderEnumerated HeaderMode = "enumerated"
	// HeaderConstant repeats one token in every column.
	HeaderConstant HeaderMode = "constant"
)

// DefaultBlacklist holds the infrastructure sheets the class workbooks carry.
var DefaultBlacklist = []string{"index", "list", "setting", "TEMPLATE", "STUDENTINFO"}

// DefaultSentinel is the glyph a sheet uses to declare itself ready.
const DefaultSentinel = "✔"

// DefaultMarkerRow is the row of the marker cell when no cell is configured.
const DefaultMarkerRow = 4

// Layout names the fixed accumulator columns, all 1-based.
type Layout struct {
	ProvenanceColumn int  `json:"provenanceColumn"`
	ConcatColumn     int  `json:"concatColumn"`
	DisciplineColumn int  `json:"disciplineColumn"`
	DisciplineConcat bool `json:"disciplineConcat"`
}

// DefaultLayout returns the historical S / P / I column convention.
func DefaultLayout() Layout {
	return Layout{
		ProvenanceColumn: 19,
		ConcatColumn:     16,
		DisciplineColumn: 9,
	}
}

// Header configures header synthesis.
type Header struct {
	Mode  HeaderMode `json:"mode"`
	Token string     `json:"token,omitempty"`
}

// Admission configures which sheets contribute rows.
type Admission struct {
	Blacklist     []string `json:"blacklist"`
	RequireMarker bool     `json:"requireMarker"`
	MarkerCell    string   `json:"markerCell,omitempty"`
	Sentinel      string   `json:"sentinel,omitempty"`
	Expr          string   `json:"expr,omitempty"`
}

// Task is the immutable configuration of one merge run.
type Task struct {
	Label     string         `json:"label"`
	Folder    string         `json:"folder"`
	Process   rangespec.Spec `json:"process"`
	Criteria  rangespec.Spec `json:"criteria,omitempty"`
	Extent    ExtentPolicy   `json:"extent"`
	Admission Admission      `json:"admission"`
	Layout    Layout         `json:"layout"`
	Header    Header         `json:"header"`
	Scan      scan.Options   `json:"-"`
	Fills     workbook.Fills `json:"-"`
}

// OutputName is the file the merged sheet is saved to inside the task folder.
func (t Task) OutputName() string {
	if t.Label == "" {
		return "merge.xlsx"
	}
	return fmt.Sprintf("merge_%s.xlsx", t.Label)
}

// SheetTitle is the name of the single sheet in the output workbook.
func (t Task) SheetTitle() string {
	if t.Label == "" {
		return "Merged Data"
	}
	return workbook.SafeSheetName("Merged Data " + t.Label)
}

// markerCell returns the configured marker cell, or row 4 of the criteria
// column (process column when there is no criteria range).
func (t Task) markerCell() string {
	if t.Admission.MarkerCell != "" {
		return strings.ToUpper(t.Admission.MarkerCell)
	}
	col := t.Criteria.StartColumn
	if col == "" {
		col = t.Process.StartColumn
	}
	return fmt.Sprintf("%s%d", col, DefaultMarkerRow)
}

// withDefaults fills zero-valued settings with their defaults.
func (t Task) withDefaults() Task {
	if t.Extent == "" {
		switch {
		case !t.Criteria.IsZero():
			t.Extent = ExtentForward
		case t.Admission.RequireMarker:
			t.Extent = ExtentFull
		default:
			t.Extent = ExtentBackward
		}
	}
	if t.Admission.Blacklist == nil {
		t.Admission.Blacklist = DefaultBlacklist
	}
	if t.Admission.Sentinel == "" {
		t.Admission.Sentinel = DefaultSentinel
	}
	def := DefaultLayout()
	if t.Layout.ProvenanceColumn == 0 {
		t.Layout.ProvenanceColumn = def.ProvenanceColumn
	}
	if t.Layout.ConcatColumn == 0 {
		t.Layout.ConcatColumn = def.ConcatColumn
	}
	if t.Layout.DisciplineColumn == 0 {
		t.Layout.DisciplineColumn = def.DisciplineColumn
	}
	if t.Header.Mode == "" {
		t.Header.Mode = HeaderEnumerated
	}
	if t.Header.Mode == HeaderConstant && t.Header.Token == "" {
		t.Header.Token = "t1"
	}
	if t.Fills == nil {
		t.Fills = workbook.DefaultFills()
	}
	return t
}
