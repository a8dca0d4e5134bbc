package workbook

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Mark is the reason a cell or row is highlighted in the output.
type Mark int

const (
	// MarkZeroSuppressed flags a numeric zero that was cleared.
	MarkZeroSuppressed Mark = iota + 1
	// MarkConsolidated flags a row that absorbed duplicate rows.
	MarkConsolidated
)

func (m Mark) String() string {
	switch m {
	case MarkZeroSuppressed:
		return "zero-suppressed"
	case MarkConsolidated:
		return "consolidated"
	}
	return "unknown"
}

// Annotation marks one cell, or a whole row when Col is 0. Rows and columns
// are 1-based.
type Annotation struct {
	Row  int
	Col  int
	Mark Mark
}

// Fills maps each mark to a solid fill color in RRGGBB hex.
type Fills map[Mark]string

// DefaultFills returns pink for suppressed zeros and yellow for consolidated rows.
func DefaultFills() Fills {
	return Fills{
		MarkZeroSuppressed: "FFC1CC",
		MarkConsolidated:   "FFFF00",
	}
}

// Annotate applies fills for the annotations to an open workbook. Whole-row
// annotations cover columns 1 through width. A cell keeps the rest of its
// style, so number formats survive the highlight.
func Annotate(f *excelize.File, sheet string, anns []Annotation, fills Fills, width int) error {
	if len(anns) == 0 {
		return nil
	}
	if fills == nil {
		fills = DefaultFills()
	}
	if width < 1 {
		width = 1
	}

	type styleKey struct {
		base int
		mark Mark
	}
	styles := make(map[styleKey]int)
	styleFor := func(base int, m Mark) (int, error) {
		k := styleKey{base, m}
		if id, ok := styles[k]; ok {
			return id, nil
		}
		color, ok := fills[m]
		if !ok {
			return 0, fmt.Errorf("no fill color configured for %s cells", m)
		}
		style := &excelize.Style{}
		if base != 0 {
			existing, err := f.GetStyle(base)
			if err != nil {
				return 0, fmt.Errorf("could not read style %d: %w", base, err)
			}
			style = existing
		}
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
		id, err := f.NewStyle(style)
		if err != nil {
			return 0, fmt.Errorf("could not create %s style: %w", m, err)
		}
		styles[k] = id
		return id, nil
	}

	for _, a := range anns {
		first, last := a.Col, a.Col
		if a.Col == 0 {
			first, last = 1, width
		}
		for col := first; col <= last; col++ {
			cell, err := excelize.CoordinatesToCellName(col, a.Row)
			if err != nil {
				return fmt.Errorf("invalid annotation at row %d: %w", a.Row, err)
			}
			base, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return fmt.Errorf("could not read style of %s: %w", cell, err)
			}
			id, err := styleFor(base, a.Mark)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
				return fmt.Errorf("could not highlight %s: %w", cell, err)
			}
		}
	}
	return nil
}

// AnnotationSet collects annotations without duplicates.
type AnnotationSet struct {
	seen map[Annotation]bool
	list []Annotation
}

// Add records a, ignoring repeats.
func (s *AnnotationSet) Add(a Annotation) {
	if s.seen == nil {
		s.seen = make(map[Annotation]bool)
	}
	if s.seen[a] {
		return
	}
	s.seen[a] = true
	s.list = append(s.list, a)
}

// Has reports whether a was recorded.
func (s *AnnotationSet) Has(a Annotation) bool {
	return s.seen[a]
}

// Len returns the number of distinct annotations.
func (s *AnnotationSet) Len() int {
	return len(s.list)
}

// List returns the annotations ordered by row, then column.
func (s *AnnotationSet) List() []Annotation {
	out := make([]Annotation, len(s.list))
	copy(out, s.list)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}
