package merge

import (
	"fmt"
	"path/filepath"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/klytics/sheetmerge/internal/workbook"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Admitted bool
	Reason   string
}

func admit() Decision { return Decision{Admitted: true} }

func reject(format string, args ...interface{}) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Admitter decides whether a sheet contributes rows.
type Admitter interface {
	Admit(file string, sheet *workbook.SheetView) (Decision, error)
}

// Blacklist admits every sheet whose name is not listed. Names match exactly.
type Blacklist map[string]bool

// NewBlacklist builds a Blacklist from names.
func NewBlacklist(names []string) Blacklist {
	b := make(Blacklist, len(names))
	for _, n := range names {
		b[n] = true
	}
	return b
}

// Admit implements Admitter.
func (b Blacklist) Admit(_ string, sheet *workbook.SheetView) (Decision, error) {
	if b[sheet.Name] {
		return reject("sheet %q is an infrastructure sheet", sheet.Name), nil
	}
	return admit(), nil
}

// Marker admits a sheet only when Cell holds exactly Sentinel.
type Marker struct {
	Cell     string
	Sentinel string
}

// Admit implements Admitter.
func (m Marker) Admit(_ string, sheet *workbook.SheetView) (Decision, error) {
	v, err := sheet.CellByName(m.Cell)
	if err != nil {
		return Decision{}, err
	}
	if v.Kind != workbook.KindString || v.Text != m.Sentinel {
		return reject("cell %s is not %s", m.Cell, m.Sentinel), nil
	}
	return admit(), nil
}

// ExprGate admits sheets for which a boolean expression holds. The
// expression sees sheet (name), file (base name), marker (marker cell text)
// and rows (last populated row).
type ExprGate struct {
	source     string
	markerCell string
	program    *vm.Program
}

func exprEnv(file string, sheet *workbook.SheetView, marker string) map[string]interface{} {
	env := map[string]interface{}{
		"sheet":  "",
		"file":   file,
		"marker": marker,
		"rows":   0,
	}
	if sheet != nil {
		env["sheet"] = sheet.Name
		env["rows"] = sheet.Height()
	}
	return env
}

// NewExprGate compiles src.
func NewExprGate(src, markerCell string) (*ExprGate, error) {
	program, err := expr.Compile(src, expr.Env(exprEnv("", nil, "")), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid admission expression %q: %w", src, err)
	}
	return &ExprGate{source: src, markerCell: markerCell, program: program}, nil
}

// Admit implements Admitter.
func (g *ExprGate) Admit(file string, sheet *workbook.SheetView) (Decision, error) {
	marker, err := sheet.CellByName(g.markerCell)
	if err != nil {
		return Decision{}, err
	}
	out, err := expr.Run(g.program, exprEnv(filepath.Base(file), sheet, marker.Text))
	if err != nil {
		return Decision{}, fmt.Errorf("evaluate admission expression %q: %w", g.source, err)
	}
	if ok, _ := out.(bool); !ok {
		return reject("expression %q is false", g.source), nil
	}
	return admit(), nil
}

// All admits a sheet only when every gate does.
type All []Admitter

// Admit implements Admitter.
func (a All) Admit(file string, sheet *workbook.SheetView) (Decision, error) {
	for _, gate := range a {
		d, err := gate.Admit(file, sheet)
		if err != nil || !d.Admitted {
			return d, err
		}
	}
	return admit(), nil
}

// NewAdmitter builds the gate chain for a task: blacklist first, then the
// marker cell and the expression when configured.
func NewAdmitter(t Task) (Admitter, error) {
	gates := All{NewBlacklist(t.Admission.Blacklist)}
	if t.Admission.RequireMarker {
		gates = append(gates, Marker{Cell: t.markerCell(), Sentinel: t.Admission.Sentinel})
	}
	if t.Admission.Expr != "" {
		g, err := NewExprGate(t.Admission.Expr, t.markerCell())
		if err != nil {
			return nil, err
		}
		gates = append(gates, g)
	}
	return gates, nil
}
