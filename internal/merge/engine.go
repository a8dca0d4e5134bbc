package merge

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetmerge/internal/scan"
	"github.com/klytics/sheetmerge/internal/workbook"
)

// EventKind tells an observer what just happened.
type EventKind int

const (
	// EventFileStarted fires before a workbook is opened.
	EventFileStarted EventKind = iota
	// EventFileFailed fires when a workbook is skipped because of an error.
	EventFileFailed
	// EventSheetSkipped fires for a sheet that was not admitted.
	EventSheetSkipped
	// EventSheetCopied fires after an admitted sheet was copied.
	EventSheetCopied
)

// Event is a progress notification from a running merge.
type Event struct {
	Kind   EventKind
	File   string
	Sheet  string
	Index  int // 1-based file index
	Total  int // files found
	Rows   int
	Reason string
	Err    error
}

// Observer receives progress events. It is called synchronously.
type Observer func(Event)

// Result is a finished merge: the normalized table and the run report.
type Result struct {
	Table  *workbook.Table
	Report *Report
}

// Engine runs one merge task.
type Engine struct {
	task     Task
	admitter Admitter
	extent   ExtentResolver
	span     Span
	logger   *slog.Logger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New validates the task and prepares its admission and extent strategies.
// Range and column problems are reported here, before any file is touched.
func New(task Task, opts ...Option) (*Engine, error) {
	task = task.withDefaults()

	if task.Folder == "" {
		return nil, fmt.Errorf("no folder given — pass the folder that holds the class workbooks")
	}
	if task.Process.IsZero() {
		return nil, fmt.Errorf("no process range given — pass one such as CV21:DM200")
	}
	first, last, err := task.Process.Columns()
	if err != nil {
		return nil, err
	}
	if task.Layout.ProvenanceColumn < 1 || task.Layout.ConcatColumn < 1 || task.Layout.DisciplineColumn < 1 {
		return nil, fmt.Errorf("layout columns must be 1 or greater, got %+v", task.Layout)
	}
	if task.Header.Mode != HeaderEnumerated && task.Header.Mode != HeaderConstant {
		return nil, fmt.Errorf("unknown header mode %q — supported: enumerated, constant", task.Header.Mode)
	}
	if task.Admission.RequireMarker || task.Admission.Expr != "" {
		if _, _, err := excelize.CellNameToCoordinates(task.markerCell()); err != nil {
			return nil, fmt.Errorf("invalid marker cell %q: %w", task.markerCell(), err)
		}
	}

	admitter, err := NewAdmitter(task)
	if err != nil {
		return nil, err
	}
	extent, err := NewExtentResolver(task)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		task:     task,
		admitter: admitter,
		extent:   extent,
		span:     Span{FirstColumn: first, LastColumn: last, FirstRow: task.Process.StartRow},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("task", task.Label)
	return e, nil
}

// Task returns the task with defaults applied.
func (e *Engine) Task() Task {
	return e.task
}

// OutputPath is where Run saves the merged workbook.
func (e *Engine) OutputPath() string {
	return filepath.Join(e.task.Folder, e.task.OutputName())
}

// Run merges every workbook in the task folder, normalizes the result and
// saves it. Per-file failures are recorded in the report and never stop the
// run. A save failure is returned together with the computed result.
func (e *Engine) Run() (*Result, error) {
	start := time.Now()
	e.logger.Info("starting merge",
		"folder", e.task.Folder,
		"process", e.task.Process.String(),
		"criteria", e.task.Criteria.String(),
		"extent", string(e.task.Extent))

	opts := e.task.Scan
	opts.Exclude = append(append([]string(nil), opts.Exclude...), e.task.OutputName())
	found, err := scan.Scan(e.task.Folder, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Task:       e.task.Label,
		Folder:     found.RootDir,
		FilesFound: len(found.Files),
	}
	acc := NewAccumulator(e.task.Layout.ProvenanceColumn)

	for i, fi := range found.Files {
		e.notify(Event{Kind: EventFileStarted, File: fi.Name, Index: i + 1, Total: len(found.Files)})
		if err := e.mergeFile(fi.Path, acc, report); err != nil {
			e.logger.Error("error processing file", "file", fi.Name, "error", err)
			report.addError(fi.Path, err)
			e.notify(Event{Kind: EventFileFailed, File: fi.Name, Index: i + 1, Total: len(found.Files), Err: err})
			continue
		}
		report.FilesProcessed++
	}

	stats := Normalize(acc, e.task.Layout, e.task.Header)
	report.Concatenated = stats.Concatenated
	report.ZerosSuppressed = stats.ZerosSuppressed

	result := &Result{Table: acc.Table(e.task.SheetTitle()), Report: report}

	out := filepath.Join(found.RootDir, e.task.OutputName())
	if err := workbook.WriteFile(out, e.task.Fills, result.Table); err != nil {
		report.SaveError = err.Error()
		report.Duration = time.Since(start)
		e.logger.Error("error saving merged file", "path", out, "error", err)
		return result, err
	}
	report.OutputPath = out
	report.Duration = time.Since(start)

	e.logger.Info("merge completed",
		"output", out,
		"files", report.FilesProcessed,
		"sheets", report.SheetsMerged,
		"rows", report.RowsMerged,
		"errors", len(report.Errors))
	return result, nil
}

// mergeFile copies every admitted sheet of one workbook. The workbook is
// closed on every path out.
func (e *Engine) mergeFile(path string, acc *Accumulator, report *Report) error {
	name := filepath.Base(path)
	e.logger.Info("processing file", "file", name)

	h, err := workbook.Open(path)
	if err != nil {
		return err
	}
	defer h.Close()

	for _, sheetName := range h.SheetNames() {
		sheet, err := h.Sheet(sheetName)
		if err != nil {
			return err
		}

		d, err := e.admitter.Admit(path, sheet)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", sheetName, err)
		}
		if !d.Admitted {
			e.logger.Debug("skipping sheet", "file", name, "sheet", sheetName, "reason", d.Reason)
			e.notify(Event{Kind: EventSheetSkipped, File: name, Sheet: sheetName, Reason: d.Reason})
			continue
		}
		report.SheetsAdmitted++

		last, ok := e.extent.LastRow(sheet)
		if !ok {
			e.logger.Debug("no data in sheet", "file", name, "sheet", sheetName)
			e.notify(Event{Kind: EventSheetSkipped, File: name, Sheet: sheetName, Reason: "no data"})
			continue
		}

		span := e.span
		span.LastRow = last
		e.logger.Info("copying range",
			"file", name,
			"sheet", sheetName,
			"range", e.task.Process.WithEndRow(last).String())

		n := CopyRows(sheet, span, acc)
		report.SheetsMerged++
		report.RowsMerged += n
		e.notify(Event{Kind: EventSheetCopied, File: name, Sheet: sheetName, Rows: n})
	}
	return nil
}

func (e *Engine) notify(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}
