package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/klytics/sheetmerge/internal/config"
	"github.com/klytics/sheetmerge/internal/consolidate"
	"github.com/klytics/sheetmerge/internal/merge"
)

// TaskResult is the outcome of one merge task.
type TaskResult struct {
	Label  string        `json:"label"`
	Report *merge.Report `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Result is the outcome of a whole job.
type Result struct {
	Name          string              `json:"name"`
	Folder        string              `json:"folder"`
	Tasks         []TaskResult        `json:"tasks"`
	Consolidation *consolidate.Result `json:"consolidation,omitempty"`
	Duration      time.Duration       `json:"durationNs"`
}

// ErrorMessages lists every task failure and skipped file, prefixed with
// the task label.
func (r *Result) ErrorMessages() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, t := range r.Tasks {
		if t.Error != "" {
			out = append(out, t.Label+": "+t.Error)
			continue
		}
		for _, msg := range t.Report.ErrorMessages() {
			out = append(out, t.Label+": "+msg)
		}
	}
	return out
}

// Failed reports whether any task failed.
func (r *Result) Failed() bool {
	for _, t := range r.Tasks {
		if t.Error != "" {
			return true
		}
	}
	return false
}

// Executor runs job files.
type Executor struct {
	cfg      *config.Config
	logger   *slog.Logger
	observer merge.Observer
	onTask   func(TaskResult)
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger passed down to every engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver forwards merge progress events.
func WithObserver(o merge.Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// OnTask is called after each task finishes.
func OnTask(fn func(TaskResult)) Option {
	return func(e *Executor) { e.onTask = fn }
}

// NewExecutor creates an executor resolving tasks against cfg.
func NewExecutor(cfg *config.Config, opts ...Option) *Executor {
	e := &Executor{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes every task in order, then the consolidation step. A failing
// task stops the job unless its on_failure is "skip". The result collected
// so far is returned alongside any error.
func (e *Executor) Run(ctx context.Context, f *File) (*Result, error) {
	start := time.Now()
	res := &Result{Name: f.Name, Folder: f.Folder}
	defer func() { res.Duration = time.Since(start) }()

	outputs := make(map[string]string)
	for i, spec := range f.Tasks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e.logger.Info("running task", "task", spec.Label, "step", fmt.Sprintf("%d/%d", i+1, len(f.Tasks)))

		tr, out, err := e.runTask(spec, f)
		res.Tasks = append(res.Tasks, tr)
		if e.onTask != nil {
			e.onTask(tr)
		}
		if err != nil {
			if spec.OnFailure == "skip" {
				e.logger.Warn("skipping failed task", "task", spec.Label, "error", err)
				continue
			}
			return res, fmt.Errorf("task %q: %w", spec.Label, err)
		}
		outputs[spec.Label] = out
	}

	if c := f.Consolidate; c != nil {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		in, ok := outputs[c.Task]
		if !ok {
			return res, fmt.Errorf("consolidate: task %q produced no output", c.Task)
		}
		out := c.Output
		if out != "" && !filepath.IsAbs(out) {
			out = filepath.Join(f.Folder, out)
		}
		cres, err := consolidate.Run(in, consolidate.Options{
			Sheet:   c.Sheet,
			Columns: c.Columns,
			Fills:   Fills(e.cfg),
			Output:  out,
			Logger:  e.logger,
		})
		if err != nil {
			return res, fmt.Errorf("consolidate %s: %w", filepath.Base(in), err)
		}
		res.Consolidation = cres
	}
	return res, nil
}

func (e *Executor) runTask(spec TaskSpec, f *File) (TaskResult, string, error) {
	tr := TaskResult{Label: spec.Label}

	task, err := Build(spec, f.Folder, f.Recursive, e.cfg)
	if err != nil {
		tr.Error = err.Error()
		return tr, "", err
	}
	task.Scan.Exclude = append(task.Scan.Exclude, Outputs(f)...)
	engine, err := merge.New(task, merge.WithLogger(e.logger), merge.WithObserver(e.observer))
	if err != nil {
		tr.Error = err.Error()
		return tr, "", err
	}
	mres, err := engine.Run()
	if mres != nil {
		tr.Report = mres.Report
	}
	if err != nil {
		tr.Error = err.Error()
		return tr, "", err
	}
	return tr, mres.Report.OutputPath, nil
}

// Outputs lists the base names of every file the job writes, so that no
// task reads another task's output.
func Outputs(f *File) []string {
	var names []string
	for _, spec := range f.Tasks {
		names = append(names, merge.Task{Label: spec.Label}.OutputName())
	}
	if c := f.Consolidate; c != nil {
		out := c.Output
		if out == "" {
			out = consolidate.OutputPath(merge.Task{Label: c.Task}.OutputName())
		}
		names = append(names, filepath.Base(out))
	}
	return names
}
