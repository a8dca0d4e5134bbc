// Package watch monitors workbook folders and re-runs a job once changes
// have settled.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/klytics/sheetmerge/internal/scan"
)

// DefaultDebounce is the quiet period after the last change before a run.
const DefaultDebounce = 2 * time.Second

// Config configures a Watcher.
type Config struct {
	Directories []string
	Recursive   bool
	Debounce    time.Duration
	Filter      scan.Options // which files count as workbook changes
}

// Event is one triggered run.
type Event struct {
	Time    time.Time `json:"time"`
	Changed []string  `json:"changed"`
	Status  string    `json:"status"` // "processed", "error"
	Error   string    `json:"error,omitempty"`
}

// Handler runs when changes settle. changed lists the workbook paths that
// were created or written since the previous run.
type Handler func(ctx context.Context, changed []string) error

// Watcher collects workbook changes and calls Handler once per quiet period.
type Watcher struct {
	Config  Config
	Logger  *slog.Logger
	Handler Handler

	mu      sync.Mutex
	events  []Event
	pending map[string]bool
	timer   *time.Timer
	watcher *fsnotify.Watcher
	runs    chan []string
}

// New creates a new Watcher with the given configuration.
func New(config Config, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	return &Watcher{
		Config:  config,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Handler: handler,
		pending: make(map[string]bool),
		watcher: fsw,
		runs:    make(chan []string, 1),
	}, nil
}

// Start begins watching the configured directories. It blocks until the
// context is cancelled. Runs never overlap: changes arriving during a run
// are batched into the next one.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()

	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}
		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else if err := w.watcher.Add(absDir); err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	w.Logger.Info("watching", "directories", len(w.Config.Directories), "debounce", w.Config.Debounce)

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("stopping watcher")
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watch error", "error", err)
		case changed := <-w.runs:
			w.run(ctx, changed)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !scan.IsCandidate(event.Name, w.Config.Filter) {
		return
	}
	w.Touch(event.Name)
}

// Touch records a change to path and restarts the quiet period.
func (w *Watcher) Touch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.Config.Debounce, w.flush)
}

// flush hands the pending batch to the event loop.
func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(changed)
	select {
	case w.runs <- changed:
	default:
		// A run is already queued; fold these changes back in for the next one.
		w.mu.Lock()
		for _, p := range changed {
			w.pending[p] = true
		}
		w.mu.Unlock()
		time.AfterFunc(w.Config.Debounce, w.flush)
	}
}

func (w *Watcher) run(ctx context.Context, changed []string) {
	evt := Event{Time: time.Now(), Changed: changed}
	if w.Handler == nil {
		evt.Status = "processed"
	} else if err := w.Handler(ctx, changed); err != nil {
		evt.Status = "error"
		evt.Error = err.Error()
		w.Logger.Error("run failed", "changed", len(changed), "error", err)
	} else {
		evt.Status = "processed"
		w.Logger.Info("run completed", "changed", len(changed))
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

// Events returns all recorded runs.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}
