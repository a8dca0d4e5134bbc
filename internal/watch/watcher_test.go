package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/klytics/sheetmerge/internal/scan"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
	err   error
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 10)}
}

func (r *recorder) handle(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.ch <- struct{}{}
	return r.err
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the loop a moment to register the directories.
	time.Sleep(100 * time.Millisecond)
}

func TestNewDefaults(t *testing.T) {
	w, err := New(Config{Directories: []string{t.TempDir()}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()
	if w.Config.Debounce != DefaultDebounce {
		t.Errorf("debounce = %v", w.Config.Debounce)
	}
}

func TestTouchBatchesChanges(t *testing.T) {
	rec := newRecorder()
	w, err := New(Config{Directories: []string{t.TempDir()}, Debounce: 50 * time.Millisecond}, rec.handle)
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	w.Touch("/data/b.xlsx")
	w.Touch("/data/a.xlsx")
	w.Touch("/data/a.xlsx")
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 1 {
		t.Fatalf("expected 1 run, got %d", len(rec.calls))
	}
	got := rec.calls[0]
	if len(got) != 2 || got[0] != "/data/a.xlsx" || got[1] != "/data/b.xlsx" {
		t.Errorf("changed = %v", got)
	}
}

func TestHandlerErrorIsRecorded(t *testing.T) {
	rec := newRecorder()
	rec.err = errors.New("merge failed")
	w, err := New(Config{Directories: []string{t.TempDir()}, Debounce: 20 * time.Millisecond}, rec.handle)
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	w.Touch("/data/a.xlsx")
	rec.wait(t)

	deadline := time.Now().Add(2 * time.Second)
	for len(w.Events()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	events := w.Events()
	if len(events) != 1 || events[0].Status != "error" || events[0].Error != "merge failed" {
		t.Errorf("events = %+v", events)
	}
}

func TestFileEventTriggersRun(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	w, err := New(Config{Directories: []string{dir}, Debounce: 50 * time.Millisecond}, rec.handle)
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	if err := os.WriteFile(filepath.Join(dir, "class.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls[0]) != 1 || filepath.Base(rec.calls[0][0]) != "class.xlsx" {
		t.Errorf("changed = %v", rec.calls[0])
	}
}

func TestHandleEventFiltersFiles(t *testing.T) {
	w, err := New(Config{
		Debounce: time.Hour,
		Filter:   scan.Options{Exclude: []string{"merge_OLE.xlsx"}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()

	w.handleEvent(fsnotify.Event{Name: "/d/~$class.xlsx", Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: "/d/notes.txt", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "/d/merge_OLE.xlsx", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "/d/class.xlsx", Op: fsnotify.Remove})
	w.handleEvent(fsnotify.Event{Name: "/d/class.xlsx", Op: fsnotify.Write})

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	if len(w.pending) != 1 || !w.pending["/d/class.xlsx"] {
		t.Errorf("pending = %v", w.pending)
	}
}

func TestStartMissingDirectory(t *testing.T) {
	w, err := New(Config{Directories: []string{filepath.Join(t.TempDir(), "missing")}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}
