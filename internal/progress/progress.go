// Package progress draws a one-line status for a run over many workbooks.
// All output goes to stderr to avoid polluting stdout/pipes.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Stats are the running totals of a Tracker.
type Stats struct {
	Files  int      // files finished, failed ones included
	Total  int      // files in the run
	Sheets int      // sheets copied
	Rows   int      // rows copied
	Failed []string // names of files that were skipped
}

// Tracker follows a run file by file: which workbook is open, how many
// sheets and rows it has produced so far, and which files were skipped.
type Tracker struct {
	Label   string
	Width   int
	Enabled bool
	Out     io.Writer

	mu      sync.Mutex
	stats   Stats
	current string
}

// New creates a tracker writing to stderr.
// Automatically disabled if not a TTY, if --json is set, or SHEETMERGE_NO_PROGRESS=1.
func New(label string) *Tracker {
	return &Tracker{
		Label:   label,
		Width:   30,
		Enabled: shouldEnable(),
		Out:     os.Stderr,
	}
}

// StartFile marks file index (1-based) of total as the one being read.
func (t *Tracker) StartFile(index, total int, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Total = total
	t.stats.Files = clamp(index-1, total)
	t.current = name
	t.render(name)
}

// Sheet records a copied sheet of the current file.
func (t *Tracker) Sheet(name string, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Sheets++
	t.stats.Rows += rows
	t.render(fmt.Sprintf("%s / %s +%d", t.current, name, rows))
}

// Fail records that the current file was skipped and prints why above the bar.
func (t *Tracker) Fail(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Failed = append(t.stats.Failed, name)
	t.stats.Files = clamp(t.stats.Files+1, t.stats.Total)
	if t.Enabled {
		fmt.Fprintf(t.writer(), "\r\033[K✗ skipped %s: %v\n", name, err)
	}
	t.render(name)
}

// Finish prints the completion line and resets the counters so the tracker
// can follow the next task of a job.
func (t *Tracker) Finish(summary string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Enabled {
		if n := len(t.stats.Failed); n > 0 {
			summary = fmt.Sprintf("%s (%d skipped)", summary, n)
		}
		fmt.Fprintf(t.writer(), "\r\033[K✓ %s\n", summary)
	}
	t.stats = Stats{}
	t.current = ""
}

// Stats returns a copy of the running totals.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.Failed = append([]string(nil), t.stats.Failed...)
	return s
}

func (t *Tracker) writer() io.Writer {
	if t.Out == nil {
		return os.Stderr
	}
	return t.Out
}

func (t *Tracker) render(status string) {
	if !t.Enabled {
		return
	}

	filled := 0
	if t.stats.Total > 0 {
		filled = t.stats.Files * t.Width / t.stats.Total
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", t.Width-filled)
	fmt.Fprintf(t.writer(), "\r\033[K%s [%s] %d/%d files  %d sheets  %d rows  %s",
		t.Label, bar, t.stats.Files, t.stats.Total, t.stats.Sheets, t.stats.Rows, status)
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

func shouldEnable() bool {
	if os.Getenv("SHEETMERGE_NO_PROGRESS") == "1" {
		return false
	}
	if os.Getenv("SHEETMERGE_JSON") == "true" {
		return false
	}
	return isTTY()
}

func isTTY() bool {
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
