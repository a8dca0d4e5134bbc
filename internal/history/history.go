// Package history keeps a JSONL log of past merge and consolidation runs.
package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is one finished run.
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Command    string    `json:"command"`
	Task       string    `json:"task,omitempty"`
	Input      string    `json:"input"`
	Output     string    `json:"output,omitempty"`
	Files      int       `json:"files,omitempty"`
	Sheets     int       `json:"sheets,omitempty"`
	Rows       int       `json:"rows,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
	OK         bool      `json:"ok"`
	DurationMs int64     `json:"duration_ms"`
}

// Store appends records to a file.
type Store struct {
	FilePath string
	Enabled  bool
}

// NewStore creates a Store. A disabled store ignores every write.
func NewStore(filePath string, enabled bool) *Store {
	return &Store{FilePath: filePath, Enabled: enabled}
}

// Append stamps rec with a fresh ID and the current time when unset, and
// writes it. Best-effort: failures never block a command, but are returned
// so the caller can log them.
func (s *Store) Append(_ context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if s == nil || !s.Enabled || s.FilePath == "" {
		return rec, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.FilePath), 0o755); err != nil {
		return rec, err
	}
	f, err := os.OpenFile(s.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return rec, err
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}
	data = append(data, '\n')
	_, err = f.Write(data)
	return rec, err
}

// Read returns every record in the file, oldest first. A missing file is
// an empty history.
func Read(filePath string) ([]Record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []Record
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			continue // skip malformed lines
		}
		records = append(records, r)
	}
	return records, nil
}

// Filter returns records matching the given criteria. Empty criteria match all.
func Filter(records []Record, since time.Time, command, task string, failedOnly bool) []Record {
	var out []Record
	for _, r := range records {
		if !since.IsZero() && r.Timestamp.Before(since) {
			continue
		}
		if command != "" && r.Command != command {
			continue
		}
		if task != "" && !strings.EqualFold(r.Task, task) {
			continue
		}
		if failedOnly && r.OK && len(r.Errors) == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Find returns the record whose ID starts with prefix.
func Find(records []Record, prefix string) (Record, bool) {
	if prefix == "" {
		return Record{}, false
	}
	for _, r := range records {
		if strings.HasPrefix(r.ID, prefix) {
			return r, true
		}
	}
	return Record{}, false
}

// Clear truncates the history file.
func Clear(filePath string) error {
	err := os.Truncate(filePath, 0)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
