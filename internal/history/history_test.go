package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAppendAssignsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.jsonl")
	s := NewStore(path, true)

	rec, err := s.Append(context.Background(), Record{Command: "merge", Task: "OLE", Rows: 40, OK: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", rec.ID, err)
	}
	if rec.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	records, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID != rec.ID || records[0].Rows != 40 {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestDisabledStoreIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	s := NewStore(path, false)
	if _, err := s.Append(context.Background(), Record{Command: "merge"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("disabled store should not create file")
	}
}

func TestReadSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	content := `{"id":"a","command":"merge","ok":true}
not json
{"id":"b","command":"consolidate","ok":false}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	records, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestReadMissingFile(t *testing.T) {
	records, err := Read(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil || records != nil {
		t.Errorf("got %v, %v", records, err)
	}
}

func TestFilter(t *testing.T) {
	now := time.Now()
	records := []Record{
		{ID: "1", Command: "merge", Task: "OLE", OK: true, Timestamp: now.Add(-48 * time.Hour)},
		{ID: "2", Command: "merge", Task: "Displine", OK: true, Errors: []string{"b.xlsx: corrupt"}, Timestamp: now},
		{ID: "3", Command: "consolidate", OK: false, Timestamp: now},
	}

	if got := Filter(records, now.Add(-time.Hour), "", "", false); len(got) != 2 {
		t.Errorf("since: got %d", len(got))
	}
	if got := Filter(records, time.Time{}, "merge", "ole", false); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("task: got %+v", got)
	}
	if got := Filter(records, time.Time{}, "", "", true); len(got) != 2 {
		t.Errorf("failed only: got %d", len(got))
	}
}

func TestFind(t *testing.T) {
	records := []Record{{ID: "abc-1"}, {ID: "def-2"}}
	if r, ok := Find(records, "def"); !ok || r.ID != "def-2" {
		t.Errorf("got %+v %v", r, ok)
	}
	if _, ok := Find(records, ""); ok {
		t.Error("empty prefix should not match")
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	s := NewStore(path, true)
	s.Append(context.Background(), Record{Command: "merge"})
	if err := Clear(path); err != nil {
		t.Fatal(err)
	}
	records, _ := Read(path)
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d", len(records))
	}
	if err := Clear(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Errorf("clearing a missing file: %v", err)
	}
}
