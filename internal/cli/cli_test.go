package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/klytics/sheetmerge/internal/merge"
	"github.com/klytics/sheetmerge/internal/output"
	"github.com/klytics/sheetmerge/internal/rangespec"
	"github.com/klytics/sheetmerge/internal/workbook"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, output.ExitOK},
		{"save", fmt.Errorf("wrapped: %w", &workbook.SaveError{Path: "x", Err: errors.New("disk full")}), output.ExitSystemError},
		{"range", &rangespec.MalformedRangeError{Input: "x"}, output.ExitUserError},
		{"other", errors.New("boom"), output.ExitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true
	r := &merge.Report{
		Task:           "OLE",
		FilesFound:     3,
		FilesProcessed: 2,
		SheetsMerged:   4,
		RowsMerged:     17,
		OutputPath:     "/data/merge_OLE.xlsx",
		Errors:         []merge.FileError{{File: "b.xlsx", Message: "could not open"}},
	}

	var buf bytes.Buffer
	PrintReport(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"Process completed for OLE",
		"Rows merged: 17",
		"b.xlsx: could not open",
		"Saved to /data/merge_OLE.xlsx",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMergeProgressTracksFiles(t *testing.T) {
	observe, tracker := MergeProgress("OLE")
	tracker.Enabled = false

	observe(merge.Event{Kind: merge.EventFileStarted, File: "a.xlsx", Index: 1, Total: 4})
	observe(merge.Event{Kind: merge.EventFileFailed, File: "a.xlsx", Index: 1, Total: 4, Err: errors.New("bad")})
	observe(merge.Event{Kind: merge.EventFileStarted, File: "b.xlsx", Index: 2, Total: 4})
	observe(merge.Event{Kind: merge.EventSheetCopied, File: "b.xlsx", Sheet: "7A", Rows: 12, Index: 2, Total: 4})

	s := tracker.Stats()
	if s.Total != 4 || s.Files != 1 {
		t.Errorf("tracker at %d/%d, want 1/4", s.Files, s.Total)
	}
	if s.Sheets != 1 || s.Rows != 12 {
		t.Errorf("tracker counted %d sheets, %d rows", s.Sheets, s.Rows)
	}
	if len(s.Failed) != 1 || s.Failed[0] != "a.xlsx" {
		t.Errorf("failed = %v, want [a.xlsx]", s.Failed)
	}
}
