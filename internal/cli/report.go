package cli

import (
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klytics/sheetmerge/internal/merge"
	"github.com/klytics/sheetmerge/internal/output"
	"github.com/klytics/sheetmerge/internal/progress"
)

// MergeProgress returns an observer feeding a per-file progress tracker.
func MergeProgress(label string) (merge.Observer, *progress.Tracker) {
	tracker := progress.New(label)
	return func(ev merge.Event) {
		name := filepath.Base(ev.File)
		switch ev.Kind {
		case merge.EventFileStarted:
			tracker.StartFile(ev.Index, ev.Total, name)
		case merge.EventFileFailed:
			tracker.Fail(name, ev.Err)
		case merge.EventSheetCopied:
			tracker.Sheet(ev.Sheet, ev.Rows)
		}
	}, tracker
}

// PrintReport writes the human-readable end-of-run status of a merge.
func PrintReport(w io.Writer, r *merge.Report) {
	if r.SaveError == "" {
		output.Success(w, "%s", r.Summary())
	} else {
		output.Failure(w, "%s", r.Summary())
	}

	output.Table(w, []string{"Files found", "Processed", "Sheets admitted", "Sheets merged", "Rows", "Zeros blanked"},
		[][]string{{
			strconv.Itoa(r.FilesFound),
			strconv.Itoa(r.FilesProcessed),
			strconv.Itoa(r.SheetsAdmitted),
			strconv.Itoa(r.SheetsMerged),
			strconv.Itoa(r.RowsMerged),
			strconv.Itoa(r.ZerosSuppressed),
		}})

	for _, msg := range r.ErrorMessages() {
		output.Warning(w, "%s", msg)
	}
	if r.OutputPath != "" {
		output.Dim(w, "Saved to %s (%s)", r.OutputPath, r.Duration.Round(time.Millisecond))
	}
}
