package merge

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileError is a per-file failure recorded while the run continued.
type FileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Report is the status of one merge run.
type Report struct {
	Task            string        `json:"task"`
	Folder          string        `json:"folder"`
	OutputPath      string        `json:"outputPath,omitempty"`
	FilesFound      int           `json:"filesFound"`
	FilesProcessed  int           `json:"filesProcessed"`
	SheetsAdmitted  int           `json:"sheetsAdmitted"`
	SheetsMerged    int           `json:"sheetsMerged"`
	RowsMerged      int           `json:"rowsMerged"`
	Concatenated    int           `json:"concatenated"`
	ZerosSuppressed int           `json:"zerosSuppressed"`
	Errors          []FileError   `json:"errors,omitempty"`
	SaveError       string        `json:"saveError,omitempty"`
	Duration        time.Duration `json:"durationNs"`
}

func (r *Report) addError(path string, err error) {
	r.Errors = append(r.Errors, FileError{File: filepath.Base(path), Message: err.Error()})
}

// ErrorMessages returns one line per recorded error.
func (r *Report) ErrorMessages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Errors)+1)
	for _, e := range r.Errors {
		out = append(out, fmt.Sprintf("%s: %s", e.File, e.Message))
	}
	if r.SaveError != "" {
		out = append(out, r.SaveError)
	}
	return out
}

// Summary is the one-line completion message.
func (r *Report) Summary() string {
	var b strings.Builder
	label := r.Task
	if label == "" {
		label = "merge"
	}
	fmt.Fprintf(&b, "Process completed for %s. Files processed: %d, Sheets processed: %d, Rows merged: %d",
		label, r.FilesProcessed, r.SheetsMerged, r.RowsMerged)
	if n := len(r.Errors); n > 0 {
		fmt.Fprintf(&b, ", %d file error(s)", n)
	}
	return b.String()
}
