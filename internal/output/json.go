package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klytics/sheetmerge/cmd/version"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, malformed range, missing file
	ExitSystemError = 2 // IO error, save failure
)

// Stdout is where JSON results are written.
var Stdout io.Writer = os.Stdout

// JSONResult is the envelope every command prints under --json.
// Warnings lists the files a run skipped, so scripts can spot a partial
// merge or search without walking the command-specific data.
type JSONResult struct {
	OK       bool        `json:"ok"`
	Command  string      `json:"command"`
	Version  string      `json:"version"`
	Data     interface{} `json:"data,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
	Error    string      `json:"error,omitempty"`
	Code     int         `json:"code,omitempty"`
}

// skipper is implemented by results that record unreadable files. Its
// method must accept a nil receiver.
type skipper interface {
	ErrorMessages() []string
}

func newResult(cmd string, data interface{}) JSONResult {
	res := JSONResult{Command: cmd, Version: version.Version, Data: data}
	if s, ok := data.(skipper); ok {
		res.Warnings = s.ErrorMessages()
	}
	return res
}

// PrintJSON writes a success envelope to Stdout.
func PrintJSON(cmd string, data interface{}) error {
	res := newResult(cmd, data)
	res.OK = true
	return encode(res)
}

// PrintJSONError writes a failure envelope to Stdout. data may carry a
// partial result, such as a merge report whose save failed.
func PrintJSONError(cmd string, err error, code int, data interface{}) error {
	res := newResult(cmd, data)
	res.Error = err.Error()
	res.Code = code
	if encErr := encode(res); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}

func encode(res JSONResult) error {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
