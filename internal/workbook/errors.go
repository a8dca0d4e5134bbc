package workbook

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the workbook path does not exist.
var ErrFileNotFound = errors.New("file not found")

// FileOpenError reports a workbook that could not be opened or read:
// corrupt, locked, unsupported or unreadable.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("could not open %s — is this a valid .xlsx file? %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() error {
	return e.Err
}

// SaveError reports an output workbook that could not be written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("could not save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
