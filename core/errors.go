package core

import (
	"fmt"
	"io/fs"
)

// FileNotFoundError is returned when the path to classify does not exist.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return "file not found: " + e.Path
}

// Unwrap lets errors.Is(err, fs.ErrNotExist) match.
func (e *FileNotFoundError) Unwrap() error { return fs.ErrNotExist }

// OpenError is returned when the file exists but cannot be opened for
// reading (permission denied, directory, I/O failure).
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open file %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
