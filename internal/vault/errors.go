package vault

import (
	"errors"
	"os"
)

// Common errors returned by vault operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, vault.ErrNotFound) {
//	    // Handle a missing note
//	}
var (
	// ErrInvalidPath is returned when a caller-supplied path is absolute,
	// escapes the vault root, or is otherwise not a usable vault-relative
	// path.
	ErrInvalidPath = errors.New("invalid vault path")

	// ErrNotFound is returned when the requested note or directory does
	// not exist inside the vault.
	ErrNotFound = errors.New("note not found")

	// ErrNotMarkdown is returned when an operation that requires a
	// Markdown note is given a path to some other kind of file.
	ErrNotMarkdown = errors.New("not a markdown note")

	// ErrNotDirectory is returned when a scope path exists but is not
	// a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// IsInvalidPath returns true if the error indicates a rejected path,
// either an absolute path or one that escapes the vault root.
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// IsNotFound returns true if the error indicates a missing note or
// directory. It folds in os.IsNotExist so callers don't have to care
// whether the miss was detected before or during the filesystem call.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return errors.Is(err, os.ErrNotExist)
}
