package gamefs

import (
	"errors"
	"fmt"
)

// ErrFatal is wrapped by every error that reports a broken invariant: an
// uninitialized filesystem, a bad handle, an exhausted handle table, an
// unsupported archive seek or a low-level read failure. Callers are expected
// to abandon the current operation chain when IsFatal reports true.
var ErrFatal = errors.New("gamefs: fatal")

var (
	// ErrNotInitialized is returned when an operation runs before a search path chain is installed
	ErrNotInitialized = errors.New("filesystem call made without initialization")
	// ErrInvalidHandle is returned for handle 0, out of range handles and closed handles
	ErrInvalidHandle = errors.New("invalid file handle")
	// ErrNoFreeHandles is returned when every handle slot is in use
	ErrNoFreeHandles = errors.New("no free file handles")
	// ErrUnsupportedSeek is returned for END or negative seeks on archived handles
	ErrUnsupportedSeek = errors.New("negative offsets and seek-from-end are not supported on archive entries")
	// ErrReadFailed is returned when the backend reports a read error
	ErrReadFailed = errors.New("read failed")
	// ErrEmptyPath is returned when a whole-file operation is given an empty name
	ErrEmptyPath = errors.New("empty logical path")
)

var (
	// ErrNotFound is returned when no search path entry holds the logical path
	ErrNotFound = errors.New("file not found in search path")
	// ErrPathRejected is returned when a path carries a traversal or drive-chaining token
	ErrPathRejected = errors.New("refusing to use relative path")
	// ErrWriteFailed is returned when a write makes no progress after one retry
	ErrWriteFailed = errors.New("write failed")
	// ErrLockFailed is returned when an advisory lock cannot be taken
	ErrLockFailed = errors.New("could not lock file")
	// ErrReadOnlyHandle is returned when writing to a handle opened for reading
	ErrReadOnlyHandle = errors.New("handle is not open for writing")
)

// IsFatal reports whether err was classified as fatal.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// fatalError joins ErrFatal with a specific sentinel so both match errors.Is.
type fatalError struct {
	kind error
	msg  string
}

func (e *fatalError) Error() string {
	if e.msg == "" {
		return e.kind.Error()
	}
	return e.msg + ": " + e.kind.Error()
}

func (e *fatalError) Is(target error) bool {
	return target == ErrFatal || target == e.kind
}

func (e *fatalError) Unwrap() error {
	return e.kind
}

// fatalf classifies kind as fatal, with an optional formatted context prefix.
func fatalf(kind error, format string, args ...any) error {
	msg := ""
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &fatalError{kind: kind, msg: msg}
}
