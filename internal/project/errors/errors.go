// Package errors defines the failure taxonomy shared by the file session
// packages.
//
// Every failure surfaced to a caller is a *PathError carrying the operation,
// the path it concerned, the failure kind (one of the Err*Failed / ErrInvalid*
// sentinels) and the underlying cause. Callers classify failures with
// errors.Is against either the kind or the cause.
package errors

import (
	"errors"
	"io/fs"
)

// Failure kinds.
var (
	// ErrLoadFailed reports that file content could not be read.
	ErrLoadFailed = errors.New("load failed")

	// ErrSaveFailed reports that file content could not be written.
	ErrSaveFailed = errors.New("save failed")

	// ErrInvalidTarget reports a save to an empty or unsaved-document path.
	ErrInvalidTarget = errors.New("invalid save target")

	// ErrCreateFailed reports that a new file could not be created.
	ErrCreateFailed = errors.New("create failed")
)

// Causes.
var (
	ErrNotFound       = errors.New("not found")
	ErrPermission     = errors.New("permission denied")
	ErrIsDirectory    = errors.New("path is a directory")
	ErrAlreadyOpen    = errors.New("file already open")
	ErrAlreadyExists  = errors.New("already exists")
	ErrFileTooLarge   = errors.New("file too large")
	ErrBinaryFile     = errors.New("binary file")
	ErrEmptyPath      = errors.New("empty path")
	ErrUnsavedPath    = errors.New("document has no backing file")
	ErrNoActiveTab    = errors.New("no active tab")
	ErrTabNotOpen     = errors.New("tab not open")
	ErrSaveAsRequired = errors.New("save as required")
)

// PathError records a failed operation on a path.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *PathError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the failure kind of e.
func (e *PathError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewPathError creates a PathError without a failure kind.
func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}

// LoadFailed wraps cause as a load failure for path.
func LoadFailed(path string, cause error) *PathError {
	return &PathError{Op: "load", Path: path, Kind: ErrLoadFailed, Err: normalize(cause)}
}

// SaveFailed wraps cause as a save failure for path.
func SaveFailed(path string, cause error) *PathError {
	return &PathError{Op: "save", Path: path, Kind: ErrSaveFailed, Err: normalize(cause)}
}

// InvalidTarget reports that path cannot be saved to.
func InvalidTarget(path string, cause error) *PathError {
	return &PathError{Op: "save", Path: path, Kind: ErrInvalidTarget, Err: cause}
}

// CreateFailed wraps cause as a create failure for path.
func CreateFailed(path string, cause error) *PathError {
	return &PathError{Op: "create", Path: path, Kind: ErrCreateFailed, Err: normalize(cause)}
}

// normalize joins well-known io/fs errors with this package's causes so
// that callers can match either.
func normalize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermission):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return errors.Join(ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return errors.Join(ErrPermission, err)
	default:
		return err
	}
}

// IsNotFound reports whether err was caused by a missing file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// IsPermission reports whether err was caused by denied access.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission) || errors.Is(err, fs.ErrPermission)
}
