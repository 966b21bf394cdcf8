// Package watcher reports external file system changes so that cached
// directory listings can be dropped when files appear or disappear outside
// the session.
package watcher

import (
	"errors"
	"path/filepath"
	"time"
)

var (
	// ErrClosed is returned by operations on a closed watcher.
	ErrClosed = errors.New("watcher closed")
	// ErrNotDir is returned when a watch root is not a directory.
	ErrNotDir = errors.New("not a directory")
	// ErrNotWatched is returned when removing a root that was never added.
	ErrNotWatched = errors.New("directory not watched")
)

// Kind classifies a change.
type Kind uint8

const (
	Added Kind = iota + 1
	Removed
	Renamed
	Modified
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	case Modified:
		return "modified"
	}
	return "unknown"
}

// AffectsListing reports whether the change adds or removes a directory
// entry. Content writes do not.
func (k Kind) AffectsListing() bool {
	return k == Added || k == Removed || k == Renamed
}

// Change is one observed change to a path.
type Change struct {
	Path string
	Kind Kind
	At   time.Time
}

// Dir returns the directory whose listing the change touches.
func (c Change) Dir() string {
	return filepath.Dir(c.Path)
}

// Source delivers changes. Both channels are closed by Close.
type Source interface {
	Changes() <-chan Change
	Errors() <-chan error
	Close() error
}
