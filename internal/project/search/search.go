// Package search implements quick-open file search: fuzzy name matching,
// a depth-limited project scan ranked by session history, debounced query
// handling and result selection.
package search

import (
	"errors"
	"time"
)

// ErrInvalidPattern is returned for a skip glob that does not compile.
var ErrInvalidPattern = errors.New("invalid skip pattern")

// Defaults for Options.
const (
	DefaultMaxDepth        = 4
	DefaultMaxResults      = 50
	DefaultRecentBoost     = 1000
	DefaultOpenCountWeight = 10
	DefaultDebounce        = 300 * time.Millisecond
)

// DefaultSkipDirs are directory names never descended into by the scan.
var DefaultSkipDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "bower_components", "vendor",
	"dist", "build", "out", "target", "bin", "obj",
	".cache", ".next", ".nuxt", "coverage",
	"__pycache__", ".venv", ".tox", ".idea", ".vscode",
}

// Options configures a QuickOpen.
type Options struct {
	// MaxDepth is the number of directory levels scanned, counting the root
	// as level 1.
	MaxDepth int

	// MaxResults caps the returned result list.
	MaxResults int

	// RecentBoost is added to the score of recent paths.
	RecentBoost int

	// OpenCountWeight is added per recorded open to scanned files.
	OpenCountWeight int

	// Debounce is the quiet period SetQuery waits for before scanning.
	Debounce time.Duration

	// SkipDirs lists directory names the scan does not enter.
	SkipDirs []string

	// SkipGlobs lists glob patterns matched against entry names and
	// root-relative paths; matches are skipped.
	SkipGlobs []string
}

// DefaultOptions returns the default quick-open options.
func DefaultOptions() Options {
	return Options{
		MaxDepth:        DefaultMaxDepth,
		MaxResults:      DefaultMaxResults,
		RecentBoost:     DefaultRecentBoost,
		OpenCountWeight: DefaultOpenCountWeight,
		Debounce:        DefaultDebounce,
		SkipDirs:        append([]string(nil), DefaultSkipDirs...),
	}
}

// Request is one quick-open query.
type Request struct {
	// Query is matched against file names.
	Query string

	// Root is the project directory scanned.
	Root string

	// Recent lists the session's recently opened paths, most recent first.
	Recent []string
}

// Result is one ranked match.
type Result struct {
	// Path is the full path to the file.
	Path string

	// Name is the file name the query was matched against.
	Name string

	// Score is the final ranking score (higher is better).
	Score int

	// Positions are the rune indexes of Name matched by the query.
	Positions []int

	// Recent is set for results drawn from recent or session-known paths.
	Recent bool
}

// Response carries the results of a debounced query.
type Response struct {
	Request Request
	Results []Result
	Err     error
}
