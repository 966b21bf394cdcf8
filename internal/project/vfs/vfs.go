// Package vfs provides the storage abstraction used by the session engine.
//
// The VFS interface allows swapping the underlying storage implementation,
// enabling testing with in-memory file systems and use of a directory-listing
// cache in front of the OS file system. All operations take a context because
// a backend may block on I/O.
package vfs

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"
)

// VFS is the storage collaborator consumed by the loader, saver and search
// scanner.
type VFS interface {
	// ReadFile reads the entire file content.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(ctx context.Context, path string, data []byte) error

	// ListDir lists a directory. With recursive false only direct children
	// are returned.
	ListDir(ctx context.Context, path string, recursive bool) ([]Entry, error)

	// Stat returns information about a single path.
	Stat(ctx context.Context, path string) (Entry, error)
}

// Invalidator drops cached directory listings so that directory browsers
// observe files created through another path.
type Invalidator interface {
	// Invalidate drops cached listings for path.
	Invalidate(path string)

	// InvalidateAll drops every cached listing.
	InvalidateAll()
}

// Entry describes a file or directory.
type Entry struct {
	Path    string
	Name    string
	IsDir   bool
	Ext     string
	Size    int64
	ModTime time.Time
}

// NewEntry creates an Entry for p, deriving Name and Ext.
func NewEntry(p string, isDir bool, size int64, modTime time.Time) Entry {
	name := baseName(p)
	ext := ""
	if !isDir {
		ext = path.Ext(name)
	}
	return Entry{
		Path:    p,
		Name:    name,
		IsDir:   isDir,
		Ext:     ext,
		Size:    size,
		ModTime: modTime,
	}
}

// Join joins a directory and a file name with a single separator.
func Join(dir, name string) string {
	dir = strings.TrimRight(dir, "/\\")
	name = strings.TrimLeft(name, "/\\")
	if dir == "" {
		return "/" + name
	}
	return dir + "/" + name
}

// Dir returns the directory portion of p.
func Dir(p string) string {
	i := strings.LastIndexAny(p, "/\\")
	switch {
	case i < 0:
		return "."
	case i == 0:
		return p[:1]
	default:
		return p[:i]
	}
}

func baseName(p string) string {
	p = strings.TrimRight(p, "/\\")
	if i := strings.LastIndexAny(p, "/\\"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Base returns the last element of p.
func Base(p string) string {
	return baseName(p)
}

// IsBinary attempts to detect if content is binary (not text).
// Uses heuristics: presence of null bytes, high ratio of non-printable characters.
func IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	// Check first 8KB at most
	checkLen := len(content)
	if checkLen > 8192 {
		checkLen = 8192
	}
	sample := content[:checkLen]

	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	nonText := 0
	for _, b := range sample {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			nonText++
		}
	}

	return float64(nonText)/float64(checkLen) > 0.1
}
