package vfs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// OSFS implements VFS using the operating system's file system.
type OSFS struct {
	perm fs.FileMode
}

// NewOSFS creates a new OS file system writing files with mode 0644.
func NewOSFS() *OSFS {
	return &OSFS{perm: 0644}
}

// Ensure OSFS implements VFS.
var _ VFS = (*OSFS)(nil)

// ReadFile reads the entire file content.
func (f *OSFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// WriteFile writes data to a file, creating it if necessary.
func (f *OSFS) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(path, data, f.perm)
}

// Stat returns file information.
func (f *OSFS) Stat(ctx context.Context, path string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	return NewEntry(path, info.IsDir(), info.Size(), info.ModTime()), nil
}

// ListDir lists a directory. Recursive listings are produced with fastwalk
// and returned sorted by path.
func (f *OSFS) ListDir(ctx context.Context, path string, recursive bool) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !recursive {
		return f.readDir(path)
	}

	var (
		mu      sync.Mutex
		entries []Entry
	)
	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, path, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than failing the listing
			return nil
		}
		if fullPath == path {
			return nil
		}
		if ctx.Err() != nil {
			return fastwalk.SkipDir
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return nil
		}

		mu.Lock()
		entries = append(entries, NewEntry(fullPath, info.IsDir(), info.Size(), info.ModTime()))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

func (f *OSFS) readDir(path string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		info, err := d.Info()
		if err != nil {
			continue // Skip entries we can't stat
		}
		entries = append(entries, NewEntry(filepath.Join(path, d.Name()), info.IsDir(), info.Size(), info.ModTime()))
	}
	return entries, nil
}
