package vfs

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

// MemFS implements VFS using an in-memory file system.
// It is primarily used for testing but can also back scratch workspaces.
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]*memFile
	dirs  map[string]bool
}

type memFile struct {
	content []byte
	modTime time.Time
}

// NewMemFS creates a new in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string]*memFile),
		dirs:  map[string]bool{"/": true},
	}
}

// Ensure MemFS implements VFS.
var _ VFS = (*MemFS)(nil)

// ReadFile reads the entire file content.
func (m *MemFS) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	filePath = cleanPath(filePath)
	f, ok := m.files[filePath]
	if !ok {
		if m.dirs[filePath] {
			return nil, &fs.PathError{Op: "read", Path: filePath, Err: syscall.EISDIR}
		}
		return nil, &fs.PathError{Op: "read", Path: filePath, Err: fs.ErrNotExist}
	}

	// Return a copy to prevent modification
	content := make([]byte, len(f.content))
	copy(content, f.content)
	return content, nil
}

// WriteFile writes data to a file, creating it if necessary.
// The parent directory must exist.
func (m *MemFS) WriteFile(ctx context.Context, filePath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	filePath = cleanPath(filePath)
	if m.dirs[filePath] {
		return &fs.PathError{Op: "write", Path: filePath, Err: syscall.EISDIR}
	}

	dir := path.Dir(filePath)
	if !m.dirs[dir] {
		return &fs.PathError{Op: "write", Path: filePath, Err: fs.ErrNotExist}
	}

	content := make([]byte, len(data))
	copy(content, data)
	m.files[filePath] = &memFile{content: content, modTime: time.Now()}
	return nil
}

// ListDir lists a directory, optionally recursively.
func (m *MemFS) ListDir(ctx context.Context, dirPath string, recursive bool) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	dirPath = cleanPath(dirPath)
	if !m.dirs[dirPath] {
		if _, ok := m.files[dirPath]; ok {
			return nil, &fs.PathError{Op: "readdir", Path: dirPath, Err: syscall.ENOTDIR}
		}
		return nil, &fs.PathError{Op: "readdir", Path: dirPath, Err: fs.ErrNotExist}
	}

	prefix := dirPath
	if prefix != "/" {
		prefix += "/"
	}

	include := func(p string) bool {
		if p == dirPath || !strings.HasPrefix(p, prefix) {
			return false
		}
		return recursive || !strings.Contains(strings.TrimPrefix(p, prefix), "/")
	}

	var entries []Entry
	for p, f := range m.files {
		if include(p) {
			entries = append(entries, NewEntry(p, false, int64(len(f.content)), f.modTime))
		}
	}
	for d := range m.dirs {
		if include(d) {
			entries = append(entries, NewEntry(d, true, 0, time.Time{}))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// Stat returns information about a path.
func (m *MemFS) Stat(ctx context.Context, filePath string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	filePath = cleanPath(filePath)
	if f, ok := m.files[filePath]; ok {
		return NewEntry(filePath, false, int64(len(f.content)), f.modTime), nil
	}
	if m.dirs[filePath] {
		return NewEntry(filePath, true, 0, time.Time{}), nil
	}
	return Entry{}, &fs.PathError{Op: "stat", Path: filePath, Err: fs.ErrNotExist}
}

// AddFile creates a file and all parent directories.
func (m *MemFS) AddFile(filePath, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filePath = cleanPath(filePath)
	m.mkdirAllLocked(path.Dir(filePath))
	m.files[filePath] = &memFile{content: []byte(content), modTime: time.Now()}
}

// AddDir creates a directory and all parents.
func (m *MemFS) AddDir(dirPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAllLocked(cleanPath(dirPath))
}

// Remove removes a file or directory and everything below it.
func (m *MemFS) Remove(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanPath(p)
	prefix := p + "/"
	delete(m.files, p)
	delete(m.dirs, p)
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	m.dirs["/"] = true
}

// Files returns all file paths, sorted.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]string, 0, len(m.files))
	for f := range m.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func (m *MemFS) mkdirAllLocked(dirPath string) {
	for dirPath != "/" && dirPath != "." && !m.dirs[dirPath] {
		m.dirs[dirPath] = true
		dirPath = path.Dir(dirPath)
	}
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
