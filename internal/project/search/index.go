package search

import (
	"sort"
	"sync"
	"time"
)

// SessionIndex counts how often each path has been opened during the
// session. It is shared by reference between the session controller and
// quick-open; there is no process-wide instance.
//
// It is safe for concurrent use.
type SessionIndex struct {
	mu      sync.RWMutex
	entries map[string]*IndexEntry
	now     func() time.Time
}

// IndexEntry is the recorded history of one path.
type IndexEntry struct {
	Path       string
	Count      int
	LastOpened time.Time
}

// NewSessionIndex creates an empty index.
func NewSessionIndex() *SessionIndex {
	return &SessionIndex{
		entries: make(map[string]*IndexEntry),
		now:     time.Now,
	}
}

// RecordOpen records that path was opened.
func (x *SessionIndex) RecordOpen(path string) {
	if path == "" {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.entries[path]
	if !ok {
		e = &IndexEntry{Path: path}
		x.entries[path] = e
	}
	e.Count++
	e.LastOpened = x.now()
}

// OpenCount returns how often path has been opened.
func (x *SessionIndex) OpenCount(path string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if e, ok := x.entries[path]; ok {
		return e.Count
	}
	return 0
}

// Rename moves the history of from onto to, merging counts.
func (x *SessionIndex) Rename(from, to string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.entries[from]
	if !ok || from == to {
		return
	}
	delete(x.entries, from)
	if dst, ok := x.entries[to]; ok {
		dst.Count += e.Count
		if e.LastOpened.After(dst.LastOpened) {
			dst.LastOpened = e.LastOpened
		}
		return
	}
	e.Path = to
	x.entries[to] = e
}

// Paths returns every recorded path, most recently opened first.
func (x *SessionIndex) Paths() []string {
	entries := x.Export()
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}

// Len returns the number of recorded paths.
func (x *SessionIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Export returns a copy of the index, most recently opened first.
func (x *SessionIndex) Export() []IndexEntry {
	x.mu.RLock()
	out := make([]IndexEntry, 0, len(x.entries))
	for _, e := range x.entries {
		out = append(out, *e)
	}
	x.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastOpened.Equal(out[j].LastOpened) {
			return out[i].LastOpened.After(out[j].LastOpened)
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Load replaces the index contents with entries.
func (x *SessionIndex) Load(entries []IndexEntry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.entries = make(map[string]*IndexEntry, len(entries))
	for _, e := range entries {
		if e.Path == "" || e.Count <= 0 {
			continue
		}
		e := e
		x.entries[e.Path] = &e
	}
}
