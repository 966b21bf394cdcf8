// Package filestore holds file content for the editing session.
//
// Cache is the single source of truth for what the user currently sees for a
// path. Loader fills it from storage with at most one read in flight per
// path, and Saver persists content with at most one write in flight per path
// while keeping a bounded history of outcomes.
package filestore

import (
	"sort"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// Entry is the cached content of one path.
type Entry struct {
	Path      string
	Content   string
	Hash      uint64
	Timestamp time.Time
}

// Cache maps paths to their last-known content. Entries are never evicted;
// a cache miss must never silently revert content the user has seen. The
// content last read from or written to storage is kept per path so that
// Revert can restore it explicitly.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	persisted map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries:   make(map[string]Entry),
		persisted: make(map[string]string),
	}
}

// Hash returns the content fingerprint stored with cache entries.
func Hash(content string) uint64 {
	return xxh3.HashString(content)
}

// Get returns the entry for path. The boolean distinguishes an uncached
// path from a cached empty file.
func (c *Cache) Get(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

// Content returns the cached content for path.
func (c *Cache) Content(path string) (string, bool) {
	e, ok := c.Get(path)
	return e.Content, ok
}

// Set stores content for path. Setting the content already cached leaves
// the entry untouched.
func (c *Cache) Set(path, content string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(path, content)
}

// SetIfAbsent stores content only when path is uncached and returns the
// entry now cached for path.
func (c *Cache) SetIfAbsent(path, content string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		return e
	}
	return c.setLocked(path, content)
}

// MarkPersisted records content as what storage holds for path.
func (c *Cache) MarkPersisted(path, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persisted[path] = content
}

// Persisted returns the content last read from or written to storage for
// path.
func (c *Cache) Persisted(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.persisted[path]
	return content, ok
}

// Revert replaces the cached content of path with its persisted content.
// It reports false, leaving the cache untouched, when path was never
// persisted.
func (c *Cache) Revert(path string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.persisted[path]
	if !ok {
		return Entry{}, false
	}
	return c.setLocked(path, content), true
}

func (c *Cache) setLocked(path, content string) Entry {
	hash := Hash(content)
	if e, ok := c.entries[path]; ok && e.Hash == hash && e.Content == content {
		return e
	}
	e := Entry{
		Path:      path,
		Content:   content,
		Hash:      hash,
		Timestamp: time.Now(),
	}
	c.entries[path] = e
	return e
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Paths returns all cached paths, sorted.
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
