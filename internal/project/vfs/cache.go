package vfs

import (
	"context"
	"strings"
	"sync"
)

// CachedFS wraps a VFS and caches directory listings until they are
// invalidated. Reads and writes pass straight through; a write does not
// invalidate anything by itself, so callers that create files must call
// Invalidate for the parent directory.
//
// CachedFS is safe for concurrent use.
type CachedFS struct {
	VFS

	mu       sync.RWMutex
	listings map[listingKey][]Entry
	hits     int
	misses   int
}

type listingKey struct {
	path      string
	recursive bool
}

// NewCachedFS creates a listing cache in front of base.
func NewCachedFS(base VFS) *CachedFS {
	return &CachedFS{
		VFS:      base,
		listings: make(map[listingKey][]Entry),
	}
}

var (
	_ VFS         = (*CachedFS)(nil)
	_ Invalidator = (*CachedFS)(nil)
)

// ListDir returns a cached listing when one exists.
func (c *CachedFS) ListDir(ctx context.Context, path string, recursive bool) ([]Entry, error) {
	key := listingKey{path: normalizeKey(path), recursive: recursive}

	c.mu.Lock()
	if entries, ok := c.listings[key]; ok {
		c.hits++
		c.mu.Unlock()
		return cloneEntries(entries), nil
	}
	c.misses++
	c.mu.Unlock()

	entries, err := c.VFS.ListDir(ctx, path, recursive)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.listings[key] = cloneEntries(entries)
	c.mu.Unlock()
	return entries, nil
}

// Invalidate drops the listing of path and every recursive listing of an
// ancestor of path.
func (c *CachedFS) Invalidate(path string) {
	path = normalizeKey(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.listings {
		if key.path == path || (key.recursive && isAncestor(key.path, path)) {
			delete(c.listings, key)
		}
	}
}

// InvalidateAll drops every cached listing.
func (c *CachedFS) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings = make(map[listingKey][]Entry)
}

// Stats returns cache hit and miss counts.
func (c *CachedFS) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func normalizeKey(p string) string {
	p = strings.TrimRight(p, "/\\")
	if p == "" {
		return "/"
	}
	return p
}

func isAncestor(dir, p string) bool {
	if dir == "/" {
		return true
	}
	return strings.HasPrefix(p, dir+"/") || strings.HasPrefix(p, dir+"\\")
}

func cloneEntries(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
