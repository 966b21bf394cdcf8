// Package tabs provides an ordered registry of open tabs with a single
// active tab.
package tabs

import (
	"sync"
	"time"
)

// Tab is one open tab. Payload carries the caller's per-tab data.
type Tab[T any] struct {
	ID           string
	Title        string
	Closeable    bool
	Modified     bool
	Pinned       bool
	Payload      T
	LastAccessed time.Time
}

// Patch mutates a copy of a tab. It must not retain the pointer.
type Patch[T any] func(*Tab[T])

// Registry is an ordered list of tabs with at most one active tab.
// Operations on unknown ids are no-ops.
//
// Registry is safe for concurrent use.
type Registry[T any] struct {
	mu     sync.RWMutex
	tabs   []Tab[T]
	active string
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{now: time.Now}
}

// Add appends tab and makes it active. If a tab with the same id is already
// present it is activated instead and tab is discarded.
func (r *Registry[T]) Add(tab Tab[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexLocked(tab.ID); i >= 0 {
		r.activateLocked(i)
		return
	}
	tab.LastAccessed = r.now()
	r.tabs = append(r.tabs, tab)
	r.active = tab.ID
}

// Remove removes the tab with id. When the active tab is removed the tab now
// at its index becomes active, or the new last tab if it was last.
// It reports whether a tab was removed.
func (r *Registry[T]) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.tabs = append(r.tabs[:i], r.tabs[i+1:]...)

	if r.active != id {
		return true
	}
	if len(r.tabs) == 0 {
		r.active = ""
		return true
	}
	if i >= len(r.tabs) {
		i = len(r.tabs) - 1
	}
	r.activateLocked(i)
	return true
}

// Update applies patch to the tab with id. Order and other tabs are not
// affected. A patch that renames the tab onto an id already present is
// discarded. It reports whether the patch was applied.
func (r *Registry[T]) Update(id string, patch Patch[T]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	next := r.tabs[i]
	patch(&next)

	if next.ID != id {
		if next.ID == "" || r.indexLocked(next.ID) >= 0 {
			return false
		}
		if r.active == id {
			r.active = next.ID
		}
	}
	r.tabs[i] = next
	return true
}

// SwitchTo makes the tab with id active. Tab contents are not changed
// beyond its access time.
func (r *Registry[T]) SwitchTo(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.activateLocked(i)
	return true
}

// Move moves the tab at index from to index to. The active tab is kept by
// identity. Out-of-range indexes are ignored.
func (r *Registry[T]) Move(from, to int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.tabs)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	tab := r.tabs[from]
	r.tabs = append(r.tabs[:from], r.tabs[from+1:]...)
	r.tabs = append(r.tabs[:to], append([]Tab[T]{tab}, r.tabs[to:]...)...)
	return true
}

// Get returns the tab with id.
func (r *Registry[T]) Get(id string) (Tab[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexLocked(id); i >= 0 {
		return r.tabs[i], true
	}
	return Tab[T]{}, false
}

// Active returns the active tab.
func (r *Registry[T]) Active() (Tab[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexLocked(r.active); i >= 0 {
		return r.tabs[i], true
	}
	return Tab[T]{}, false
}

// ActiveID returns the id of the active tab, or "" when there are no tabs.
func (r *Registry[T]) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Tabs returns a copy of the tabs in display order.
func (r *Registry[T]) Tabs() []Tab[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tab[T], len(r.tabs))
	copy(out, r.tabs)
	return out
}

// IDs returns tab ids in display order.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.tabs))
	for i, t := range r.tabs {
		ids[i] = t.ID
	}
	return ids
}

// Len returns the number of tabs.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}

// IndexOf returns the display index of id, or -1.
func (r *Registry[T]) IndexOf(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexLocked(id)
}

func (r *Registry[T]) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range r.tabs {
		if r.tabs[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry[T]) activateLocked(i int) {
	r.tabs[i].LastAccessed = r.now()
	r.active = r.tabs[i].ID
}
