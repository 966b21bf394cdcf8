package session

import "sync"

// DefaultRecentLimit bounds the recently-opened list.
const DefaultRecentLimit = 10

// RecentList is a bounded most-recently-opened list without duplicates.
type RecentList struct {
	mu    sync.Mutex
	limit int
	paths []string
}

// NewRecentList creates a list holding at most limit paths.
func NewRecentList(limit int) *RecentList {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RecentList{limit: limit}
}

// Add moves path to the front.
func (r *RecentList) Add(path string) {
	if path == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, r.limit)
	out = append(out, path)
	for _, p := range r.paths {
		if p != path && len(out) < r.limit {
			out = append(out, p)
		}
	}
	r.paths = out
}

// Rename replaces from with to, keeping its position.
func (r *RecentList) Rename(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.paths[:0:0]
	for _, p := range r.paths {
		switch p {
		case to:
			continue
		case from:
			out = append(out, to)
		default:
			out = append(out, p)
		}
	}
	r.paths = out
}

// Paths returns the list, most recent first.
func (r *RecentList) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
