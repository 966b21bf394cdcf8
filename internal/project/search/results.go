package search

import "sync"

// ResultList holds the results shown for a quick-open session and the
// selected entry. After Select the session is over and the list ignores
// further changes.
type ResultList struct {
	mu       sync.Mutex
	index    *SessionIndex
	results  []Result
	selected int
	done     bool
}

// NewResultList creates an empty list recording selections into index.
func NewResultList(index *SessionIndex) *ResultList {
	return &ResultList{index: index}
}

// SetResults replaces the list and selects the first entry.
func (l *ResultList) SetResults(results []Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.results = append([]Result(nil), results...)
	l.selected = 0
}

// Results returns a copy of the current results.
func (l *ResultList) Results() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Result(nil), l.results...)
}

// Len returns the number of results.
func (l *ResultList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}

// SelectedIndex returns the selected index, or -1 when the list is empty.
func (l *ResultList) SelectedIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.results) == 0 {
		return -1
	}
	return l.selected
}

// Selected returns the selected result.
func (l *ResultList) Selected() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.results) == 0 {
		return Result{}, false
	}
	return l.results[l.selected], true
}

// Next moves the selection down one entry, stopping at the last.
func (l *ResultList) Next() {
	l.move(1)
}

// Prev moves the selection up one entry, stopping at the first.
func (l *ResultList) Prev() {
	l.move(-1)
}

func (l *ResultList) move(delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done || len(l.results) == 0 {
		return
	}
	l.selected = clamp(l.selected+delta, 0, len(l.results)-1)
}

// Select resolves the selected result, records it in the session index and
// ends the session.
func (l *ResultList) Select() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done || len(l.results) == 0 {
		return Result{}, false
	}
	r := l.results[l.selected]
	l.done = true
	if l.index != nil {
		l.index.RecordOpen(r.Path)
	}
	return r, true
}

// Done reports whether a result has been selected.
func (l *ResultList) Done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
