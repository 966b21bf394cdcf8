package search

import (
	"sync"
	"time"
)

// debouncer runs fn once the caller has stopped triggering for wait.
// Each trigger bumps a generation; a timer firing for an older generation
// does nothing.
type debouncer struct {
	wait time.Duration
	fn   func()

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
	armed bool
}

func newDebouncer(wait time.Duration, fn func()) *debouncer {
	return &debouncer{wait: wait, fn: fn}
}

// trigger restarts the quiet period.
func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	d.armed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

func (d *debouncer) fire(gen uint64) {
	d.mu.Lock()
	run := d.armed && d.gen == gen
	if run {
		d.armed = false
		d.timer = nil
	}
	d.mu.Unlock()

	if run {
		d.fn()
	}
}

// flush runs an armed callback on the calling goroutine.
func (d *debouncer) flush() {
	d.mu.Lock()
	run := d.disarmLocked()
	d.mu.Unlock()

	if run {
		d.fn()
	}
}

// stop drops an armed callback.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.disarmLocked()
	d.mu.Unlock()
}

func (d *debouncer) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

func (d *debouncer) disarmLocked() bool {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	was := d.armed
	d.armed = false
	return was
}
