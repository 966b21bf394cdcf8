package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher watches directory trees with fsnotify down to a fixed depth.
// Directories created inside a watched tree are picked up while they are
// within the depth limit.
type DirWatcher struct {
	fsw   *fsnotify.Watcher
	skip  func(name string) bool
	depth int

	mu     sync.Mutex
	levels map[string]int // watched dir -> levels still watched below it, counting itself
	closed bool

	changes chan Change
	errs    chan error
	dropped atomic.Int64

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a DirWatcher.
type Option func(*DirWatcher)

// WithSkip ignores entries whose base name satisfies skip. Skipped
// directories are not descended into.
func WithSkip(skip func(name string) bool) Option {
	return func(w *DirWatcher) { w.skip = skip }
}

// WithDepth watches n directory levels, counting the root as level 1.
// The default is 1.
func WithDepth(n int) Option {
	return func(w *DirWatcher) {
		if n > 0 {
			w.depth = n
		}
	}
}

// WithBuffer sets the change channel capacity. Changes arriving while the
// channel is full are counted by Dropped and discarded.
func WithBuffer(n int) Option {
	return func(w *DirWatcher) {
		if n > 0 {
			w.changes = make(chan Change, n)
		}
	}
}

// NewDirWatcher starts an fsnotify watcher with no roots.
func NewDirWatcher(opts ...Option) (*DirWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &DirWatcher{
		fsw:     fsw,
		depth:   1,
		levels:  make(map[string]int),
		changes: make(chan Change, 128),
		errs:    make(chan error, 8),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

var _ Source = (*DirWatcher)(nil)

// AddTree watches root and its subdirectories down to the configured depth.
func (w *DirWatcher) AddTree(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: %w", root, ErrNotDir)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.addLocked(root, w.depth)
}

// RemoveTree stops watching root and every directory watched beneath it.
func (w *DirWatcher) RemoveTree(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, ok := w.levels[root]; !ok {
		return fmt.Errorf("unwatch %s: %w", root, ErrNotWatched)
	}
	w.forgetLocked(root, true)
	return nil
}

// Watched returns the watched directories, sorted.
func (w *DirWatcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := make([]string, 0, len(w.levels))
	for d := range w.levels {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Changes returns the change channel.
func (w *DirWatcher) Changes() <-chan Change { return w.changes }

// Errors returns the error channel.
func (w *DirWatcher) Errors() <-chan error { return w.errs }

// Dropped returns the number of changes discarded on a full channel.
func (w *DirWatcher) Dropped() int64 { return w.dropped.Load() }

// Close stops watching and closes both channels. It is idempotent.
func (w *DirWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.changes)
	close(w.errs)
	return w.fsw.Close()
}

// addLocked watches dir and, while levels remain, its subdirectories.
func (w *DirWatcher) addLocked(dir string, levels int) error {
	if have, ok := w.levels[dir]; ok && have >= levels {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.levels[dir] = levels
	if levels <= 1 {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// the directory itself is watched; its children are best effort
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() || w.skipped(e.Name()) {
			continue
		}
		_ = w.addLocked(filepath.Join(dir, e.Name()), levels-1)
	}
	return nil
}

// forgetLocked drops dir and everything watched below it. fsnotify already
// dropped watches on directories that were removed, so Remove is only called
// when unwatch is set.
func (w *DirWatcher) forgetLocked(dir string, unwatch bool) {
	prefix := dir + string(filepath.Separator)
	for d := range w.levels {
		if d == dir || strings.HasPrefix(d, prefix) {
			if unwatch {
				_ = w.fsw.Remove(d)
			}
			delete(w.levels, d)
		}
	}
}

func (w *DirWatcher) skipped(name string) bool {
	return w.skip != nil && w.skip(name)
}

func (w *DirWatcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *DirWatcher) handle(ev fsnotify.Event) {
	kind, ok := kindOf(ev.Op)
	if !ok || w.skipped(filepath.Base(ev.Name)) {
		return
	}

	w.mu.Lock()
	switch kind {
	case Added:
		parent, watched := w.levels[filepath.Dir(ev.Name)]
		if watched && parent > 1 {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				_ = w.addLocked(ev.Name, parent-1)
			}
		}
	case Removed, Renamed:
		w.forgetLocked(ev.Name, false)
	}
	w.mu.Unlock()

	select {
	case w.changes <- Change{Path: ev.Name, Kind: kind, At: time.Now()}:
	default:
		w.dropped.Add(1)
	}
}

// kindOf maps an fsnotify op to a Kind. Chmod-only events are ignored.
// Structural ops win over writes when several are set.
func kindOf(op fsnotify.Op) (Kind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Added, true
	case op.Has(fsnotify.Remove):
		return Removed, true
	case op.Has(fsnotify.Rename):
		return Renamed, true
	case op.Has(fsnotify.Write):
		return Modified, true
	}
	return 0, false
}
