// Package session implements the file session controller: the open tabs of
// an editing session, their content, saving, and arbitration of unsaved
// changes when tabs are closed.
//
// Tab identity is the file path. Content lives in a filestore.Cache that is
// written through on every edit; tabs.Registry tracks order, the active tab
// and the modified flag. Operations that suspend (load, save, the unsaved
// changes dialog) re-read the active tab and tab list after resuming.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/sessionkit/internal/metrics"
	"github.com/dshills/sessionkit/internal/project/filestore"
	"github.com/dshills/sessionkit/internal/project/search"
	"github.com/dshills/sessionkit/internal/project/vfs"
	"github.com/dshills/sessionkit/internal/tabs"
)

// DefaultSaveAsRefreshDelay is the delay before the second directory
// invalidation after a save-as.
const DefaultSaveAsRefreshDelay = 500 * time.Millisecond

// Document is the per-tab payload.
type Document struct {
	Content  string
	Untitled bool
	Size     int64
	ModTime  time.Time
}

// Tab is an open document tab.
type Tab = tabs.Tab[Document]

// Node is a file tree entry handed to OpenFromNode.
type Node struct {
	Path    string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// NodeFromEntry converts a storage listing entry.
func NodeFromEntry(e vfs.Entry) Node {
	return Node{
		Path:    e.Path,
		Name:    e.Name,
		IsDir:   e.IsDir,
		Size:    e.Size,
		ModTime: e.ModTime,
	}
}

// Options are the controller policies.
type Options struct {
	// AutoSave saves dirty tabs on close before asking.
	AutoSave bool

	// RecentLimit bounds RecentFiles.
	RecentLimit int

	// SaveHistorySize bounds the saver's record history.
	SaveHistorySize int

	// SaveAsRefreshDelay schedules a second directory invalidation after
	// save-as. Zero disables it.
	SaveAsRefreshDelay time.Duration

	// MaxFileSize refuses larger files on load (0 = unlimited).
	MaxFileSize int64
}

// DefaultOptions returns the default controller policies.
func DefaultOptions() Options {
	return Options{
		RecentLimit:        DefaultRecentLimit,
		SaveHistorySize:    filestore.DefaultHistorySize,
		SaveAsRefreshDelay: DefaultSaveAsRefreshDelay,
		MaxFileSize:        10 * 1024 * 1024,
	}
}

// Hooks are outward notifications. All are optional and are called without
// controller locks held.
type Hooks struct {
	// OnContentChanged is called after every edit.
	OnContentChanged func(path, content string)

	// OnSaveAsRequested is called when an unsaved document is saved.
	OnSaveAsRequested func(path string)

	// OnArbitration is called each time an unsaved-changes dialog opens.
	OnArbitration func(DialogState)
}

// Controller coordinates tabs, content and storage for one session.
//
// Controller is safe for concurrent use.
type Controller struct {
	fs      vfs.VFS
	inv     vfs.Invalidator
	cache   *filestore.Cache
	loader  *filestore.Loader
	saver   *filestore.Saver
	tabs    *tabs.Registry[Document]
	index   *search.SessionIndex
	recent  *RecentList
	arb     *arbiter
	opts    Options
	hooks   Hooks
	logger  *zap.Logger
	metrics *metrics.Metrics

	untitled atomic.Int64

	// mu serializes content updates that touch both the registry and the
	// cache, and guards the fields below.
	mu         sync.Mutex
	currentDir string
	timers     map[*time.Timer]struct{}
	closed     bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithSessionIndex shares index with quick-open.
func WithSessionIndex(index *search.SessionIndex) Option {
	return func(c *Controller) {
		c.index = index
	}
}

// WithInvalidator sets the directory-listing cache invalidated after
// save-as and create. By default fs is used when it implements
// vfs.Invalidator.
func WithInvalidator(inv vfs.Invalidator) Option {
	return func(c *Controller) {
		c.inv = inv
	}
}

// WithHooks sets the outward notifications.
func WithHooks(h Hooks) Option {
	return func(c *Controller) {
		c.hooks = h
	}
}

// New creates a controller over fs.
func New(fs vfs.VFS, opts Options, options ...Option) *Controller {
	def := DefaultOptions()
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = def.RecentLimit
	}
	if opts.SaveHistorySize <= 0 {
		opts.SaveHistorySize = def.SaveHistorySize
	}

	c := &Controller{
		fs:     fs,
		cache:  filestore.NewCache(),
		tabs:   tabs.NewRegistry[Document](),
		recent: NewRecentList(opts.RecentLimit),
		opts:   opts,
		logger: zap.NewNop(),
		timers: make(map[*time.Timer]struct{}),
	}
	if inv, ok := fs.(vfs.Invalidator); ok {
		c.inv = inv
	}
	for _, o := range options {
		o(c)
	}
	if c.index == nil {
		c.index = search.NewSessionIndex()
	}

	c.loader = filestore.NewLoader(fs, c.cache,
		filestore.WithMaxFileSize(opts.MaxFileSize),
		filestore.WithLoaderLogger(c.logger.Named("loader")),
		filestore.WithLoaderMetrics(c.metrics),
	)
	c.saver = filestore.NewSaver(fs,
		filestore.WithHistorySize(opts.SaveHistorySize),
		filestore.WithSaverLogger(c.logger.Named("saver")),
		filestore.WithSaverMetrics(c.metrics),
	)
	c.arb = &arbiter{onOpen: c.dialogOpened}
	return c
}

// Close stops pending save-as refreshes.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}

// ActiveTab returns the active tab.
func (c *Controller) ActiveTab() (Tab, bool) {
	return c.tabs.Active()
}

// Tabs returns the open tabs in display order.
func (c *Controller) Tabs() []Tab {
	return c.tabs.Tabs()
}

// Tab returns the tab for path.
func (c *Controller) Tab(path string) (Tab, bool) {
	return c.tabs.Get(path)
}

// MoveTab reorders tabs; the active tab is unchanged.
func (c *Controller) MoveTab(from, to int) bool {
	return c.tabs.Move(from, to)
}

// IsDirty reports whether path is open with unsaved changes.
func (c *Controller) IsDirty(path string) bool {
	t, ok := c.tabs.Get(path)
	return ok && t.Modified
}

// Content returns the cached content of path.
func (c *Controller) Content(path string) (string, bool) {
	return c.cache.Content(path)
}

// RecentFiles returns recently opened paths, most recent first.
func (c *Controller) RecentFiles() []string {
	return c.recent.Paths()
}

// CurrentDirectory returns the directory last opened.
func (c *Controller) CurrentDirectory() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentDir
}

// SessionIndex returns the index of opened paths.
func (c *Controller) SessionIndex() *search.SessionIndex {
	return c.index
}

// SaveHistory returns recent save records, oldest first.
func (c *Controller) SaveHistory() []filestore.SaveRecord {
	return c.saver.History()
}

// IsSaving reports whether a save of path is in progress.
func (c *Controller) IsSaving(path string) bool {
	return c.saver.IsSaving(path)
}

// Pending returns the dialog awaiting resolution.
func (c *Controller) Pending() (DialogState, bool) {
	return c.arb.pending()
}

// Resolve answers the pending unsaved-changes dialog.
func (c *Controller) Resolve(res Resolution) error {
	state, err := c.arb.resolve(res)
	if err != nil {
		return err
	}
	c.metrics.ObserveArbitration(res.String())
	c.logger.Debug("dialog resolved",
		zap.String("path", state.Path),
		zap.Stringer("action", state.Action),
		zap.Stringer("resolution", res),
	)
	return nil
}

func (c *Controller) dialogOpened(state DialogState) {
	c.logger.Debug("dialog opened",
		zap.String("path", state.Path),
		zap.Stringer("action", state.Action),
	)
	if c.hooks.OnArbitration != nil {
		c.hooks.OnArbitration(state)
	}
}

func (c *Controller) nextUntitledTitle() string {
	return fmt.Sprintf("Untitled-%d", c.untitled.Add(1))
}

func (c *Controller) updateGauges() {
	if c.metrics == nil {
		return
	}
	m := c.Metrics()
	c.metrics.SetTabs(m.OpenTabs, m.DirtyTabs)
}

func (c *Controller) invalidate(dir string) {
	if c.inv == nil {
		return
	}
	c.inv.Invalidate(dir)
	c.logger.Debug("invalidated directory", zap.String("dir", dir))
}

// scheduleRefresh invalidates dir again after the configured delay.
func (c *Controller) scheduleRefresh(dir string) {
	delay := c.opts.SaveAsRefreshDelay
	if delay <= 0 || c.inv == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		c.mu.Lock()
		_, live := c.timers[t]
		delete(c.timers, t)
		c.mu.Unlock()
		if live {
			c.invalidate(dir)
		}
	})
	c.timers[t] = struct{}{}
}
