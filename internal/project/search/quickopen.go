package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/dshills/sessionkit/internal/metrics"
	"github.com/dshills/sessionkit/internal/project/vfs"
)

// QuickOpen ranks project files against a query.
//
// Search runs one query synchronously. SetQuery debounces a stream of
// queries and delivers each scan's results to the OnResults callback only
// if no newer query has been set in the meantime.
type QuickOpen struct {
	fs      vfs.VFS
	index   *SessionIndex
	opts    Options
	skip    map[string]struct{}
	globs   []glob.Glob
	logger  *zap.Logger
	metrics *metrics.Metrics

	onResults func(Response)
	debouncer *debouncer

	mu      sync.Mutex
	gen     uint64
	pending Request
	closed  bool
}

// Option configures a QuickOpen.
type Option func(*QuickOpen)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(q *QuickOpen) {
		q.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *QuickOpen) {
		q.metrics = m
	}
}

// OnResults sets the consumer of debounced query results.
func OnResults(fn func(Response)) Option {
	return func(q *QuickOpen) {
		q.onResults = fn
	}
}

// NewQuickOpen creates a quick-open searcher over fs. index may be nil.
func NewQuickOpen(fs vfs.VFS, index *SessionIndex, opts Options, options ...Option) (*QuickOpen, error) {
	def := DefaultOptions()
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = def.MaxResults
	}
	if opts.Debounce <= 0 {
		opts.Debounce = def.Debounce
	}
	if index == nil {
		index = NewSessionIndex()
	}

	q := &QuickOpen{
		fs:     fs,
		index:  index,
		opts:   opts,
		skip:   make(map[string]struct{}, len(opts.SkipDirs)),
		logger: zap.NewNop(),
	}
	for _, d := range opts.SkipDirs {
		q.skip[d] = struct{}{}
	}
	for _, p := range opts.SkipGlobs {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err)
		}
		q.globs = append(q.globs, g)
	}
	for _, o := range options {
		o(q)
	}
	q.debouncer = newDebouncer(opts.Debounce, q.runPending)
	return q, nil
}

// Index returns the session index used for ranking.
func (q *QuickOpen) Index() *SessionIndex {
	return q.index
}

// Search ranks files under req.Root against req.Query.
//
// Recent paths are scored first and boosted so they rank above scan
// results. The scan then lists directories level by level up to
// the configured depth, skipping excluded directories. Results are
// de-duplicated by path (first wins), sorted by descending score and capped.
func (q *QuickOpen) Search(ctx context.Context, req Request) ([]Result, error) {
	start := time.Now()

	var results []Result
	seen := make(map[string]struct{})
	add := func(r Result) {
		if _, ok := seen[r.Path]; ok {
			return
		}
		seen[r.Path] = struct{}{}
		results = append(results, r)
	}

	for _, p := range q.recentCandidates(req.Recent) {
		name := vfs.Base(p)
		m := FuzzyScore(req.Query, name)
		if !m.Matched() {
			continue
		}
		add(Result{
			Path:      p,
			Name:      name,
			Score:     m.Score + q.opts.RecentBoost,
			Positions: m.Positions,
			Recent:    true,
		})
	}

	if req.Root != "" {
		err := q.scan(ctx, req.Root, req.Root, 1, func(e vfs.Entry) {
			m := FuzzyScore(req.Query, e.Name)
			if !m.Matched() {
				return
			}
			add(Result{
				Path:      e.Path,
				Name:      e.Name,
				Score:     m.Score + q.index.OpenCount(e.Path)*q.opts.OpenCountWeight,
				Positions: m.Positions,
			})
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > q.opts.MaxResults {
		results = results[:q.opts.MaxResults]
	}

	q.metrics.ObserveSearch(time.Since(start), len(results))
	q.logger.Debug("search",
		zap.String("query", req.Query),
		zap.String("root", req.Root),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// recentCandidates returns the non-empty recent paths without duplicates.
func (q *QuickOpen) recentCandidates(recent []string) []string {
	out := make([]string, 0, len(recent))
	seen := make(map[string]struct{}, len(recent))
	for _, p := range recent {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// scan lists dir and visits its files, descending into subdirectories while
// depth is below the ceiling. Listing failures below the root are skipped.
func (q *QuickOpen) scan(ctx context.Context, root, dir string, depth int, visit func(vfs.Entry)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := q.fs.ListDir(ctx, dir, false)
	if err != nil {
		if dir == root {
			return err
		}
		q.logger.Debug("scan skipped directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	for _, e := range entries {
		if q.skipped(root, e) {
			continue
		}
		if !e.IsDir {
			visit(e)
			continue
		}
		if depth < q.opts.MaxDepth {
			if err := q.scan(ctx, root, e.Path, depth+1, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (q *QuickOpen) skipped(root string, e vfs.Entry) bool {
	if e.IsDir {
		if _, ok := q.skip[e.Name]; ok {
			return true
		}
	}
	if len(q.globs) == 0 {
		return false
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(e.Path, root), "/")
	for _, g := range q.globs {
		if g.Match(e.Name) || g.Match(rel) {
			return true
		}
	}
	return false
}

// SetQuery records req as the current query and schedules a scan after the
// debounce period. Results of a scan are discarded if another query was set
// while it ran.
func (q *QuickOpen) SetQuery(req Request) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.gen++
	q.pending = req
	q.mu.Unlock()

	q.debouncer.trigger()
}

// Flush runs the pending query immediately.
func (q *QuickOpen) Flush() {
	q.debouncer.flush()
}

// Generation returns the number of queries set so far.
func (q *QuickOpen) Generation() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gen
}

// Close stops the debouncer. Scans still running deliver nothing.
func (q *QuickOpen) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.debouncer.stop()
}

func (q *QuickOpen) runPending() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	gen := q.gen
	req := q.pending
	q.mu.Unlock()

	results, err := q.Search(context.Background(), req)

	q.mu.Lock()
	current := !q.closed && q.gen == gen
	q.mu.Unlock()
	if !current {
		q.logger.Debug("discarded stale results", zap.String("query", req.Query))
		return
	}
	if q.onResults != nil {
		q.onResults(Response{Request: req, Results: results, Err: err})
	}
}
