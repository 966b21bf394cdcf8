package filestore

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/sessionkit/internal/metrics"
	perrors "github.com/dshills/sessionkit/internal/project/errors"
	"github.com/dshills/sessionkit/internal/project/vfs"
)

// DefaultHistorySize is the number of save records retained.
const DefaultHistorySize = 10

// SaveRecord describes one completed write.
type SaveRecord struct {
	Path      string
	Success   bool
	Timestamp time.Time
	Duration  time.Duration
	Hash      uint64
	Err       error
}

// SaveRequest is one entry of a batch save.
type SaveRequest struct {
	Path    string
	Content string
}

// SaveOutcome is the result of one entry of a batch save.
type SaveOutcome struct {
	Path string
	Err  error
}

// Saver writes content to storage.
//
// Writes to the same path never overlap. A save of content identical to a
// save already in flight for the same path joins it instead of writing
// again. Unsaved paths and the empty path are rejected before any I/O.
type Saver struct {
	fs          vfs.VFS
	group       singleflight.Group
	historySize int
	logger      *zap.Logger
	metrics     *metrics.Metrics

	mu      sync.Mutex
	saving  map[string]int
	locks   map[string]*pathLock
	history []SaveRecord
}

type pathLock struct {
	sem  chan struct{}
	refs int
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithHistorySize sets how many save records are retained.
func WithHistorySize(n int) SaverOption {
	return func(s *Saver) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithSaverLogger sets the saver's logger.
func WithSaverLogger(logger *zap.Logger) SaverOption {
	return func(s *Saver) {
		s.logger = logger
	}
}

// WithSaverMetrics sets the saver's metrics.
func WithSaverMetrics(m *metrics.Metrics) SaverOption {
	return func(s *Saver) {
		s.metrics = m
	}
}

// NewSaver creates a saver writing to fs.
func NewSaver(fs vfs.VFS, opts ...SaverOption) *Saver {
	s := &Saver{
		fs:          fs,
		historySize: DefaultHistorySize,
		logger:      zap.NewNop(),
		saving:      make(map[string]int),
		locks:       make(map[string]*pathLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes content to path.
//
// The returned error matches errors.ErrInvalidTarget for the empty path and
// for unsaved paths, and errors.ErrSaveFailed when the write fails. If ctx
// is cancelled while waiting, Save returns early; a write already started
// still runs to completion and is recorded, and IsSaving reports it until
// it finishes.
func (s *Saver) Save(ctx context.Context, path, content string) error {
	if path == "" {
		s.metrics.ObserveSave(metrics.SaveInvalid, 0)
		return perrors.InvalidTarget(path, perrors.ErrEmptyPath)
	}
	if IsUnsaved(path) {
		s.metrics.ObserveSave(metrics.SaveInvalid, 0)
		return perrors.InvalidTarget(path, perrors.ErrUnsavedPath)
	}

	hash := Hash(content)
	key := path + "\x00" + strconv.FormatUint(hash, 16)
	writeCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		s.begin(path)
		defer s.end(path)
		return nil, s.write(writeCtx, path, content, hash)
	})

	select {
	case <-ctx.Done():
		return perrors.SaveFailed(path, ctx.Err())
	case res := <-ch:
		return res.Err
	}
}

// SaveMultiple saves every request concurrently and returns one outcome per
// request, in request order. One failure does not prevent the others.
func (s *Saver) SaveMultiple(ctx context.Context, reqs []SaveRequest) []SaveOutcome {
	return iter.Map(reqs, func(r *SaveRequest) SaveOutcome {
		return SaveOutcome{Path: r.Path, Err: s.Save(ctx, r.Path, r.Content)}
	})
}

// IsSaving reports whether a save for path is in progress.
func (s *Saver) IsSaving(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving[path] > 0
}

// History returns the retained save records, oldest first.
func (s *Saver) History() []SaveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SaveRecord, len(s.history))
	copy(out, s.history)
	return out
}

// LastRecord returns the most recent record for path.
func (s *Saver) LastRecord(path string) (SaveRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Path == path {
			return s.history[i], true
		}
	}
	return SaveRecord{}, false
}

func (s *Saver) write(ctx context.Context, path, content string, hash uint64) error {
	release := s.acquire(path)
	defer release()

	start := time.Now()
	err := s.fs.WriteFile(ctx, path, []byte(content))
	elapsed := time.Since(start)

	s.record(SaveRecord{
		Path:      path,
		Success:   err == nil,
		Timestamp: start,
		Duration:  elapsed,
		Hash:      hash,
		Err:       err,
	})

	if err != nil {
		s.metrics.ObserveSave(metrics.SaveError, elapsed)
		s.logger.Warn("save failed", zap.String("path", path), zap.Error(err))
		return perrors.SaveFailed(path, err)
	}
	s.metrics.ObserveSave(metrics.SaveOK, elapsed)
	s.logger.Debug("saved",
		zap.String("path", path),
		zap.Int("bytes", len(content)),
		zap.Duration("duration", elapsed),
	)
	return nil
}

// acquire blocks until no other write to path is running.
func (s *Saver) acquire(path string) (release func()) {
	s.mu.Lock()
	l, ok := s.locks[path]
	if !ok {
		l = &pathLock{sem: make(chan struct{}, 1)}
		s.locks[path] = l
	}
	l.refs++
	s.mu.Unlock()

	l.sem <- struct{}{}
	return func() {
		<-l.sem
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, path)
		}
		s.mu.Unlock()
	}
}

func (s *Saver) begin(path string) {
	s.mu.Lock()
	s.saving[path]++
	s.mu.Unlock()
}

func (s *Saver) end(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving[path]--
	if s.saving[path] <= 0 {
		delete(s.saving, path)
	}
}

func (s *Saver) record(r SaveRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, r)
	if over := len(s.history) - s.historySize; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}
