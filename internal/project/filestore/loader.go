package filestore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/sessionkit/internal/metrics"
	perrors "github.com/dshills/sessionkit/internal/project/errors"
	"github.com/dshills/sessionkit/internal/project/vfs"
)

// Loader reads file content through the cache. Concurrent loads of the same
// uncached path share a single storage read.
type Loader struct {
	fs      vfs.VFS
	cache   *Cache
	group   singleflight.Group
	maxSize int64
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMaxFileSize refuses files larger than size bytes (0 = unlimited).
func WithMaxFileSize(size int64) LoaderOption {
	return func(l *Loader) {
		l.maxSize = size
	}
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithLoaderMetrics sets the loader's metrics.
func WithLoaderMetrics(m *metrics.Metrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = m
	}
}

// NewLoader creates a loader reading from fs and populating cache.
func NewLoader(fs vfs.VFS, cache *Cache, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:      fs,
		cache:   cache,
		maxSize: 10 * 1024 * 1024, // 10MB default
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the content of path. A cached path is returned without I/O.
// On a miss the file is read once, however many callers are waiting, and the
// cache is populated on success. A failed read leaves the cache untouched
// and returns an error matching errors.ErrLoadFailed.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", perrors.LoadFailed(path, perrors.ErrEmptyPath)
	}
	if content, ok := l.cache.Content(path); ok {
		l.metrics.ObserveLoad(metrics.LoadHit)
		return content, nil
	}

	// The shared read must outlive any single waiter's cancellation.
	readCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(path, func() (any, error) {
		return l.read(readCtx, path)
	})

	select {
	case <-ctx.Done():
		return "", perrors.LoadFailed(path, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// IsCached reports whether path is served from the cache.
func (l *Loader) IsCached(path string) bool {
	_, ok := l.cache.Get(path)
	return ok
}

func (l *Loader) read(ctx context.Context, path string) (string, error) {
	// Another flight may have completed between the cache check and now.
	if content, ok := l.cache.Content(path); ok {
		l.metrics.ObserveLoad(metrics.LoadHit)
		return content, nil
	}

	data, err := l.fs.ReadFile(ctx, path)
	if err == nil {
		err = l.check(data)
	}
	if err != nil {
		l.metrics.ObserveLoad(metrics.LoadError)
		l.logger.Warn("load failed", zap.String("path", path), zap.Error(err))
		return "", perrors.LoadFailed(path, err)
	}

	// An edit that landed while the read was in flight wins over disk.
	l.cache.MarkPersisted(path, string(data))
	entry := l.cache.SetIfAbsent(path, string(data))
	l.metrics.ObserveLoad(metrics.LoadRead)
	l.logger.Debug("loaded", zap.String("path", path), zap.Int("bytes", len(data)))
	return entry.Content, nil
}

func (l *Loader) check(data []byte) error {
	if l.maxSize > 0 && int64(len(data)) > l.maxSize {
		return fmt.Errorf("%w: %d bytes", perrors.ErrFileTooLarge, len(data))
	}
	if vfs.IsBinary(data) {
		return perrors.ErrBinaryFile
	}
	return nil
}
