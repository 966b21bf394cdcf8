package filestore

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sessionkit/internal/metrics"
	perrors "github.com/dshills/sessionkit/internal/project/errors"
	"github.com/dshills/sessionkit/internal/project/vfs"
)

func TestLoader_LoadPopulatesCache(t *testing.T) {
	mem := vfs.NewMemFS()
	mem.AddFile("/proj/main.go", "package main")
	fs := newGatedFS(mem)
	cache := NewCache()
	l := NewLoader(fs, cache)

	content, err := l.Load(context.Background(), "/proj/main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main", content)
	assert.True(t, l.IsCached("/proj/main.go"))
	persisted, ok := cache.Persisted("/proj/main.go")
	require.True(t, ok)
	assert.Equal(t, "package main", persisted)

	// Second load is served from the cache.
	content, err = l.Load(context.Background(), "/proj/main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main", content)
	assert.EqualValues(t, 1, fs.reads.Load())
}

func TestLoader_CacheWinsOverDisk(t *testing.T) {
	mem := vfs.NewMemFS()
	mem.AddFile("/a.txt", "disk")
	cache := NewCache()
	cache.Set("/a.txt", "edited")

	content, err := NewLoader(mem, cache).Load(context.Background(), "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "edited", content)
}

func TestLoader_ConcurrentLoadsShareOneRead(t *testing.T) {
	mem := vfs.NewMemFS()
	mem.AddFile("/big.txt", "shared")
	fs := newGatedFS(mem)
	release := fs.hold()
	l := NewLoader(fs, NewCache())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Load(context.Background(), "/big.txt")
		}(i)
	}

	<-fs.started
	// Give the remaining callers time to join the in-flight read.
	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
	assert.EqualValues(t, 1, fs.reads.Load())
}

func TestLoader_Failures(t *testing.T) {
	mem := vfs.NewMemFS()
	mem.AddDir("/proj")
	mem.AddFile("/proj/blob.bin", "\x00\x01\x02")
	mem.AddFile("/proj/large.txt", strings.Repeat("x", 64))

	cache := NewCache()
	l := NewLoader(mem, cache, WithMaxFileSize(32))
	ctx := context.Background()

	tests := []struct {
		name  string
		path  string
		cause error
	}{
		{"missing", "/proj/missing.txt", perrors.ErrNotFound},
		{"binary", "/proj/blob.bin", perrors.ErrBinaryFile},
		{"too large", "/proj/large.txt", perrors.ErrFileTooLarge},
		{"empty path", "", perrors.ErrEmptyPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(ctx, tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, perrors.ErrLoadFailed)
			assert.ErrorIs(t, err, tt.cause)
			assert.False(t, l.IsCached(tt.path))
		})
	}
	assert.Equal(t, 0, cache.Len())
}

func TestLoader_RetryAfterFailure(t *testing.T) {
	mem := vfs.NewMemFS()
	l := NewLoader(mem, NewCache())
	ctx := context.Background()

	_, err := l.Load(ctx, "/late.txt")
	require.Error(t, err)

	mem.AddFile("/late.txt", "now here")
	content, err := l.Load(ctx, "/late.txt")
	require.NoError(t, err)
	assert.Equal(t, "now here", content)
}

func TestLoader_CancelledWaiter(t *testing.T) {
	mem := vfs.NewMemFS()
	mem.AddFile("/slow.txt", "eventually")
	fs := newGatedFS(mem)
	release := fs.hold()
	defer release()
	l := NewLoader(fs, NewCache())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, "/slow.txt")
		errCh <- err
	}()

	<-fs.started
	cancel()
	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)

	// The shared read still completes and fills the cache.
	release()
	assert.Eventually(t, func() bool { return l.IsCached("/slow.txt") }, time.Second, 5*time.Millisecond)
}

func TestLoader_Metrics(t *testing.T) {
	mem := vfs.NewMemFS()
	mem.AddFile("/a.txt", "a")
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	l := NewLoader(mem, NewCache(), WithLoaderMetrics(m))
	ctx := context.Background()

	_, err := l.Load(ctx, "/a.txt")
	require.NoError(t, err)
	_, err = l.Load(ctx, "/a.txt")
	require.NoError(t, err)
	_, err = l.Load(ctx, "/missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, counterValue(t, reg, "sessionkit_loads_total", metrics.LoadRead))
	assert.Equal(t, 1.0, counterValue(t, reg, "sessionkit_loads_total", metrics.LoadHit))
	assert.Equal(t, 1.0, counterValue(t, reg, "sessionkit_loads_total", metrics.LoadError))
}
