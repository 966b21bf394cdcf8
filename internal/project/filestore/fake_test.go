package filestore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dshills/sessionkit/internal/project/vfs"
)

var errDiskFull = errors.New("disk full")

// gatedFS counts storage calls and can hold them until released.
type gatedFS struct {
	vfs.VFS

	reads  atomic.Int32
	writes atomic.Int32

	mu        sync.Mutex
	gate      chan struct{}
	started   chan string
	failWrite map[string]error
	active    int
	maxActive int
}

func newGatedFS(base vfs.VFS) *gatedFS {
	return &gatedFS{
		VFS:       base,
		started:   make(chan string, 64),
		failWrite: make(map[string]error),
	}
}

// hold makes subsequent calls block until the returned func is called.
func (g *gatedFS) hold() (release func()) {
	ch := make(chan struct{})
	g.mu.Lock()
	g.gate = ch
	g.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (g *gatedFS) wait() {
	g.mu.Lock()
	ch := g.gate
	g.active++
	if g.active > g.maxActive {
		g.maxActive = g.active
	}
	g.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (g *gatedFS) done() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
}

func (g *gatedFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	g.reads.Add(1)
	g.started <- path
	g.wait()
	defer g.done()
	return g.VFS.ReadFile(ctx, path)
}

func (g *gatedFS) WriteFile(ctx context.Context, path string, data []byte) error {
	g.writes.Add(1)
	g.started <- path
	g.wait()
	defer g.done()

	g.mu.Lock()
	err := g.failWrite[path]
	g.mu.Unlock()
	if err != nil {
		return err
	}
	return g.VFS.WriteFile(ctx, path, data)
}

func (g *gatedFS) failWrites(path string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWrite[path] = err
}

func (g *gatedFS) peakConcurrency() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxActive
}

// counterValue returns the value of the single-label counter name{result=label}.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
