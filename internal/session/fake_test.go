package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/sessionkit/internal/project/vfs"
)

var errDiskFull = errors.New("disk full")

type write struct {
	Path    string
	Content string
}

// recordingFS records writes and invalidations and can fail or hold calls.
type recordingFS struct {
	*vfs.MemFS

	reads atomic.Int32

	mu            sync.Mutex
	writes        []write
	invalidations []string
	failWrite     map[string]error
	writeGate     chan struct{}
	readGate      chan struct{}
	started       chan string
}

func newRecordingFS() *recordingFS {
	return &recordingFS{
		MemFS:     vfs.NewMemFS(),
		failWrite: make(map[string]error),
		started:   make(chan string, 64),
	}
}

func (f *recordingFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f.reads.Add(1)
	f.mu.Lock()
	gate := f.readGate
	f.mu.Unlock()
	if gate != nil {
		f.started <- path
		<-gate
	}
	return f.MemFS.ReadFile(ctx, path)
}

func (f *recordingFS) WriteFile(ctx context.Context, path string, data []byte) error {
	f.mu.Lock()
	gate := f.writeGate
	f.mu.Unlock()
	if gate != nil {
		f.started <- path
		<-gate
	}

	f.mu.Lock()
	f.writes = append(f.writes, write{Path: path, Content: string(data)})
	err := f.failWrite[path]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemFS.WriteFile(ctx, path, data)
}

func (f *recordingFS) Invalidate(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations = append(f.invalidations, path)
}

func (f *recordingFS) InvalidateAll() {
	f.Invalidate("*")
}

func (f *recordingFS) fail(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failWrite, path)
		return
	}
	f.failWrite[path] = err
}

func (f *recordingFS) holdWrites() (release func()) {
	return f.hold(&f.writeGate)
}

func (f *recordingFS) holdReads() (release func()) {
	return f.hold(&f.readGate)
}

func (f *recordingFS) hold(slot *chan struct{}) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	*slot = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			*slot = nil
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *recordingFS) recordedWrites() []write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]write(nil), f.writes...)
}

func (f *recordingFS) recordedInvalidations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.invalidations...)
}

// harness bundles a controller with its fake storage and dialog feed.
type harness struct {
	*Controller
	fs      *recordingFS
	dialogs chan DialogState
	changes chan string
	saveAs  chan string
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		fs:      newRecordingFS(),
		dialogs: make(chan DialogState, 16),
		changes: make(chan string, 64),
		saveAs:  make(chan string, 16),
	}
	h.fs.AddFile("/proj/a.txt", "alpha")
	h.fs.AddFile("/proj/b.txt", "bravo")
	h.fs.AddFile("/proj/c.txt", "charlie")
	h.fs.AddDir("/proj/sub")

	h.Controller = New(h.fs, opts, WithHooks(Hooks{
		OnContentChanged:  func(path, _ string) { h.changes <- path },
		OnSaveAsRequested: func(path string) { h.saveAs <- path },
		OnArbitration:     func(s DialogState) { h.dialogs <- s },
	}))
	t.Cleanup(h.Close)
	return h
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.SaveAsRefreshDelay = 0
	return opts
}

// openDirty opens path and edits it.
func (h *harness) openDirty(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, h.OpenByPath(context.Background(), path))
	require.True(t, h.Edit(content))
}

func (h *harness) waitDialog(t *testing.T) DialogState {
	t.Helper()
	select {
	case d := <-h.dialogs:
		return d
	case <-time.After(time.Second):
		t.Fatal("dialog did not open")
		return DialogState{}
	}
}

func (h *harness) noDialog(t *testing.T) {
	t.Helper()
	select {
	case d := <-h.dialogs:
		t.Fatalf("unexpected dialog for %s", d.Path)
	case <-time.After(30 * time.Millisecond):
	}
}

type closeResult struct {
	ok  bool
	err error
}

func (h *harness) closeAsync(ctx context.Context, path string) <-chan closeResult {
	ch := make(chan closeResult, 1)
	go func() {
		ok, err := h.RequestClose(ctx, path)
		ch <- closeResult{ok, err}
	}()
	return ch
}

func waitResult(t *testing.T, ch <-chan closeResult) closeResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("close did not return")
		return closeResult{}
	}
}
