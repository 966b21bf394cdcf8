package session

import (
	"context"

	"go.uber.org/zap"

	perrors "github.com/dshills/sessionkit/internal/project/errors"
	"github.com/dshills/sessionkit/internal/project/filestore"
	"github.com/dshills/sessionkit/internal/project/vfs"
)

// OpenFromNode opens node. A directory only becomes the current directory.
// A file is loaded and shown in its tab, which is created clean if the file
// was not open; an open tab is activated unchanged. On failure the tabs are
// not touched and the error matches errors.ErrLoadFailed.
func (c *Controller) OpenFromNode(ctx context.Context, node Node) error {
	if node.IsDir {
		c.mu.Lock()
		c.currentDir = node.Path
		c.mu.Unlock()
		return nil
	}
	if err := c.open(ctx, node); err != nil {
		return err
	}
	c.index.RecordOpen(node.Path)
	return nil
}

// OpenByPath opens the file at path without reading its metadata first.
// The session index is not updated; callers coming from search have
// already recorded the open.
func (c *Controller) OpenByPath(ctx context.Context, path string) error {
	return c.open(ctx, Node{Path: path, Name: vfs.Base(path)})
}

func (c *Controller) open(ctx context.Context, node Node) error {
	if node.Path == "" {
		return perrors.LoadFailed("", perrors.ErrEmptyPath)
	}
	content, err := c.loader.Load(ctx, node.Path)
	if err != nil {
		c.logger.Warn("open failed", zap.String("path", node.Path), zap.Error(err))
		return err
	}

	name := node.Name
	if name == "" {
		name = vfs.Base(node.Path)
	}
	c.mu.Lock()
	c.tabs.Add(Tab{
		ID:        node.Path,
		Title:     name,
		Closeable: true,
		Payload: Document{
			Content: content,
			Size:    node.Size,
			ModTime: node.ModTime,
		},
	})
	c.mu.Unlock()

	c.recent.Add(node.Path)
	c.updateGauges()
	c.logger.Debug("opened", zap.String("path", node.Path))
	return nil
}

// NewUntitled opens an empty document with no backing file and returns its
// path.
func (c *Controller) NewUntitled() string {
	path := filestore.NewUnsavedPath()

	c.mu.Lock()
	c.cache.Set(path, "")
	c.tabs.Add(Tab{
		ID:        path,
		Title:     c.nextUntitledTitle(),
		Closeable: true,
		Payload:   Document{Untitled: true},
	})
	c.mu.Unlock()

	c.updateGauges()
	return path
}

// CreateNew creates an empty file dir/name and opens it in a clean tab.
// An existing file is not overwritten. Failures match errors.ErrCreateFailed
// and open no tab.
func (c *Controller) CreateNew(ctx context.Context, dir, name string) error {
	if name == "" {
		return perrors.CreateFailed(dir, perrors.ErrEmptyPath)
	}
	path := vfs.Join(dir, name)
	if _, open := c.tabs.Get(path); open {
		return perrors.CreateFailed(path, perrors.ErrAlreadyOpen)
	}
	if _, err := c.fs.Stat(ctx, path); err == nil {
		return perrors.CreateFailed(path, perrors.ErrAlreadyExists)
	}
	if err := c.fs.WriteFile(ctx, path, nil); err != nil {
		c.logger.Warn("create failed", zap.String("path", path), zap.Error(err))
		return perrors.CreateFailed(path, err)
	}

	c.mu.Lock()
	c.cache.MarkPersisted(path, "")
	c.cache.Set(path, "")
	c.tabs.Add(Tab{
		ID:        path,
		Title:     name,
		Closeable: true,
	})
	c.mu.Unlock()

	c.invalidate(dir)
	c.recent.Add(path)
	c.index.RecordOpen(path)
	c.updateGauges()
	c.logger.Info("created", zap.String("path", path))
	return nil
}

// SwitchTo activates the tab for path.
func (c *Controller) SwitchTo(path string) bool {
	if !c.tabs.SwitchTo(path) {
		return false
	}
	c.index.RecordOpen(path)
	return true
}

// Edit replaces the content of the active tab and marks it modified. It
// reports false when there is no active tab.
func (c *Controller) Edit(content string) bool {
	c.mu.Lock()
	path := c.tabs.ActiveID()
	ok := path != "" && c.tabs.Update(path, func(t *Tab) {
		t.Payload.Content = content
		t.Modified = true
	})
	if ok {
		c.cache.Set(path, content)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	c.updateGauges()
	if c.hooks.OnContentChanged != nil {
		c.hooks.OnContentChanged(path, content)
	}
	return true
}
