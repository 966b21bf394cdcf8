package session

import (
	"context"

	"go.uber.org/zap"

	perrors "github.com/dshills/sessionkit/internal/project/errors"
	"github.com/dshills/sessionkit/internal/project/filestore"
	"github.com/dshills/sessionkit/internal/project/vfs"
)

// Save writes the active tab to its file.
//
// The active tab is resolved when Save runs. A document with no backing
// file is not written: OnSaveAsRequested is called and the returned error
// matches errors.ErrSaveAsRequired. After a successful write the tab is
// marked clean unless it was edited while the write was in flight. A failed
// save leaves the tab modified.
func (c *Controller) Save(ctx context.Context) error {
	path := c.tabs.ActiveID()
	if path == "" {
		return perrors.NewPathError("save", "", perrors.ErrNoActiveTab)
	}
	return c.saveTab(ctx, path)
}

// SaveAll saves every modified tab with a backing file. Entries succeed or
// fail independently; the returned outcomes are in tab order.
func (c *Controller) SaveAll(ctx context.Context) []filestore.SaveOutcome {
	var reqs []filestore.SaveRequest
	for _, t := range c.tabs.Tabs() {
		if t.Modified && !t.Payload.Untitled {
			reqs = append(reqs, filestore.SaveRequest{Path: t.ID, Content: t.Payload.Content})
		}
	}
	outcomes := c.saver.SaveMultiple(ctx, reqs)
	for i, o := range outcomes {
		if o.Err == nil {
			c.markSaved(o.Path, reqs[i].Content)
		}
	}
	c.updateGauges()
	return outcomes
}

func (c *Controller) saveTab(ctx context.Context, path string) error {
	tab, ok := c.tabs.Get(path)
	if !ok {
		return perrors.NewPathError("save", path, perrors.ErrTabNotOpen)
	}
	if tab.Payload.Untitled || filestore.IsUnsaved(path) {
		if c.hooks.OnSaveAsRequested != nil {
			c.hooks.OnSaveAsRequested(path)
		}
		return perrors.NewPathError("save", path, perrors.ErrSaveAsRequired)
	}

	content := tab.Payload.Content
	if err := c.saver.Save(ctx, path, content); err != nil {
		return err
	}
	c.markSaved(path, content)
	c.updateGauges()
	return nil
}

// markSaved records content as persisted for path and clears the modified
// flag if the tab still holds it.
func (c *Controller) markSaved(path, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.MarkPersisted(path, content)

	clean := false
	c.tabs.Update(path, func(t *Tab) {
		if t.Payload.Content == content {
			t.Modified = false
			clean = true
		}
	})
	if clean {
		c.cache.Set(path, content)
	}
}

// SaveAs writes the active tab to dir/name and re-keys the tab to that
// path. The directory listing cache for dir is invalidated immediately and
// again after the configured refresh delay. Saving onto a path open in
// another tab fails with errors.ErrAlreadyOpen.
func (c *Controller) SaveAs(ctx context.Context, dir, name string) error {
	if name == "" {
		return perrors.InvalidTarget(dir, perrors.ErrEmptyPath)
	}
	tab, ok := c.tabs.Active()
	if !ok {
		return perrors.NewPathError("save-as", "", perrors.ErrNoActiveTab)
	}
	from := tab.ID
	target := vfs.Join(dir, name)
	if target != from {
		if _, open := c.tabs.Get(target); open {
			return perrors.NewPathError("save-as", target, perrors.ErrAlreadyOpen)
		}
	}

	content := tab.Payload.Content
	if err := c.saver.Save(ctx, target, content); err != nil {
		return err
	}
	c.invalidate(dir)

	c.mu.Lock()
	c.cache.MarkPersisted(target, content)
	var current string
	renamed := c.tabs.Update(from, func(t *Tab) {
		t.ID = target
		t.Title = name
		t.Payload.Untitled = false
		if t.Payload.Content == content {
			t.Modified = false
		}
		current = t.Payload.Content
	})
	if renamed {
		c.cache.Set(target, current)
	}
	c.mu.Unlock()

	if !renamed {
		// The tab closed or its target opened while writing; the file
		// is on disk either way.
		c.logger.Warn("save-as target not re-keyed", zap.String("from", from), zap.String("to", target))
	} else if target != from {
		c.recent.Rename(from, target)
		c.index.Rename(from, target)
	}
	c.recent.Add(target)
	c.scheduleRefresh(dir)
	c.updateGauges()
	c.logger.Info("saved as", zap.String("from", from), zap.String("to", target))
	return nil
}
