package session

import (
	"context"

	"go.uber.org/zap"
)

// RequestClose closes the tab for path and reports whether it was closed.
//
// A clean tab closes at once. A dirty tab is saved first when auto-save is
// on; otherwise, or if that save fails, an unsaved-changes dialog opens and
// RequestClose blocks until Resolve answers it. Only one dialog is open at a
// time: a request for the path already shown shares that dialog, requests
// for other paths wait their turn. A save resolution that fails re-opens
// the dialog. If ctx ends while waiting the request is cancelled and
// ctx.Err() returned. An unknown path reports true.
func (c *Controller) RequestClose(ctx context.Context, path string) (bool, error) {
	return c.close(ctx, path, ActionClose)
}

// CloseOthers closes every tab except keep, stopping at the first cancelled
// close, and then activates keep.
func (c *Controller) CloseOthers(ctx context.Context, keep string) (bool, error) {
	ok, err := c.closeEach(ctx, keep, ActionCloseOthers)
	if ok {
		c.tabs.SwitchTo(keep)
	}
	return ok, err
}

// CloseAll closes every tab, stopping at the first cancelled close.
func (c *Controller) CloseAll(ctx context.Context) (bool, error) {
	return c.closeEach(ctx, "", ActionCloseAll)
}

// SwitchWorkspace closes every tab and makes dir the current directory.
// Nothing changes past the first cancelled close.
func (c *Controller) SwitchWorkspace(ctx context.Context, dir string) (bool, error) {
	ok, err := c.closeEach(ctx, "", ActionSwitch)
	if !ok {
		return false, err
	}
	c.mu.Lock()
	c.currentDir = dir
	c.mu.Unlock()
	c.logger.Info("switched workspace", zap.String("dir", dir))
	return true, nil
}

// closeEach closes tabs other than keep one at a time, re-reading the tab
// list before each step.
func (c *Controller) closeEach(ctx context.Context, keep string, action CloseAction) (bool, error) {
	tried := make(map[string]struct{})
	for {
		next := ""
		for _, id := range c.tabs.IDs() {
			if _, seen := tried[id]; id != keep && !seen {
				next = id
				break
			}
		}
		if next == "" {
			return true, nil
		}
		tried[next] = struct{}{}

		ok, err := c.close(ctx, next, action)
		if err != nil || !ok {
			return false, err
		}
	}
}

func (c *Controller) close(ctx context.Context, path string, action CloseAction) (bool, error) {
	tab, ok := c.tabs.Get(path)
	if !ok {
		return true, nil
	}
	if !tab.Modified {
		c.remove(path)
		return true, nil
	}

	if c.opts.AutoSave && !tab.Payload.Untitled {
		err := c.saveTab(ctx, path)
		if err == nil {
			c.remove(path)
			return true, nil
		}
		c.logger.Warn("auto-save failed", zap.String("path", path), zap.Error(err))
	}

	for {
		res, err := c.arb.await(ctx, DialogState{
			Path:   path,
			Name:   tab.Title,
			Action: action,
		})
		if err != nil {
			return false, err
		}

		// Another caller may have closed the tab meanwhile.
		tab, ok = c.tabs.Get(path)
		if !ok {
			return true, nil
		}

		switch res {
		case ResolveDiscard:
			c.discard(path)
			return true, nil
		case ResolveSave:
			if !tab.Modified {
				c.remove(path)
				return true, nil
			}
			if err := c.saveTab(ctx, path); err != nil {
				c.logger.Warn("save before close failed", zap.String("path", path), zap.Error(err))
				continue
			}
			c.remove(path)
			return true, nil
		default:
			return false, nil
		}
	}
}

// discard drops the unsaved edits of path from the cache and closes its tab.
func (c *Controller) discard(path string) {
	c.mu.Lock()
	c.cache.Revert(path)
	c.mu.Unlock()
	c.remove(path)
	c.logger.Debug("discarded", zap.String("path", path))
}

func (c *Controller) remove(path string) {
	if c.tabs.Remove(path) {
		c.updateGauges()
		c.logger.Debug("closed", zap.String("path", path))
	}
}
