package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/sessionkit/internal/project/filestore"
)

// SchemaVersion is the version of Snapshot written by this package.
const SchemaVersion = 1

// Metrics is derived session state.
type Metrics struct {
	OpenTabs     int
	DirtyTabs    int
	UntitledTabs int
	CachedFiles  int
	SavesOK      int
	SavesFailed  int
}

// Snapshot is the restorable state of a session. Documents with no backing
// file are not included.
type Snapshot struct {
	OpenPaths     []string
	ActivePath    string
	Metrics       Metrics
	Timestamp     time.Time
	SchemaVersion int
}

// Metrics computes the session metrics from the current tabs, cache and
// save history.
func (c *Controller) Metrics() Metrics {
	var m Metrics
	for _, t := range c.tabs.Tabs() {
		m.OpenTabs++
		if t.Modified {
			m.DirtyTabs++
		}
		if t.Payload.Untitled {
			m.UntitledTabs++
		}
	}
	m.CachedFiles = c.cache.Len()
	for _, r := range c.saver.History() {
		if r.Success {
			m.SavesOK++
		} else {
			m.SavesFailed++
		}
	}
	return m
}

// Snapshot captures the open file tabs and the active one.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Metrics:       c.Metrics(),
		Timestamp:     time.Now(),
		SchemaVersion: SchemaVersion,
	}
	for _, t := range c.tabs.Tabs() {
		if t.Payload.Untitled || filestore.IsUnsaved(t.ID) {
			continue
		}
		s.OpenPaths = append(s.OpenPaths, t.ID)
	}
	if active := c.tabs.ActiveID(); !filestore.IsUnsaved(active) {
		s.ActivePath = active
	}
	return s
}

// Restore reopens the files of snap and activates its active path. Files
// that fail to load are skipped; their errors are joined in the result.
func (c *Controller) Restore(ctx context.Context, snap Snapshot) error {
	if snap.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snap.SchemaVersion)
	}
	var errs []error
	for _, p := range snap.OpenPaths {
		if err := c.OpenByPath(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	if snap.ActivePath != "" {
		c.tabs.SwitchTo(snap.ActivePath)
	}
	return errors.Join(errs...)
}
