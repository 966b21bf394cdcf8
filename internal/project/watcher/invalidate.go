package watcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/dshills/sessionkit/internal/project/vfs"
)

// FeedInvalidator drops the cached listing of the directory touched by
// every change that adds, removes or renames an entry. It returns when ctx
// is done or the change channel is closed.
func FeedInvalidator(ctx context.Context, src Source, inv vfs.Invalidator, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	changes := src.Changes()
	errs := src.Errors()
	for {
		select {
		case <-ctx.Done():
			return

		case ch, ok := <-changes:
			if !ok {
				return
			}
			if !ch.Kind.AffectsListing() {
				continue
			}
			inv.Invalidate(ch.Dir())
			logger.Debug("listing invalidated",
				zap.String("dir", ch.Dir()),
				zap.Stringer("kind", ch.Kind))

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
