package shared

import (
	"context"
	"log/slog"
)

// ChangeNotifier is told whenever persisted business data changes, so
// derived caches can be invalidated.
type ChangeNotifier interface {
	Bump(ctx context.Context) error
}

// NotifyChange bumps n and logs failures; cache invalidation never fails a write.
func NotifyChange(ctx context.Context, n ChangeNotifier, logger *slog.Logger) {
	if n == nil {
		return
	}
	if err := n.Bump(ctx); err != nil && logger != nil {
		logger.Warn("invalidate derived cache", slog.Any("error", err))
	}
}
