package id

import "context"

type contextKey string

const (
	logKey  contextKey = "quill_log_id"
	syncKey contextKey = "quill_sync_id"
)

// WithLogID stores the provided log identifier on the context.
func WithLogID(ctx context.Context, logID string) context.Context {
	if logID == "" {
		return ctx
	}
	return context.WithValue(ctx, logKey, logID)
}

// LogIDFromContext extracts the log identifier from context.
func LogIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if logID, ok := ctx.Value(logKey).(string); ok {
		return logID
	}
	return ""
}

// WithSyncID stores the identifier of the running synchronization.
func WithSyncID(ctx context.Context, syncID string) context.Context {
	if syncID == "" {
		return ctx
	}
	return context.WithValue(ctx, syncKey, syncID)
}

// SyncIDFromContext extracts the synchronization identifier from context.
func SyncIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if syncID, ok := ctx.Value(syncKey).(string); ok {
		return syncID
	}
	return ""
}

// EnsureLogID returns ctx unchanged when it already carries a log id,
// otherwise a child context tagged with a fresh one.
func EnsureLogID(ctx context.Context) (context.Context, string) {
	if existing := LogIDFromContext(ctx); existing != "" {
		return ctx, existing
	}
	logID := NewLogID()
	return WithLogID(ctx, logID), logID
}
