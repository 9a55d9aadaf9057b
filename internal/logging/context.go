package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const tapeIDKey ctxKey = iota

// WithTapeID returns a context carrying a library tape identifier.
func WithTapeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tapeIDKey, id)
}

// TapeIDFromContext returns the tape identifier stored by WithTapeID.
func TapeIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(tapeIDKey).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := TapeIDFromContext(ctx); ok {
		return logger.With(slog.String(FieldTapeID, id))
	}
	return logger
}
