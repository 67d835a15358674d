package events

import (
	"context"
	"os"
)

type contextKey int

const (
	loggerKey contextKey = iota
	vaultDirKey
)

// FromContext extracts a logger from the context, falling back to the
// process default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// LoggerFromContext extracts a logger from the context, reporting whether
// one was present. Callers holding their own logger use this to prefer a
// request-scoped one without falling through to the process default.
func LoggerFromContext(ctx context.Context) (*Logger, bool) {
	l, ok := ctx.Value(loggerKey).(*Logger)
	return l, ok
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithVaultDir tags the context and its logger with a vault directory.
func WithVaultDir(ctx context.Context, dir string) context.Context {
	logger := FromContext(ctx).WithField("vault_dir", dir)
	ctx = context.WithValue(ctx, vaultDirKey, dir)
	return WithLogger(ctx, logger)
}

// GetVaultDir retrieves the vault directory from the context.
func GetVaultDir(ctx context.Context) string {
	if dir, ok := ctx.Value(vaultDirKey).(string); ok {
		return dir
	}
	return ""
}

var defaultLogger = NewTestLogger(InfoLevel, "text", os.Stderr)

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
