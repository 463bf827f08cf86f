package s3connect

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/s3connect/object"
)

// Logger wraps slog.Logger with s3connect-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithObject adds the (redacted) object locator to the logger.
func (l *Logger) WithObject(loc *object.Locator) *Logger {
	return &Logger{
		Logger: l.Logger.With("object", loc),
	}
}

// WithRegion adds a region field to the logger.
func (l *Logger) WithRegion(region string) *Logger {
	return &Logger{
		Logger: l.Logger.With("region", region),
	}
}

// LogCredentialRetrieve logs one pass over the credential chain.
func (l *Logger) LogCredentialRetrieve(ctx context.Context, source string, duration time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "no credentials resolved",
			"duration", duration,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "credentials resolved",
		"source", source,
		"duration", duration,
	)
}

// LogRegionResolved logs the effective region and where it came from.
func (l *Logger) LogRegionResolved(ctx context.Context, region, source string) {
	l.DebugContext(ctx, "region resolved",
		"region", region,
		"source", source,
	)
}

// LogRoleRefresh logs an assume-role attempt.
func (l *Logger) LogRoleRefresh(ctx context.Context, roleARN string, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "assume role failed",
			"role_arn", roleARN,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "role credentials refreshed",
		"role_arn", roleARN,
		"duration", duration,
	)
}

// LogClientBuilt logs the configuration a client was built from.
func (l *Logger) LogClientBuilt(ctx context.Context, cfg ClientConfig, duration time.Duration) {
	l.DebugContext(ctx, "client built",
		"region", cfg.Region,
		"region_source", cfg.RegionSource,
		"endpoint", cfg.Endpoint,
		"path_style", cfg.UsePathStyle,
		"role", cfg.RoleARN(),
		"duration", duration,
	)
}
