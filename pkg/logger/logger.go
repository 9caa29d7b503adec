package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	adminEmailKey    contextKey = "admin_email"
	loggerKey        contextKey = "logger"
)

// Output formats understood by New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New creates a new structured logger with the given service name, level and
// output format.
func New(serviceName, level, format string) *slog.Logger {
	return NewWithWriter(serviceName, level, format, os.Stdout)
}

// NewWithWriter creates a new structured logger writing to the given writer.
// FormatText selects a colourised console handler; anything else is JSON.
func NewWithWriter(serviceName, level, format string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			AddSource:  lvl == slog.LevelDebug,
			TimeFormat: time.DateTime,
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: lvl == slog.LevelDebug,
		})
	}

	return slog.New(handler).With(
		slog.String("service", serviceName),
	)
}

// ParseLevel maps a level name to a slog level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCorrelationID returns a new context with the correlation ID set.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation ID from the context.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithAdminEmail returns a new context carrying the caller-supplied admin email.
// The value is unverified and only used to enrich log lines.
func WithAdminEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, adminEmailKey, email)
}

// AdminEmailFromContext extracts the admin email stored by WithAdminEmail.
func AdminEmailFromContext(ctx context.Context) string {
	if email, ok := ctx.Value(adminEmailKey).(string); ok {
		return email
	}
	return ""
}

// NewContext returns a new context with the given logger stored in it.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request-scoped logger stored in context.
// Returns slog.Default() if no logger is stored.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithContext returns a logger with context-derived fields (correlation_id, admin_email, trace_id, span_id).
func WithContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if id := CorrelationIDFromContext(ctx); id != "" {
		l = l.With(slog.String("correlation_id", id))
	}

	if email := AdminEmailFromContext(ctx); email != "" {
		l = l.With(slog.String("admin_email", email))
	}

	if spanCtx := trace.SpanFromContext(ctx).SpanContext(); spanCtx.IsValid() {
		l = l.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return l
}
