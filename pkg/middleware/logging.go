package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/logger"
)

// CorrelationIDHeader carries the request id in both directions.
const CorrelationIDHeader = "X-Correlation-ID"

const maxCorrelationIDLen = 128

// correlationID returns the caller's id, or a fresh UUID when it is missing
// or implausibly long.
func correlationID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(CorrelationIDHeader))
	if id == "" || len(id) > maxCorrelationIDLen {
		return uuid.NewString()
	}
	return id
}

func accessLogLevel(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// RequestLogging assigns each request a correlation id, echoes it in the
// response header, and writes one access-log line when the handler returns.
// Server errors log at error level and client errors at warn.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := correlationID(r)
			ctx := logger.WithCorrelationID(r.Context(), id)
			w.Header().Set(CorrelationIDHeader, id)

			rw := &recordingWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			l.Log(ctx, accessLogLevel(rw.statusCode), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", rw.bytes),
				slog.String("client_ip", ClientIP(r)),
				slog.String("user_agent", r.UserAgent()),
				slog.String("correlation_id", id),
			)
		})
	}
}
