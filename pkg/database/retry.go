package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	startupAttempts     = 3
	retryJitterFraction = 0.25
)

// retryBaseWait is the first backoff step; later steps double it.
var retryBaseWait = time.Second

// retryBackoff returns the wait before retry number attempt (0-indexed):
// 1s, 2s, 4s with ±25% jitter.
func retryBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := retryBaseWait << attempt
	jitter := time.Duration(float64(base) * retryJitterFraction * (2*rand.Float64() - 1)) // #nosec G404 -- retry jitter
	return base + jitter
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"connect: connection",
	"dial tcp",
	"EOF",
	"connection timed out",
	"server closed the connection unexpectedly",
	"could not connect",
	"server selection error",
}

// isConnectionError reports whether err looks like a transient network
// failure rather than a statement or constraint error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func always(error) bool { return true }

// retryStartup runs op up to startupAttempts times, sleeping with backoff
// between attempts while retryable(err) holds. what names the operation in
// log lines and the returned error.
func retryStartup(ctx context.Context, what string, logger *slog.Logger, retryable func(error) bool, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < startupAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == startupAttempts-1 {
			break
		}

		wait := retryBackoff(attempt)
		if logger != nil {
			logger.Warn(what+" failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", startupAttempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: context canceled during retry: %w", what, ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, startupAttempts, err)
}
