package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/logger"
)

// AdminEmailHeader identifies the dashboard user making a request. It is
// informational only and is never used for authorization.
const AdminEmailHeader = "X-Admin-Email"

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, admin_email, trace_id, and span_id, then stores it in
// context via logger.NewContext. Downstream handlers retrieve it with
// logger.FromContext(ctx).
//
// This middleware should be mounted AFTER RequestLogging (which sets
// correlation_id) and Tracing (which sets the OpenTelemetry span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if email := strings.ToLower(strings.TrimSpace(r.Header.Get(AdminEmailHeader))); email != "" {
				ctx = logger.WithAdminEmail(ctx, email)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
