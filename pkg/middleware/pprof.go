package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"

	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/logger"
)

// RegisterPprof mounts the runtime profiling endpoints under /debug/pprof,
// reachable only from the allowed CIDRs.
func RegisterPprof(r chi.Router, allowedCIDRs []string, l *slog.Logger) {
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Use(IPAllowlist(allowedCIDRs, l))
		r.Get("/cmdline", pprof.Cmdline)
		r.Get("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.Get("/trace", pprof.Trace)
		r.Get("/*", pprof.Index)
	})
}

func parseCIDRs(cidrs []string, l *slog.Logger) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			l.Warn("invalid CIDR, skipping",
				slog.String("cidr", cidr),
				slog.String("error", err.Error()),
			)
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func containsIP(nets []*net.IPNet, host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// IPAllowlist returns middleware admitting only peers whose address lies in
// one of cidrs. Only the socket address is consulted; forwarding headers are
// ignored. Invalid CIDRs are logged and skipped.
func IPAllowlist(cidrs []string, l *slog.Logger) func(http.Handler) http.Handler {
	nets := parseCIDRs(cidrs, l)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := remoteHost(r)
			if containsIP(nets, host) {
				next.ServeHTTP(w, r)
				return
			}

			l.WarnContext(r.Context(), "access denied by IP allowlist",
				slog.String("ip", host),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":   false,
				"code":      "FORBIDDEN",
				"message":   "Access restricted",
				"requestId": logger.CorrelationIDFromContext(r.Context()),
			})
		})
	}
}
