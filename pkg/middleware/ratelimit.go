package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/logger"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
	// TTL is how long an idle client keeps its bucket.
	TTL time.Duration
	// TrustedProxies lists the CIDRs whose forwarding headers name the
	// client. Requests from any other peer are keyed by their socket address.
	TrustedProxies []string
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientStore struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

func newClientStore(cfg RateLimitConfig) *clientStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 3 * time.Minute
	}
	return &clientStore{
		clients: make(map[string]*client),
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

func (s *clientStore) limiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[ip] = c
	}
	c.lastSeen = s.now()
	return c.limiter
}

// evict drops clients idle for longer than the TTL.
func (s *clientStore) evict() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for ip, c := range s.clients {
		if now.Sub(c.lastSeen) > s.ttl {
			delete(s.clients, ip)
		}
	}
}

func (s *clientStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *clientStore) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evict()
		}
	}
}

// RateLimit returns middleware enforcing a per-IP token bucket. Requests over
// the limit get 429 with the standard error envelope. The eviction goroutine
// stops when ctx is cancelled.
func RateLimit(ctx context.Context, cfg RateLimitConfig, l *slog.Logger) func(http.Handler) http.Handler {
	store := newClientStore(cfg)
	go store.evictLoop(ctx)
	return rateLimit(store, parseCIDRs(cfg.TrustedProxies, l), l)
}

func rateLimit(store *clientStore, trusted []*net.IPNet, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := limitKey(r, trusted)
			if !store.limiter(ip).Allow() {
				l.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", ip),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				if err := json.NewEncoder(w).Encode(map[string]any{
					"success":   false,
					"message":   "Too many requests, please try again later",
					"code":      "RATE_LIMITED",
					"requestId": logger.CorrelationIDFromContext(r.Context()),
				}); err != nil {
					l.Error("failed to encode response", slog.String("error", err.Error()))
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limitKey is the address a request is throttled under. Forwarding headers
// count only when the peer is a trusted proxy.
func limitKey(r *http.Request, trusted []*net.IPNet) string {
	peer := remoteHost(r)
	if !containsIP(trusted, peer) {
		return peer
	}
	return ClientIP(r)
}

// ClientIP returns the caller address, preferring the first valid entry of
// X-Forwarded-For, then X-Real-IP, then RemoteAddr without its port. The
// headers are taken as sent, so the result is only fit for logs and traces.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
