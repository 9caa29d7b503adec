package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of allowed origins (e.g. "https://example.com").
	// An entry with a leading "*." host label such as "https://*.vercel.app"
	// matches any subdomain under that scheme. If the list contains "*", all
	// origins are allowed.
	AllowedOrigins []string

	// AllowedMethods is the list of allowed HTTP methods.
	// Defaults to GET, POST, PUT, PATCH, DELETE, OPTIONS if empty.
	AllowedMethods []string

	// AllowedHeaders is the list of allowed request headers.
	AllowedHeaders []string

	// ExposedHeaders is the list of headers the browser may access.
	ExposedHeaders []string

	// MaxAge is how long (in seconds) preflight results can be cached.
	// Defaults to 3600 if 0.
	MaxAge int

	// AllowCredentials indicates whether credentials (cookies, auth headers) are supported.
	// When set, the request origin is echoed instead of "*".
	AllowCredentials bool

	// Environment controls wildcard behavior. Wildcard origins are only
	// accepted when Environment is "development" or AllowedOrigins explicitly contains "*".
	Environment string
}

var (
	defaultMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultHeaders = []string{"Accept", "Authorization", "Content-Type", CorrelationIDHeader, AdminEmailHeader}
)

// DefaultCORSConfig returns the origins used by the rental dashboard: the
// local Vite dev server and the Vercel deployments.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"https://house-rental1.vercel.app",
			"https://*.vercel.app",
		},
		AllowedMethods:   defaultMethods,
		AllowedHeaders:   defaultHeaders,
		ExposedHeaders:   []string{CorrelationIDHeader},
		MaxAge:           3600,
		AllowCredentials: true,
		Environment:      "development",
	}
}

type originMatcher struct {
	exact    map[string]struct{}
	suffixes []string // "https://" + ".vercel.app" pairs flattened as scheme|suffix
	schemes  []string
}

func newOriginMatcher(origins []string) *originMatcher {
	m := &originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		scheme, host, ok := strings.Cut(o, "://")
		if ok && strings.HasPrefix(host, "*.") {
			m.schemes = append(m.schemes, scheme+"://")
			m.suffixes = append(m.suffixes, host[1:])
			continue
		}
		m.exact[o] = struct{}{}
	}
	return m
}

func (m *originMatcher) match(origin string) bool {
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for i, suffix := range m.suffixes {
		if strings.HasPrefix(origin, m.schemes[i]) && strings.HasSuffix(origin, suffix) &&
			len(origin) > len(m.schemes[i])+len(suffix) {
			return true
		}
	}
	return false
}

// CORS returns middleware that handles Cross-Origin Resource Sharing headers
// based on the provided configuration.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = defaultMethods
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = defaultHeaders
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 3600
	}

	allowWildcard := cfg.Environment == "development"
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowWildcard = true
		}
	}
	matcher := newOriginMatcher(cfg.AllowedOrigins)

	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case origin != "" && (matcher.match(origin) || (allowWildcard && cfg.AllowCredentials)):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			case allowWildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			if exposed != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposed)
			}
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
