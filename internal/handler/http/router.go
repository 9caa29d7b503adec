package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/service"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/health"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/middleware"
)

// RouterConfig holds the transport settings the router needs.
type RouterConfig struct {
	ServiceName    string
	Environment    string
	StoreDriver    string
	AllowedOrigins []string
	PprofCIDRs     []string
	MaxBodyBytes   int64
	// WriteLimiter, when set, throttles login and feedback submission.
	WriteLimiter func(http.Handler) http.Handler
}

// NewRouter creates a chi router with all rental API routes registered.
// storeCheck backs the store state reported by GET /api/health.
func NewRouter(
	listingService *service.ListingService,
	feedbackService *service.FeedbackService,
	healthHandler *health.Handler,
	storeCheck health.Checker,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.AllowedOrigins
	}
	corsCfg.Environment = cfg.Environment

	// Global middleware
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	limitWrites := cfg.WriteLimiter
	if limitWrites == nil {
		limitWrites = func(next http.Handler) http.Handler { return next }
	}

	indexHandler := NewIndexHandler(cfg.Environment, cfg.StoreDriver, storeCheck, logger)
	listingHandler := NewListingHandler(listingService, cfg.MaxBodyBytes, logger)
	feedbackHandler := NewFeedbackHandler(feedbackService, cfg.MaxBodyBytes, logger)
	authHandler := NewAuthHandler(logger)

	r.Get("/", indexHandler.Root)
	r.Get("/api", indexHandler.API)
	r.Get("/api/health", indexHandler.Health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.With(limitWrites).Post("/login", authHandler.Login)
	})

	r.Route("/api/properties", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", listingHandler.Home)
		r.Get("/health", listingHandler.Health)
		r.Get("/all", listingHandler.ListAll)
		r.Get("/my-creations/{email}", listingHandler.ListByOwner)
		r.Get("/fix-old-properties", listingHandler.FixOldProperties)
		r.Post("/fix-old-properties", listingHandler.FixOldProperties)
		r.Post("/add", listingHandler.AddListing)
		r.Put("/update/{id}", listingHandler.UpdateListing)
		r.Delete("/delete/{id}", listingHandler.DeleteListing)
		r.Get("/{id}", listingHandler.GetListing)
	})

	r.Route("/api/feedback", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(limitWrites).Post("/", feedbackHandler.SubmitFeedback)
		r.Get("/", feedbackHandler.ListFeedback)
		r.Get("/health", feedbackHandler.Health)
		r.Get("/stats", feedbackHandler.Stats)
		r.Get("/property/{propertyId}", feedbackHandler.ListByProperty)
		r.Get("/{id}", feedbackHandler.GetFeedback)
		r.Put("/{id}", feedbackHandler.UpdateFeedback)
		r.Put("/{id}/status", feedbackHandler.UpdateStatus)
		r.Delete("/{id}", feedbackHandler.DeleteFeedback)
	})

	return r
}
