package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/config"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/event"
	handler "github.com/malatesh-s-hulbanni-12/house-rental/internal/handler/http"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository/cache"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/service"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/health"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/middleware"
	pkgkafka "github.com/malatesh-s-hulbanni-12/house-rental/pkg/kafka"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/tracing"
)

// events publishes both listing and feedback events.
type events interface {
	service.ListingEvents
	service.FeedbackEvents
}

// App wires together all dependencies and runs the rental API.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	stores          *stores
	redis           *redis.Client
	producer        *pkgkafka.Producer
	tracingShutdown func(context.Context) error
	listingService  *service.ListingService
	feedbackService *service.FeedbackService
	httpServer      *http.Server
	stopBackground  context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracingShutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		_ = tracingShutdown(context.Background())
		return nil, err
	}

	a := &App{
		cfg:             cfg,
		logger:          logger,
		stores:          st,
		tracingShutdown: tracingShutdown,
	}

	healthHandler := health.NewHandler()
	if st.check != nil {
		healthHandler.RegisterCritical(cfg.StoreDriver, st.check)
	}

	// Optional Redis read-through cache in front of the listing store.
	listings := st.listings
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			a.Shutdown()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		listings = cache.NewListingRepository(listings, client, cfg.ListingCacheTTL, logger)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		logger.Info("listing cache enabled",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Duration("ttl", cfg.ListingCacheTTL),
		)
	}

	// Domain events go to Kafka when enabled and are discarded otherwise.
	var publisher events = event.Noop{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(cfg.Kafka(), logger)
		publisher = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	a.listingService = service.NewListingService(listings, publisher, logger)
	a.feedbackService = service.NewFeedbackService(st.feedback, publisher, logger)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	a.stopBackground = stopBackground

	routerCfg := handler.RouterConfig{
		ServiceName:    config.ServiceName,
		Environment:    cfg.Environment,
		StoreDriver:    cfg.StoreDriver,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	}
	if cfg.RateLimitEnabled {
		routerCfg.WriteLimiter = middleware.RateLimit(bgCtx, cfg.RateLimit(), logger)
	}

	router := handler.NewRouter(a.listingService, a.feedbackService, healthHandler, st.check, routerCfg, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// ListingService returns the wired listing service.
func (a *App) ListingService() *service.ListingService {
	return a.listingService
}

// FeedbackService returns the wired feedback service.
func (a *App) FeedbackService() *service.FeedbackService {
	return a.feedbackService
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store", a.cfg.StoreDriver),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.Shutdown()
		return err
	}

	a.Shutdown()
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}
	}

	if a.stopBackground != nil {
		a.stopBackground()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.stores.close(shutdownCtx)

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
}
