package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI      string
	Database string

	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	MaxPoolSize            uint64
}

// DefaultMongoConfig returns defaults matching a single local mongod.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:                    "mongodb://localhost:27017",
		Database:               "house_rental",
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		SocketTimeout:          45 * time.Second,
		MaxPoolSize:            50,
	}
}

var (
	mongoCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "mongo_commands_total",
			Help:      "Total number of MongoDB commands by name and outcome",
		},
		[]string{"command", "status"},
	)

	mongoCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rental",
			Name:      "mongo_command_duration_seconds",
			Help:      "MongoDB command round-trip duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	mongoPoolEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rental",
			Name:      "mongo_pool_events_total",
			Help:      "MongoDB connection pool events by type",
		},
		[]string{"type"},
	)
)

// MongoMonitors bundles the driver event monitors installed on the client.
type MongoMonitors struct {
	Command *event.CommandMonitor
	Pool    *event.PoolMonitor
	Server  *event.ServerMonitor
}

// NewMongoMonitors builds command, pool and server monitors that record
// Prometheus metrics and log connection lifecycle events.
func NewMongoMonitors(logger *slog.Logger) MongoMonitors {
	if logger == nil {
		logger = slog.Default()
	}

	command := &event.CommandMonitor{
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			mongoCommandsTotal.WithLabelValues(e.CommandName, "ok").Inc()
			mongoCommandDuration.WithLabelValues(e.CommandName).Observe(e.Duration.Seconds())
			logSlowCommand(ctx, e.CommandName, e.DatabaseName, e.Duration, "")
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			mongoCommandsTotal.WithLabelValues(e.CommandName, "error").Inc()
			mongoCommandDuration.WithLabelValues(e.CommandName).Observe(e.Duration.Seconds())
			logSlowCommand(ctx, e.CommandName, e.DatabaseName, e.Duration, e.Failure)
		},
	}

	pool := &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			mongoPoolEventsTotal.WithLabelValues(e.Type).Inc()
			switch e.Type {
			case event.PoolReady:
				logger.Info("mongodb connection pool ready", slog.String("address", e.Address))
			case event.PoolCleared:
				logger.Warn("mongodb connection pool cleared",
					slog.String("address", e.Address),
					slog.String("reason", e.Reason),
				)
			case event.PoolClosedEvent:
				logger.Info("mongodb connection pool closed", slog.String("address", e.Address))
			}
		},
	}

	server := &event.ServerMonitor{
		ServerOpening: func(e *event.ServerOpeningEvent) {
			logger.Info("mongodb connected", slog.String("address", e.Address.String()))
		},
		ServerClosed: func(e *event.ServerClosedEvent) {
			logger.Warn("mongodb disconnected", slog.String("address", e.Address.String()))
		},
	}

	return MongoMonitors{Command: command, Pool: pool, Server: server}
}

func logSlowCommand(ctx context.Context, command, db string, elapsed time.Duration, failure string) {
	slow := slowQueries.Load()
	if slow == nil || elapsed < slow.threshold {
		return
	}
	attrs := []any{
		slog.String("db_system", string(SystemMongo)),
		slog.String("command", command),
		slog.String("database", db),
		slog.Duration("duration", elapsed),
	}
	if failure != "" {
		attrs = append(attrs, slog.String("error", failure))
	}
	slow.logger.WarnContext(ctx, "slow query detected", attrs...)
}

// MongoClientOptions builds driver options from cfg with monitors installed.
func MongoClientOptions(cfg MongoConfig, monitors MongoMonitors) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMonitor(monitors.Command).
		SetPoolMonitor(monitors.Pool).
		SetServerMonitor(monitors.Server)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}
	if cfg.SocketTimeout > 0 {
		opts.SetSocketTimeout(cfg.SocketTimeout)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	return opts
}

// NewMongoClient connects to MongoDB and verifies the connection with a
// primary ping, retrying startup failures with backoff.
func NewMongoClient(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("connect to mongodb: empty URI")
	}
	opts := MongoClientOptions(cfg, NewMongoMonitors(logger))

	var client *mongo.Client
	err := retryStartup(ctx, "connect to mongodb", logger, always, func(ctx context.Context) error {
		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
