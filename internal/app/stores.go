package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/config"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository/memory"
	mongorepo "github.com/malatesh-s-hulbanni-12/house-rental/internal/repository/mongo"
	pgrepo "github.com/malatesh-s-hulbanni-12/house-rental/internal/repository/postgres"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/repository/postgres/migrations"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/health"
)

// stores holds the record stores for the configured driver together with
// their connection check and release function.
type stores struct {
	listings repository.ListingRepository
	feedback repository.FeedbackRepository
	check    health.Checker
	close    func(ctx context.Context)
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return openMongo(ctx, cfg, logger)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.DriverMemory:
		logger.Warn("using in-memory record store; data is lost on restart")
		return &stores{
			listings: memory.NewListingRepository(),
			feedback: memory.NewFeedbackRepository(),
			close:    func(context.Context) {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	mongoCfg := cfg.Mongo()
	client, err := database.NewMongoClient(ctx, mongoCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	db := client.Database(mongoCfg.Database)
	logger.Info("connected to MongoDB", slog.String("database", mongoCfg.Database))

	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure mongodb indexes: %w", err)
	}

	return &stores{
		listings: mongorepo.NewListingRepository(db),
		feedback: mongorepo.NewFeedbackRepository(db),
		check: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
			}
		},
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	database.RegisterPoolMetrics(pool, config.ServiceName)

	return &stores{
		listings: pgrepo.NewListingRepository(pool),
		feedback: pgrepo.NewFeedbackRepository(pool),
		check:    pool.Ping,
		close:    func(context.Context) { pool.Close() },
	}, nil
}
