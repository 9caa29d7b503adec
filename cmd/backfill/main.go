// Command backfill gives listings created before the bhk and squareFeet
// fields existed their default values, then exits.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/app"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/config"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(config.ServiceName+"-backfill", cfg.LogLevel, cfg.LogFormat)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 5*time.Minute)
	defer cancelTimeout()

	count, err := application.ListingService().BackfillLegacy(ctx)
	if err != nil {
		log.Error("backfill failed",
			slog.Int("updated", count),
			slog.String("error", err.Error()),
		)
		application.Shutdown()
		os.Exit(1)
	}

	log.Info("backfill complete", slog.Int("updated", count))
}
