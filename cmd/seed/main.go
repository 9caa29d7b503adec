// Command seed fills the configured store with sample listings and feedback.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/malatesh-s-hulbanni-12/house-rental/internal/app"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/config"
	"github.com/malatesh-s-hulbanni-12/house-rental/internal/seed"
	"github.com/malatesh-s-hulbanni-12/house-rental/pkg/logger"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Listings, "listings", opts.Listings, "number of listings to create")
	flag.IntVar(&opts.FeedbackPerListing, "feedback", opts.FeedbackPerListing, "feedback entries per listing")
	flag.StringVar(&opts.OwnerEmailDomain, "email-domain", opts.OwnerEmailDomain, "domain used for owner emails")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg.KafkaEnabled = false

	log := logger.New(config.ServiceName+"-seed", cfg.LogLevel, cfg.LogFormat)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rng := rand.New(rand.NewSource(*randSeed))
	if _, err := seed.Run(ctx, application.ListingService(), application.FeedbackService(), opts, rng, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		application.Shutdown()
		os.Exit(1)
	}
}
