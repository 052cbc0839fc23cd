package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/config"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/db"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/handler"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/middleware"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/quota"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/repository"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/router"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/service"
	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/youtube"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "podcast-finder")

	ctx := context.Background()

	// Postgres is optional. Without DATABASE_URL quota counters persist to a
	// local JSON file instead.
	var pool *pgxpool.Pool
	var store quota.Store
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer pool.Close()

		repo := repository.NewQuotaRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("quota schema migration failed")
		}
		store = repo
	} else {
		store = quota.NewFileStore(quota.DefaultQuotaPath(cfg.QuotaFile))
		log.Info().Str("file", cfg.QuotaFile).Msg("no DATABASE_URL set, quota persists to file")
	}

	tracker, err := quota.NewTracker(ctx, store, cfg.DailyQuota, cfg.QuotaCosts, cfg.ResetTimezone)
	if err != nil {
		log.Fatal().Err(err).Msg("quota tracker init failed")
	}

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	// A typed nil *youtube.Client must not end up in the DataClient
	// interface, so the assignment stays conditional.
	var dataClient service.DataClient
	if cfg.YouTubeAPIKey != "" {
		dataClient = youtube.NewClient(cfg.YouTubeAPIURL, cfg.YouTubeAPIKey, tracker, log.Logger)
	} else {
		log.Warn().Msg("no YOUTUBE_API_KEY set, serving sample data only")
	}

	scorer := service.NewScoreService()
	searchSvc := service.NewSearchService(dataClient, tracker, scorer, cache,
		log.Logger, cfg.SearchWorkers, cfg.DefaultMaxResults, cfg.MaxMaxResults)

	directory := service.NewStaticDirectory(youtube.FallbackChannels(time.Now()))
	outreachSvc := service.NewOutreachService(directory, log.Logger)

	handlers := &router.Handlers{
		Search:   handler.NewSearchHandler(searchSvc),
		Export:   handler.NewExportHandler(searchSvc, outreachSvc),
		Outreach: handler.NewOutreachHandler(outreachSvc),
		Quota:    handler.NewQuotaHandler(tracker),
		Health:   handler.NewHealthHandler(pool, cache.Client()),
	}

	handler.InitMetrics(pool, tracker)

	app := fiber.New(fiber.Config{
		AppName:      "Podcast Finder API",
		ServerHeader: "PodcastFinder",
	})

	router.Setup(app, handlers, cfg.CORSOrigins)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("podcast finder backend started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
