package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/bondly/bondly/internal/app"
	"github.com/bondly/bondly/internal/classifications"
	"github.com/bondly/bondly/internal/dashboard"
	"github.com/bondly/bondly/internal/observability"
	"github.com/bondly/bondly/internal/partners"
	"github.com/bondly/bondly/internal/platform/cache"
	"github.com/bondly/bondly/internal/platform/db"
	"github.com/bondly/bondly/internal/platform/validate"
	"github.com/bondly/bondly/internal/professions"
	"github.com/bondly/bondly/internal/search"
	"github.com/bondly/bondly/internal/shared"
	"github.com/bondly/bondly/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	var redisClient *redis.Client
	if client, err := cache.New(ctx, redisOpts); err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	catalog, err := professions.Load()
	if err != nil {
		logger.Error("load professions catalog", slog.Any("error", err))
		os.Exit(1)
	}

	validator := validate.New()
	metrics := observability.NewMetrics()

	asynqOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(asynqOpts, logger)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynqOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	partnerRepo := partners.NewRepository(dbpool)
	classificationService := classifications.NewService(classifications.NewRepository(dbpool), partnerRepo, validator)
	dashboardCache := cache.NewVersioned(redisClient, "bondly:dashboard", cfg.DashboardCacheTTL, cache.WithLogger(logger))
	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), partnerRepo, classificationService, dashboardCache, logger)
	partnerService := partners.NewService(partnerRepo, validator,
		partners.WithLimits(cfg.Limits()),
		partners.WithLogger(logger),
		partners.WithListener(dashboardService),
		partners.WithListener(jobClient),
	)
	searchService := search.NewService(partnerService, classificationService)

	router := app.NewRouter(app.RouterParams{
		Logger:                 logger,
		Config:                 cfg,
		Metrics:                metrics,
		PartnersHandler:        partners.NewHandler(logger, partnerService, partners.WithKeyStore(shared.NewIdempotencyStore(dbpool))),
		ClassificationsHandler: classifications.NewHandler(logger, classificationService),
		SearchHandler:          search.NewHandler(logger, searchService),
		DashboardHandler:       dashboard.NewHandler(logger, dashboardService),
		ProfessionsHandler:     professions.NewHandler(catalog),
		JobHandler:             jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
