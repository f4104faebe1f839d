package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielbikeshop/backend/internal/catalog"
	"github.com/danielbikeshop/backend/internal/cron"
	"github.com/danielbikeshop/backend/internal/erp"
	"github.com/danielbikeshop/backend/internal/erptoken"
	"github.com/danielbikeshop/backend/pkg/config"
	"github.com/danielbikeshop/backend/pkg/db"
	"github.com/danielbikeshop/backend/pkg/logger"
	"github.com/danielbikeshop/backend/pkg/metrics"
	"github.com/danielbikeshop/backend/pkg/migrate"
	"github.com/danielbikeshop/backend/pkg/redis"
)

const lockKeyFormat = "bikeshop:sync-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sync-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	tokenService, err := erptoken.NewService(
		erptoken.NewRepository(dbClient.DB()),
		dbClient,
		redisClient,
		nil,
		cfg.Bling,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create token service", err)
		os.Exit(1)
	}

	erpClient, err := erp.NewClient(cfg.Bling, tokenService, nil, logg, metrics.NewErpMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		logg.Error(context.Background(), "failed to create bling client", err)
		os.Exit(1)
	}

	// Cron metrics are recorded by the cron service itself, so the catalog
	// service gets none here.
	catalogService, err := catalog.NewService(
		catalog.NewRepository(dbClient.DB()),
		erpClient,
		redisClient,
		nil,
		logg,
		cfg.Sync.CatalogPageSize,
		cfg.Sync.CatalogMaxPages,
		cfg.Sync.LockTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	catalogJob, err := cron.NewCatalogSyncJob(catalogService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog sync job", err)
		os.Exit(1)
	}
	tokenJob, err := cron.NewTokenRefreshJob(tokenService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create token refresh job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Sync.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(catalogJob, tokenJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Sync.CatalogInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
