package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielbikeshop/backend/api/routes"
	"github.com/danielbikeshop/backend/internal/catalog"
	"github.com/danielbikeshop/backend/internal/coupons"
	"github.com/danielbikeshop/backend/internal/erp"
	"github.com/danielbikeshop/backend/internal/erptoken"
	"github.com/danielbikeshop/backend/internal/orders"
	"github.com/danielbikeshop/backend/internal/products"
	"github.com/danielbikeshop/backend/internal/settings"
	"github.com/danielbikeshop/backend/internal/stock"
	"github.com/danielbikeshop/backend/internal/stockcheck"
	"github.com/danielbikeshop/backend/pkg/config"
	"github.com/danielbikeshop/backend/pkg/db"
	"github.com/danielbikeshop/backend/pkg/logger"
	"github.com/danielbikeshop/backend/pkg/metrics"
	"github.com/danielbikeshop/backend/pkg/migrate"
	"github.com/danielbikeshop/backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()

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

	erpClient, err := erp.NewClient(cfg.Bling, tokenService, nil, logg, metrics.NewErpMetrics(registry))
	if err != nil {
		logg.Error(context.Background(), "failed to create bling client", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	settingsService, err := settings.NewService(settings.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	stockCheckService, err := stockcheck.NewService(productsRepo, erpClient, settingsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock check service", err)
		os.Exit(1)
	}

	couponsService, err := coupons.NewService(coupons.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		productsRepo,
		couponsService,
		settingsService,
		erpClient,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	stockService, err := stock.NewService(stock.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(
		catalog.NewRepository(dbClient.DB()),
		erpClient,
		redisClient,
		metrics.NewCronJobMetrics(registry),
		logg,
		cfg.Sync.CatalogPageSize,
		cfg.Sync.CatalogMaxPages,
		cfg.Sync.LockTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Products:   productsService,
			StockCheck: stockCheckService,
			Orders:     ordersService,
			Coupons:    couponsService,
			Settings:   settingsService,
			Stock:      stockService,
			Catalog:    catalogService,
			ErpTokens:  tokenService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
