package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/tiny-inventory/api/middleware"
	"github.com/angelmondragon/tiny-inventory/api/routes"
	"github.com/angelmondragon/tiny-inventory/internal/inventory"
	"github.com/angelmondragon/tiny-inventory/internal/products"
	"github.com/angelmondragon/tiny-inventory/internal/stores"
	"github.com/angelmondragon/tiny-inventory/pkg/config"
	"github.com/angelmondragon/tiny-inventory/pkg/db"
	"github.com/angelmondragon/tiny-inventory/pkg/instance"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
	"github.com/angelmondragon/tiny-inventory/pkg/metrics"
	"github.com/angelmondragon/tiny-inventory/pkg/migrate"
	"github.com/angelmondragon/tiny-inventory/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

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
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.Open(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	apiMetrics := metrics.New(reg)

	var (
		redisClient *redis.Client
		rateStore   middleware.RateLimitStore = middleware.NewMemoryRateStore()
		cache       *inventory.MetricsCache   = inventory.NewMetricsCache(nil, 0, logg, apiMetrics)
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		rateStore = redisClient
		cache = inventory.NewMetricsCache(redisClient, cfg.Redis.MetricsTTL, logg, apiMetrics)
	} else {
		logg.Warn(ctx, "redis not configured, using in-process rate limiting without metrics cache")
	}

	storeRepo := stores.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())

	storeService, err := stores.NewService(storeRepo, dbClient, cache)
	if err != nil {
		return err
	}
	productService, err := products.NewService(productRepo, dbClient, cache)
	if err != nil {
		return err
	}
	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), storeRepo, productRepo, cache)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"sqlite":   cfg.FeatureFlags.UseSQLite,
		"redis":    redisClient != nil,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, rateStore, apiMetrics, reg, storeService, productService, inventoryService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
