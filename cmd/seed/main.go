package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tiny-inventory/internal/inventory"
	"github.com/angelmondragon/tiny-inventory/internal/products"
	"github.com/angelmondragon/tiny-inventory/internal/seed"
	"github.com/angelmondragon/tiny-inventory/internal/stores"
	"github.com/angelmondragon/tiny-inventory/pkg/config"
	"github.com/angelmondragon/tiny-inventory/pkg/db"
	"github.com/angelmondragon/tiny-inventory/pkg/env"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
	"github.com/angelmondragon/tiny-inventory/pkg/migrate"
	"github.com/angelmondragon/tiny-inventory/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	randSeed := flag.Int("seed", env.Int("INVENTORY_SEED", 1), "random seed for stock levels")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	// cached metrics for seeded stores must not survive the run
	cache := inventory.NewMetricsCache(nil, 0, logg, nil)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		cache = inventory.NewMetricsCache(redisClient, cfg.Redis.MetricsTTL, logg, nil)
	}

	storeRepo := stores.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	storeSvc, err := stores.NewService(storeRepo, dbClient, cache)
	if err != nil {
		logg.Error(ctx, "failed to create store service", err)
		os.Exit(1)
	}
	productSvc, err := products.NewService(productRepo, dbClient, cache)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}
	inventorySvc, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), storeRepo, productRepo, cache)
	if err != nil {
		logg.Error(ctx, "failed to create inventory service", err)
		os.Exit(1)
	}

	res, err := seed.NewSeeder(storeSvc, productSvc, inventorySvc, logg, uint64(*randSeed)).Run(ctx)
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"stores_created":   res.StoresCreated,
		"products_created": res.ProductsCreated,
		"items_stocked":    res.ItemsStocked,
	}), "seed finished")
}
