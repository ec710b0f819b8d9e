package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tiny-inventory/pkg/config"
	"github.com/angelmondragon/tiny-inventory/pkg/db"
	"github.com/angelmondragon/tiny-inventory/pkg/logger"
)

// MaybeRunDev brings the schema up to date on boot. SQLite databases are
// always auto-migrated; Postgres only when running in dev with the
// AUTO_MIGRATE flag set.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client.Dialect() == db.DialectSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return AutoMigrateSQLite(ctx, client.DB())
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": embeddedDir})
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := RunEmbedded(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
