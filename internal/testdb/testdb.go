// Package testdb opens throwaway SQLite databases with the service schema for
// repository and service tests.
package testdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/tiny-inventory/pkg/db"
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	"github.com/angelmondragon/tiny-inventory/pkg/migrate"
)

// Open returns an isolated in-memory database with the schema applied.
// A single connection keeps the shared-cache database free of lock errors.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.AutoMigrateSQLite(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// Client wraps Open in a db.Client.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromGorm(Open(t))
}

func MustStore(t testing.TB, conn *gorm.DB, name, slug string) *models.Store {
	t.Helper()
	store := &models.Store{Name: name, Slug: slug}
	if err := conn.Create(store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func MustProduct(t testing.TB, conn *gorm.DB, sku, name, category, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:      sku,
		Name:     name,
		Category: category,
		Price:    decimal.RequireFromString(price),
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func MustInventory(t testing.TB, conn *gorm.DB, storeID, productID uuid.UUID, quantity, threshold int) *models.Inventory {
	t.Helper()
	inv := &models.Inventory{
		StoreID:           storeID,
		ProductID:         productID,
		Quantity:          quantity,
		LowStockThreshold: threshold,
	}
	if err := conn.Create(inv).Error; err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	return inv
}
