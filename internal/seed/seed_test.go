package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/internal/inventory"
	"github.com/angelmondragon/tiny-inventory/internal/products"
	"github.com/angelmondragon/tiny-inventory/internal/stores"
	"github.com/angelmondragon/tiny-inventory/internal/testdb"
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
)

func newSeeder(t *testing.T, seed uint64) (*Seeder, inventory.Service, *gorm.DB) {
	t.Helper()
	client := testdb.Client(t)
	conn := client.DB()

	storeRepo := stores.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	cache := inventory.NewMetricsCache(nil, 0, nil, nil)

	storeSvc, err := stores.NewService(storeRepo, client, cache)
	require.NoError(t, err)
	productSvc, err := products.NewService(productRepo, client, cache)
	require.NoError(t, err)
	inventorySvc, err := inventory.NewService(inventory.NewRepository(conn), storeRepo, productRepo, cache)
	require.NoError(t, err)

	return NewSeeder(storeSvc, productSvc, inventorySvc, nil, seed), inventorySvc, conn
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestRunCreatesCatalogue(t *testing.T) {
	seeder, inventorySvc, db := newSeeder(t, 42)
	ctx := context.Background()

	res, err := seeder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(demoStores), res.StoresCreated)
	assert.Equal(t, len(demoProducts), res.ProductsCreated)
	assert.GreaterOrEqual(t, res.ItemsStocked, len(demoStores)*minProductsPerStore)

	assert.Equal(t, int64(len(demoStores)), count(t, db, &models.Store{}))
	assert.Equal(t, int64(len(demoProducts)), count(t, db, &models.Product{}))
	assert.Equal(t, int64(res.ItemsStocked), count(t, db, &models.Inventory{}))

	page, err := inventorySvc.List(ctx, inventory.ListInput{Search: "Times Square"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, page.Pagination.Total, int64(minProductsPerStore))
	for _, item := range page.Items {
		assert.Equal(t, "nyc-times-square", item.StoreSlug)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	seeder, _, db := newSeeder(t, 7)
	ctx := context.Background()

	first, err := seeder.Run(ctx)
	require.NoError(t, err)

	second, err := seeder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, second)
	assert.Equal(t, int64(first.ItemsStocked), count(t, db, &models.Inventory{}))
}
