package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/internal/testdb"
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
)

type fixture struct {
	conn     *gorm.DB
	repo     *Repository
	downtown *models.Store
	airport  *models.Store
	widget   *models.Product
	gadget   *models.Product
	gizmo    *models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testdb.Open(t)
	f := fixture{
		conn:     conn,
		repo:     NewRepository(conn),
		downtown: testdb.MustStore(t, conn, "Downtown", "downtown"),
		airport:  testdb.MustStore(t, conn, "Airport Kiosk", "airport-kiosk"),
		widget:   testdb.MustProduct(t, conn, "WID-001", "Blue Widget", "hardware", "10.00"),
		gadget:   testdb.MustProduct(t, conn, "GAD-002", "Pocket Gadget", "electronics", "45.50"),
		gizmo:    testdb.MustProduct(t, conn, "GIZ-003", "Gizmo 100%", "electronics", "99.99"),
	}
	testdb.MustInventory(t, conn, f.downtown.ID, f.widget.ID, 50, 10)
	testdb.MustInventory(t, conn, f.downtown.ID, f.gadget.ID, 2, 5)
	testdb.MustInventory(t, conn, f.airport.ID, f.gizmo.ID, 7, 10)
	return f
}

func page(limit, offset int) listQuery {
	return listQuery{Limit: limit, Offset: offset}
}

func markDeleted(t *testing.T, conn *gorm.DB, table string, id uuid.UUID) {
	t.Helper()
	require.NoError(t, conn.Table(table).Where("id = ?", id).Update("deleted_at", time.Now().UTC()).Error)
}

func TestListDefaultSortAndShape(t *testing.T) {
	f := newFixture(t)

	rows, total, err := f.repo.List(context.Background(), page(25, 0))
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, rows, 3)

	// Store name, then product name.
	assert.Equal(t, "Airport Kiosk", rows[0].StoreName)
	assert.Equal(t, "Blue Widget", rows[1].ProductName)
	assert.Equal(t, "Pocket Gadget", rows[2].ProductName)

	dto := rows[1].toDTO()
	assert.Equal(t, f.downtown.ID.String(), dto.StoreID)
	assert.Equal(t, "downtown", dto.StoreSlug)
	assert.Equal(t, "WID-001", dto.Product.SKU)
	assert.Equal(t, 10.0, dto.Product.Price)
	assert.NotEmpty(t, dto.CreatedAt)
}

func TestListHidesDeletedParents(t *testing.T) {
	f := newFixture(t)
	markDeleted(t, f.conn, "products", f.widget.ID)

	rows, total, err := f.repo.List(context.Background(), page(25, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, row := range rows {
		assert.NotEqual(t, f.widget.ID, row.ProductID)
	}

	markDeleted(t, f.conn, "stores", f.airport.ID)
	storeID := f.airport.ID
	rows, total, err = f.repo.List(context.Background(), listQuery{StoreID: &storeID, Limit: 25})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	min := decimal.RequireFromString("40")
	max := decimal.RequireFromString("50")

	tests := []struct {
		name string
		q    listQuery
		want []uuid.UUID
	}{
		{name: "category", q: listQuery{Category: "electronics"}, want: []uuid.UUID{f.gizmo.ID, f.gadget.ID}},
		{name: "price range inclusive", q: listQuery{MinPrice: &min, MaxPrice: &max}, want: []uuid.UUID{f.gadget.ID}},
		{name: "low stock", q: listQuery{LowStockOnly: true}, want: []uuid.UUID{f.gizmo.ID, f.gadget.ID}},
		{name: "search product token", q: listQuery{Search: "pocket"}, want: []uuid.UUID{f.gadget.ID}},
		{name: "search exact sku", q: listQuery{Search: "wid-001"}, want: []uuid.UUID{f.widget.ID}},
		{name: "search store name", q: listQuery{Search: "kiosk"}, want: []uuid.UUID{f.gizmo.ID}},
		{name: "search escapes wildcards", q: listQuery{Search: "100%"}, want: []uuid.UUID{f.gizmo.ID}},
		{name: "search without match", q: listQuery{Search: "zzz"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.q.Limit = 25
			rows, total, err := f.repo.List(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			got := make([]uuid.UUID, 0, len(rows))
			for _, row := range rows {
				got = append(got, row.ProductID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestListSearchUnionsProductAndStoreMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	world := testdb.MustStore(t, f.conn, "Widget World", "widget-world")
	testdb.MustInventory(t, f.conn, world.ID, f.gadget.ID, 4, 10)

	type pair struct{ store, product uuid.UUID }
	pairs := func(rows []itemRow) []pair {
		out := make([]pair, 0, len(rows))
		for _, row := range rows {
			out = append(out, pair{row.StoreID, row.ProductID})
		}
		return out
	}

	// "widget" names a product in Downtown and a store stocking only gadgets.
	rows, total, err := f.repo.List(ctx, listQuery{Search: "widget", Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.ElementsMatch(t, []pair{{f.downtown.ID, f.widget.ID}, {world.ID, f.gadget.ID}}, pairs(rows))

	downtown := f.downtown.ID
	rows, total, err = f.repo.List(ctx, listQuery{Search: "widget", StoreID: &downtown, Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []pair{{f.downtown.ID, f.widget.ID}}, pairs(rows))

	worldID := world.ID
	rows, total, err = f.repo.List(ctx, listQuery{Search: "widget", StoreID: &worldID, Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []pair{{world.ID, f.gadget.ID}}, pairs(rows))

	airport := f.airport.ID
	rows, total, err = f.repo.List(ctx, listQuery{Search: "widget", StoreID: &airport, Limit: 25})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestProductSearchMatchesWordStarts(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	store := testdb.MustStore(t, conn, "Audio Hut", "audio-hut")
	headphones := testdb.MustProduct(t, conn, "AUD-001", "Studio Headphones", "audio", "199.00")
	phoneCase := testdb.MustProduct(t, conn, "ACC-042", "Phone Case", "accessories", "19.00")
	testdb.MustInventory(t, conn, store.ID, headphones.ID, 5, 2)
	testdb.MustInventory(t, conn, store.ID, phoneCase.ID, 5, 2)

	tests := []struct {
		search string
		want   []uuid.UUID
	}{
		{search: "phone", want: []uuid.UUID{phoneCase.ID}},
		{search: "head", want: []uuid.UUID{headphones.ID}},
		{search: "042", want: []uuid.UUID{phoneCase.ID}},
		{search: "phone studio", want: []uuid.UUID{phoneCase.ID, headphones.ID}},
		{search: "tudio", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			rows, _, err := repo.List(context.Background(), listQuery{Search: tt.search, Limit: 25})
			require.NoError(t, err)
			got := make([]uuid.UUID, 0, len(rows))
			for _, row := range rows {
				got = append(got, row.ProductID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestListLowStockBoundary(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	store := testdb.MustStore(t, conn, "Edge", "edge")
	below := testdb.MustProduct(t, conn, "B-1", "Below", "misc", "1")
	at := testdb.MustProduct(t, conn, "A-1", "At", "misc", "1")
	testdb.MustInventory(t, conn, store.ID, below.ID, 4, 5)
	testdb.MustInventory(t, conn, store.ID, at.ID, 5, 5)

	rows, _, err := repo.List(context.Background(), listQuery{LowStockOnly: true, Limit: 25})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, below.ID, rows[0].ProductID)
}

func TestListSortAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, total, err := f.repo.List(ctx, listQuery{Sort: SortPriceDesc, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	assert.Equal(t, f.gizmo.ID, rows[0].ProductID)
	assert.Equal(t, f.gadget.ID, rows[1].ProductID)

	rows, total, err = f.repo.List(ctx, listQuery{Sort: SortPriceDesc, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 1)
	assert.Equal(t, f.widget.ID, rows[0].ProductID)

	rows, _, err = f.repo.List(ctx, listQuery{Sort: SortStockAsc, Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 2, rows[0].Quantity)
}

func TestMetricsAndUpsert(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	store := testdb.MustStore(t, conn, "Test Store", "test-store")
	product := testdb.MustProduct(t, conn, "TEST-001", "Test Product", "test", "99.99")
	testdb.MustInventory(t, conn, store.ID, product.ID, 10, 5)

	metrics, err := repo.Metrics(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), metrics.TotalStock)
	assert.InDelta(t, 999.90, metrics.TotalValue, 0.0001)
	assert.Zero(t, metrics.LowStockCount)
	assert.Equal(t, models.DefaultLowStockThreshold, metrics.LowStockThreshold)

	qty := 3
	row, err := repo.Upsert(ctx, store.ID, product.ID, UpsertInput{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 3, row.Quantity)
	assert.Equal(t, 5, row.LowStockThreshold, "threshold is left alone when not provided")

	metrics, err = repo.Metrics(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.LowStockCount)

	rows, _, err := repo.List(ctx, listQuery{LowStockOnly: true, Limit: 25})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)
}

func TestMetricsEmptyStore(t *testing.T) {
	conn := testdb.Open(t)
	store := testdb.MustStore(t, conn, "Empty", "empty")

	metrics, err := NewRepository(conn).Metrics(context.Background(), store.ID)
	require.NoError(t, err)
	assert.Equal(t, MetricsDTO{LowStockThreshold: models.DefaultLowStockThreshold}, metrics)
}

func TestUpsertCreatesWithDefaults(t *testing.T) {
	f := newFixture(t)

	threshold := 3
	row, err := f.repo.Upsert(context.Background(), f.airport.ID, f.widget.ID, UpsertInput{LowStockThreshold: &threshold})
	require.NoError(t, err)
	assert.Zero(t, row.Quantity)
	assert.Equal(t, 3, row.LowStockThreshold)
	assert.Equal(t, "Airport Kiosk", row.StoreName)
}

func TestRemoveThenUpsertReactivates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	original, err := f.repo.FindByPair(ctx, f.downtown.ID, f.gadget.ID)
	require.NoError(t, err)

	require.NoError(t, f.repo.RemoveFromStore(ctx, f.downtown.ID, f.gadget.ID))
	assert.ErrorIs(t, f.repo.RemoveFromStore(ctx, f.downtown.ID, f.gadget.ID), gorm.ErrRecordNotFound)

	_, err = f.repo.FindByID(ctx, original.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	qty := 8
	row, err := f.repo.Upsert(ctx, f.downtown.ID, f.gadget.ID, UpsertInput{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, original.ID, row.ID, "the single row for the pair is reused")
	assert.Equal(t, 8, row.Quantity)
	assert.Equal(t, 5, row.LowStockThreshold)

	var count int64
	require.NoError(t, f.conn.Table("inventory").Where("store_id = ? AND product_id = ?", f.downtown.ID, f.gadget.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateRejectsDuplicatePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.repo.Create(ctx, &models.Inventory{StoreID: f.downtown.ID, ProductID: f.widget.ID, LowStockThreshold: 10})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, f.repo.RemoveFromStore(ctx, f.downtown.ID, f.widget.ID))
	err = f.repo.Create(ctx, &models.Inventory{StoreID: f.downtown.ID, ProductID: f.widget.ID, LowStockThreshold: 10})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "deleted rows still hold the pair")
}
