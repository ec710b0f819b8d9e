package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tiny-inventory/internal/repo"
	"github.com/angelmondragon/tiny-inventory/internal/softdelete"
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tiny-inventory/pkg/errors"
)

const table = "inventory"

// Repository owns the inventory join view and the pair-level writes.
type Repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository binds a GORM DB to inventory operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Base: repo.NewBase(db, table),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// joined starts a query over live inventory inner-joined to live stores and
// live products.
func (r *Repository) joined(ctx context.Context, filter softdelete.Filter, opts softdelete.Options) *gorm.DB {
	return r.Scoped(ctx, filter, opts).
		Joins(softdelete.LiveJoin("stores", "stores.id = inventory.store_id")).
		Joins(softdelete.LiveJoin("products", "products.id = inventory.product_id"))
}

// List returns one page of the join view and the total before paging.
func (r *Repository) List(ctx context.Context, q listQuery) ([]itemRow, int64, error) {
	var matches *searchMatches
	if q.Search != "" {
		found, err := r.search(ctx, q.Search)
		if err != nil {
			return nil, 0, err
		}
		if found.empty() {
			return []itemRow{}, 0, nil
		}
		matches = &found
	}
	filter := q.filter(matches)

	var total int64
	if err := r.joined(ctx, filter, softdelete.Options{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count inventory: %w", err)
	}
	if total == 0 {
		return []itemRow{}, 0, nil
	}

	rows := []itemRow{}
	query := r.joined(ctx, filter, softdelete.Options{}).Select(itemColumns)
	err := applySort(query, q.Sort).
		Limit(q.Limit).
		Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory: %w", err)
	}
	return rows, total, nil
}

// search runs the product and store sub-searches concurrently.
func (r *Repository) search(ctx context.Context, term string) (searchMatches, error) {
	var m searchMatches
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.DB(gctx).
			Table("products").
			Scopes(softdelete.Scope("products", softdelete.Filter{productSearchClause(term)}, softdelete.Options{})).
			Pluck("products.id", &m.ProductIDs).Error
	})
	g.Go(func() error {
		return r.DB(gctx).
			Table("stores").
			Scopes(softdelete.Scope("stores", softdelete.Filter{storeSearchClause(term)}, softdelete.Options{})).
			Pluck("stores.id", &m.StoreIDs).Error
	})
	if err := g.Wait(); err != nil {
		return searchMatches{}, fmt.Errorf("search inventory: %w", err)
	}
	return m, nil
}

// FindByID loads one row of the join view.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*itemRow, error) {
	return r.first(ctx, softdelete.Filter{softdelete.Eq("inventory.id", id)})
}

// FindByPair loads the live row for a store and product.
func (r *Repository) FindByPair(ctx context.Context, storeID, productID uuid.UUID) (*itemRow, error) {
	return r.first(ctx, softdelete.Filter{
		softdelete.Eq("inventory.store_id", storeID),
		softdelete.Eq("inventory.product_id", productID),
	})
}

func (r *Repository) first(ctx context.Context, filter softdelete.Filter) (*itemRow, error) {
	var rows []itemRow
	err := r.joined(ctx, filter, softdelete.Options{}).
		Select(itemColumns).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// Metrics aggregates a store's live inventory whose product is live. An
// empty store yields zeros.
func (r *Repository) Metrics(ctx context.Context, storeID uuid.UUID) (MetricsDTO, error) {
	var row metricsRow
	err := r.Scoped(ctx, softdelete.Filter{softdelete.Eq("inventory.store_id", storeID)}, softdelete.Options{}).
		Joins(softdelete.LiveJoin("products", "products.id = inventory.product_id")).
		Select(fmt.Sprintf(`COALESCE(SUM(inventory.quantity), 0) AS total_stock,
COALESCE(SUM(inventory.quantity * products.price), 0) AS total_value,
COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0) AS low_stock_count`, lowStockCondition)).
		Scan(&row).Error
	if err != nil {
		return MetricsDTO{}, fmt.Errorf("store metrics: %w", err)
	}
	return row.toDTO(), nil
}

// Upsert creates or updates the single row for the pair, writing only the
// provided fields and clearing the deletion marker. New rows start at
// quantity 0 and the default threshold.
func (r *Repository) Upsert(ctx context.Context, storeID, productID uuid.UUID, input UpsertInput) (*itemRow, error) {
	now := r.now()
	row := models.Inventory{
		StoreID:           storeID,
		ProductID:         productID,
		LowStockThreshold: models.DefaultLowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	updates := map[string]any{softdelete.Column: nil, "updated_at": now}
	if input.Quantity != nil {
		row.Quantity = *input.Quantity
		updates["quantity"] = *input.Quantity
	}
	if input.LowStockThreshold != nil {
		row.LowStockThreshold = *input.LowStockThreshold
		updates["low_stock_threshold"] = *input.LowStockThreshold
	}

	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert inventory: %w", err)
	}
	// On conflict the generated id is discarded; reload by pair.
	return r.FindByPair(ctx, storeID, productID)
}

// RemoveFromStore marks the live row for the pair deleted.
// gorm.ErrRecordNotFound is returned when there is none.
func (r *Repository) RemoveFromStore(ctx context.Context, storeID, productID uuid.UUID) error {
	now := r.now()
	res := r.Scoped(ctx, softdelete.Filter{
		softdelete.Eq("inventory.store_id", storeID),
		softdelete.Eq("inventory.product_id", productID),
	}, softdelete.Options{}).Updates(map[string]any{softdelete.Column: now, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("remove inventory: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Create inserts an explicit row. The pair is unique across live and
// deleted rows, so a duplicate fails with a conflict either way.
func (r *Repository) Create(ctx context.Context, inv *models.Inventory) error {
	if inv == nil {
		return fmt.Errorf("inventory is required")
	}
	if err := r.DB(ctx).Create(inv).Error; err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Inventory item already exists for this store and product")
		}
		return err
	}
	return nil
}
