package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tiny-inventory/internal/repo"
	"github.com/angelmondragon/tiny-inventory/internal/softdelete"
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
)

const table = "stores"

// Repository handles store persistence. Every read goes through the
// soft-delete scope.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db, table)}
}

// ListWithCounts returns live stores with the number of live inventory rows
// whose product is also live, busiest first.
func (r *Repository) ListWithCounts(ctx context.Context) ([]storeWithCount, error) {
	counts := r.DB(ctx).
		Table("inventory").
		Select("COUNT(*)").
		Joins(softdelete.LiveJoin("products", "products.id = inventory.product_id")).
		Where("inventory.store_id = stores.id").
		Where(softdelete.LiveCondition("inventory"))

	var rows []storeWithCount
	err := r.Scoped(ctx, nil, softdelete.Options{}).
		Select("stores.*, (?) AS product_count", counts).
		Order("product_count DESC").
		Order("stores.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID, opts softdelete.Options) (*models.Store, error) {
	return r.first(ctx, softdelete.Filter{softdelete.Eq("stores.id", id)}, opts)
}

// FindBySlug loads a live-or-deleted store by slug according to opts.
func (r *Repository) FindBySlug(ctx context.Context, slug string, opts softdelete.Options) (*models.Store, error) {
	return r.first(ctx, softdelete.Filter{softdelete.Eq("stores.slug", slug)}, opts)
}

// Resolve looks a live store up by UUID when idOrSlug parses as one, and by
// slug otherwise.
func (r *Repository) Resolve(ctx context.Context, idOrSlug string) (*models.Store, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return r.FindByID(ctx, id, softdelete.Options{})
	}
	return r.FindBySlug(ctx, idOrSlug, softdelete.Options{})
}

func (r *Repository) first(ctx context.Context, filter softdelete.Filter, opts softdelete.Options) (*models.Store, error) {
	var store models.Store
	if err := r.Scoped(ctx, filter, opts).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.DB(ctx).Create(store).Error
}

// Update applies updates to a live store and returns the fresh row.
// gorm.ErrRecordNotFound is returned when no live store matches.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Store, error) {
	filter := softdelete.Filter{softdelete.Eq("stores.id", id)}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		res := r.Scoped(ctx, filter, softdelete.Options{}).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.first(ctx, filter, softdelete.Options{})
}

// SoftDeleteWithTx marks the store and its inventory deleted inside tx.
// It reports false when no live store matched.
func (r *Repository) SoftDeleteWithTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	affected, err := softdelete.MarkDeleted(tx, table, id, at, softdelete.Dependent{Table: "inventory", ForeignKey: "store_id"})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
