package products

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

const table = "products"

// Repository handles product persistence behind the soft-delete scope.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db, table)}
}

// List returns live products ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.Scoped(ctx, nil, softdelete.Options{}).
		Order("products.name ASC").
		Order("products.id ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByID loads a product by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID, opts softdelete.Options) (*models.Product, error) {
	var product models.Product
	if err := r.Scoped(ctx, softdelete.Filter{softdelete.Eq("products.id", id)}, opts).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create persists a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.DB(ctx).Create(product).Error
}

// Update applies updates to a live product and returns the fresh row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Product, error) {
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		res := r.Scoped(ctx, softdelete.Filter{softdelete.Eq("products.id", id)}, softdelete.Options{}).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.FindByID(ctx, id, softdelete.Options{})
}

// SoftDeleteWithTx marks the product and its inventory rows deleted inside tx.
func (r *Repository) SoftDeleteWithTx(tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	affected, err := softdelete.MarkDeleted(tx, table, id, at, softdelete.Dependent{Table: "inventory", ForeignKey: "product_id"})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
