package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	"github.com/angelmondragon/tiny-inventory/pkg/pagination"
	"github.com/angelmondragon/tiny-inventory/pkg/types"
)

// ProductSummary is the product block embedded in every inventory item.
type ProductSummary struct {
	ID        string  `json:"id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// ItemDTO is the flattened inventory view returned by list, get and upsert.
type ItemDTO struct {
	ID                string         `json:"id"`
	StoreID           string         `json:"storeId"`
	StoreName         string         `json:"storeName"`
	StoreSlug         string         `json:"storeSlug"`
	ProductID         string         `json:"productId"`
	Quantity          int            `json:"quantity"`
	LowStockThreshold int            `json:"lowStockThreshold"`
	CreatedAt         string         `json:"createdAt"`
	UpdatedAt         string         `json:"updatedAt"`
	Product           ProductSummary `json:"product"`
}

// MetricsDTO aggregates one store's live inventory.
type MetricsDTO struct {
	TotalStock        int64   `json:"totalStock"`
	TotalValue        float64 `json:"totalValue"`
	LowStockCount     int64   `json:"lowStockCount"`
	LowStockThreshold int     `json:"lowStockThreshold"`
}

// ListInput carries the raw filters of an inventory listing. Numbers are
// already parsed by the HTTP layer; identifiers and text are checked here.
type ListInput struct {
	StoreID      string
	Search       string
	Category     string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	LowStockOnly bool
	Sort         string
	Page         int
	Limit        int
}

// ListResult is one page of items plus the echo of the paging inputs.
type ListResult struct {
	Items      []ItemDTO
	Pagination pagination.Meta
}

// UpsertInput holds the partial update for a (store, product) pair. At least
// one field must be set.
type UpsertInput struct {
	Quantity          *int
	LowStockThreshold *int
}

// itemRow is the scan target of the joined inventory query.
type itemRow struct {
	ID                uuid.UUID       `gorm:"column:id"`
	StoreID           uuid.UUID       `gorm:"column:store_id"`
	StoreName         string          `gorm:"column:store_name"`
	StoreSlug         string          `gorm:"column:store_slug"`
	ProductID         uuid.UUID       `gorm:"column:product_id"`
	Quantity          int             `gorm:"column:quantity"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at"`
	ProductSKU        string          `gorm:"column:product_sku"`
	ProductName       string          `gorm:"column:product_name"`
	ProductCategory   string          `gorm:"column:product_category"`
	ProductPrice      decimal.Decimal `gorm:"column:product_price"`
	ProductCreatedAt  time.Time       `gorm:"column:product_created_at"`
	ProductUpdatedAt  time.Time       `gorm:"column:product_updated_at"`
}

type metricsRow struct {
	TotalStock    int64           `gorm:"column:total_stock"`
	TotalValue    decimal.Decimal `gorm:"column:total_value"`
	LowStockCount int64           `gorm:"column:low_stock_count"`
}

func (r itemRow) toDTO() ItemDTO {
	return ItemDTO{
		ID:                r.ID.String(),
		StoreID:           r.StoreID.String(),
		StoreName:         r.StoreName,
		StoreSlug:         r.StoreSlug,
		ProductID:         r.ProductID.String(),
		Quantity:          r.Quantity,
		LowStockThreshold: r.LowStockThreshold,
		CreatedAt:         types.FormatTimestamp(r.CreatedAt),
		UpdatedAt:         types.FormatTimestamp(r.UpdatedAt),
		Product: ProductSummary{
			ID:        r.ProductID.String(),
			SKU:       r.ProductSKU,
			Name:      r.ProductName,
			Category:  r.ProductCategory,
			Price:     r.ProductPrice.InexactFloat64(),
			CreatedAt: types.FormatTimestamp(r.ProductCreatedAt),
			UpdatedAt: types.FormatTimestamp(r.ProductUpdatedAt),
		},
	}
}

func (r metricsRow) toDTO() MetricsDTO {
	return MetricsDTO{
		TotalStock:        r.TotalStock,
		TotalValue:        r.TotalValue.Round(2).InexactFloat64(),
		LowStockCount:     r.LowStockCount,
		LowStockThreshold: models.DefaultLowStockThreshold,
	}
}
