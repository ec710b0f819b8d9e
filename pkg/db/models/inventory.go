package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultLowStockThreshold applies when an inventory row is created without
// an explicit threshold.
const DefaultLowStockThreshold = 10

// Inventory links a store to a product with its on-hand quantity. The
// (store_id, product_id) pair is unique across live and deleted rows.
// Quantity and LowStockThreshold have no gorm default tag so an explicit 0 is
// written as 0.
type Inventory struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	StoreID           uuid.UUID  `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_inventory_store_product,priority:1;index:idx_inventory_store_deleted,priority:1"`
	ProductID         uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_inventory_store_product,priority:2;index:idx_inventory_product_deleted,priority:1"`
	Quantity          int        `gorm:"column:quantity;not null;check:chk_inventory_quantity,quantity >= 0"`
	LowStockThreshold int        `gorm:"column:low_stock_threshold;not null;check:chk_inventory_threshold,low_stock_threshold >= 0"`
	DeletedAt         *time.Time `gorm:"column:deleted_at;index:idx_inventory_store_deleted,priority:2;index:idx_inventory_product_deleted,priority:2"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Inventory) TableName() string { return "inventory" }

func (i *Inventory) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
