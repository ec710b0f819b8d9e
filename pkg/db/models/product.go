package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry shared by every store. SKU uniqueness spans
// deleted rows too.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU       string          `gorm:"column:sku;size:32;not null;uniqueIndex:idx_products_sku"`
	Name      string          `gorm:"column:name;size:200;not null;index:idx_products_name"`
	Category  string          `gorm:"column:category;size:50;not null;index:idx_products_category"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;check:chk_products_price,price >= 0"`
	DeletedAt *time.Time      `gorm:"column:deleted_at;index:idx_products_deleted_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
