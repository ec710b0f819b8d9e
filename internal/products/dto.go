package products

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	"github.com/angelmondragon/tiny-inventory/pkg/types"
)

// ProductDTO is the API view of a product.
type ProductDTO struct {
	ID        string  `json:"id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// CreateProductInput holds the payload to create a product. Text fields are
// normalized by the service.
type CreateProductInput struct {
	SKU      string
	Name     string
	Category string
	Price    decimal.Decimal
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	SKU      *string
	Name     *string
	Category *string
	Price    *decimal.Decimal
}

// FromModel maps the persisted product into a DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:        m.ID.String(),
		SKU:       m.SKU,
		Name:      m.Name,
		Category:  m.Category,
		Price:     m.Price.InexactFloat64(),
		CreatedAt: types.FormatTimestamp(m.CreatedAt),
		UpdatedAt: types.FormatTimestamp(m.UpdatedAt),
	}
}
