package stores

import (
	"github.com/angelmondragon/tiny-inventory/pkg/db/models"
	"github.com/angelmondragon/tiny-inventory/pkg/types"
)

// StoreDTO is the API view of a store.
type StoreDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// StoreSummaryDTO adds the live product count shown on the store list.
type StoreSummaryDTO struct {
	StoreDTO
	ProductCount int64 `json:"productCount"`
}

// CreateStoreInput is the trimmed create payload. An empty Slug means derive
// it from Name.
type CreateStoreInput struct {
	Name string
	Slug string
}

// UpdateStoreInput captures the allowed store fields for mutation. Nil fields
// are left untouched.
type UpdateStoreInput struct {
	Name *string
	Slug *string
}

// storeWithCount is the row shape of the list query.
type storeWithCount struct {
	models.Store
	ProductCount int64 `gorm:"column:product_count"`
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:        m.ID.String(),
		Name:      m.Name,
		Slug:      m.Slug,
		CreatedAt: types.FormatTimestamp(m.CreatedAt),
		UpdatedAt: types.FormatTimestamp(m.UpdatedAt),
	}
}

func summaryFromRow(row storeWithCount) StoreSummaryDTO {
	return StoreSummaryDTO{
		StoreDTO:     *FromModel(&row.Store),
		ProductCount: row.ProductCount,
	}
}
