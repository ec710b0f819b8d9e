package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is a retail location that owns inventory rows. Slugs are unique among
// live stores only; see the partial index in the migrations.
type Store struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;size:100;not null;index:idx_stores_name"`
	Slug      string     `gorm:"column:slug;size:100;not null;uniqueIndex:idx_stores_slug_live,where:deleted_at IS NULL"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index:idx_stores_deleted_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Store) TableName() string { return "stores" }

func (s *Store) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
