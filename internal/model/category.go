package model

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies products (medication, food, supplies, ...).
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description *string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's default pluralization.
func (Category) TableName() string { return "categories" }
