package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType distinguishes physical stock from billable services.
type ProductType string

const (
	ProductMedication ProductType = "medication"
	ProductSupply     ProductType = "supply"
	ProductEquipment  ProductType = "equipment"
	ProductService    ProductType = "service"
	ProductFood       ProductType = "food"
	ProductAccessory  ProductType = "accessory"
)

// Product is anything the clinic sells or dispenses. Physical products are
// tracked per lot in StockLot; services carry no stock.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU         string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	Type        ProductType     `gorm:"type:varchar(20);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// MinimumStock triggers a low-stock alert when the summed lot total drops
	// to or below it.
	MinimumStock int  `gorm:"not null;default:0"`
	ReorderPoint int  `gorm:"not null;default:0"`
	// ExpirationTracking marks perishables whose lots carry expiration dates.
	ExpirationTracking bool `gorm:"not null;default:false"`
	Active             bool `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}
