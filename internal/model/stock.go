package model

import (
	"time"

	"github.com/google/uuid"
)

// StockLot is one physical batch of a product, tracked separately from other
// lots of the same product by (batch number, location, expiration date).
// Invariants held at all times:
//
//	CurrentQuantity >= 0
//	0 <= ReservedQuantity <= CurrentQuantity
type StockLot struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index"`
	CurrentQuantity  int       `gorm:"not null;default:0"`
	ReservedQuantity int       `gorm:"not null;default:0"`
	// ExpirationDate nil means the lot never expires; it sorts after every
	// dated lot when consuming.
	ExpirationDate *time.Time `gorm:"type:date;index"`
	BatchNumber    *string
	Location       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization (stock_lots, not stock_lot).
func (StockLot) TableName() string { return "stock_lots" }

// Available is the quantity not held by a reservation.
func (l *StockLot) Available() int {
	return l.CurrentQuantity - l.ReservedQuantity
}

// Expired reports whether the lot's expiration date has passed.
func (l *StockLot) Expired(now time.Time) bool {
	return l.ExpirationDate != nil && now.After(*l.ExpirationDate)
}

// MatchesKey reports whether the lot has exactly the given
// (batch, location, expiration) identity, used to merge inbound stock.
func (l *StockLot) MatchesKey(batch, location *string, expiration *time.Time) bool {
	return equalStringPtr(l.BatchNumber, batch) &&
		equalStringPtr(l.Location, location) &&
		equalDatePtr(l.ExpirationDate, expiration)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// StockMovementType is the closed set of ledger entry kinds. Inbound types
// (purchase, return) carry positive quantities, outbound types (sale, expired,
// damaged) negative ones; adjustment keeps whatever sign the difference has.
type StockMovementType string

const (
	MovementPurchase   StockMovementType = "purchase"
	MovementSale       StockMovementType = "sale"
	MovementAdjustment StockMovementType = "adjustment"
	MovementReturn     StockMovementType = "return"
	MovementExpired    StockMovementType = "expired"
	MovementDamaged    StockMovementType = "damaged"
)

// Inbound reports whether this movement type adds stock.
func (t StockMovementType) Inbound() bool {
	return t == MovementPurchase || t == MovementReturn
}

// Outbound reports whether this movement type removes stock.
func (t StockMovementType) Outbound() bool {
	return t == MovementSale || t == MovementExpired || t == MovementDamaged
}

// NormalizeQuantity forces the sign a movement of this type must carry,
// regardless of what the caller passed in. Adjustments are left untouched —
// their sign IS the information.
func (t StockMovementType) NormalizeQuantity(quantity int) int {
	abs := quantity
	if abs < 0 {
		abs = -abs
	}
	switch {
	case t.Inbound():
		return abs
	case t.Outbound():
		return -abs
	default:
		return quantity
	}
}

// StockMovement is an immutable entry in the per-product stock ledger.
// Movements are NEVER modified or deleted — corrections create new entries.
type StockMovement struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Type      StockMovementType `gorm:"type:varchar(20);not null"`
	// Quantity is signed: positive inbound, negative outbound.
	Quantity      int     `gorm:"not null"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid"`
	ReferenceType *string
	Notes         *string
	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
