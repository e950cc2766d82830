package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus lifecycle: draft → pending → paid, with overdue derived from
// pending past its due date. Paid invoices cannot be cancelled and cancelled
// ones cannot be paid.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice bills a client, optionally tied to the appointment that produced it.
type Invoice struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`
	InvoiceNumber string     `gorm:"uniqueIndex;not null"`
	IssueDate     time.Time  `gorm:"not null"`
	DueDate       time.Time  `gorm:"not null"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;default:'draft'"`
	TaxPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Client *Client       `gorm:"foreignKey:ClientID"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

// Subtotal sums every item total (discounts applied, tax not).
func (i *Invoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for idx := range i.Items {
		sum = sum.Add(i.Items[idx].Total())
	}
	return sum
}

// TaxAmount applies the invoice-level tax percentage to the subtotal.
func (i *Invoice) TaxAmount() decimal.Decimal {
	return i.Subtotal().Mul(i.TaxPercentage).Div(decimal.NewFromInt(100))
}

// TotalAmount is subtotal plus tax.
func (i *Invoice) TotalAmount() decimal.Decimal {
	return i.Subtotal().Add(i.TaxAmount())
}

// IsOverdue reports whether a pending invoice has passed its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoicePending && now.After(i.DueDate)
}

// InvoiceItem is a billed line: a stocked product or a free-form service.
type InvoiceItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID *uuid.UUID `gorm:"type:uuid"`
	Description        string          `gorm:"not null"`
	Quantity           int             `gorm:"not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CreatedAt          time.Time
}

// Subtotal is quantity × unit price before discount.
func (it *InvoiceItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total applies the line discount to the subtotal.
func (it *InvoiceItem) Total() decimal.Decimal {
	discount := it.Subtotal().Mul(it.DiscountPercentage).Div(decimal.NewFromInt(100))
	return it.Subtotal().Sub(discount)
}
