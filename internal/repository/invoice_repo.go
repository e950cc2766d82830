package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	AddItemTx(tx *gorm.DB, item *model.InvoiceItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*model.Invoice, error)
	FindByClientID(ctx context.Context, clientID uuid.UUID) ([]model.Invoice, error)
	FindByDateRange(ctx context.Context, from, to time.Time) ([]model.Invoice, error)

	// FindOverdue returns pending invoices whose due date is before now.
	FindOverdue(ctx context.Context, now time.Time) ([]model.Invoice, error)

	Update(ctx context.Context, inv *model.Invoice) error

	// NextInvoiceNumber issues "INV-YYYY-NNNNNN" inside the caller's
	// transaction, counting the current year's invoices under lock.
	NextInvoiceNumber(tx *gorm.DB, now time.Time) (string, error)

	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

func (r *invoiceRepo) AddItemTx(tx *gorm.DB, item *model.InvoiceItem) error {
	return tx.Create(item).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").Preload("Client").
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) FindByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").Preload("Client").
		First(&inv, "invoice_number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepo) FindByClientID(ctx context.Context, clientID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").
		Where("client_id = ?", clientID).
		Order("issue_date DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindByDateRange(ctx context.Context, from, to time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").
		Where("issue_date >= ? AND issue_date < ?", from, to).
		Order("issue_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindOverdue(ctx context.Context, now time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).Preload("Client").
		Where("status = ? AND due_date < ?", model.InvoicePending, now).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) Update(ctx context.Context, inv *model.Invoice) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *invoiceRepo) NextInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	year := now.UTC().Year()
	var count int64
	err := tx.Model(&model.Invoice{}).
		Where("invoice_number LIKE ?", fmt.Sprintf("INV-%d-%%", year)).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%06d", year, count+1), nil
}
