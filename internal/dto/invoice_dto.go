package dto

import "github.com/shopspring/decimal"

type InvoiceItemRequest struct {
	ProductID          *string         `json:"product_id"  validate:"omitempty,uuid"`
	Description        string          `json:"description" validate:"required,min=3"`
	Quantity           int             `json:"quantity"    validate:"required,gt=0"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

type CreateInvoiceRequest struct {
	ClientID      string  `json:"client_id"      validate:"required,uuid"`
	AppointmentID *string `json:"appointment_id" validate:"omitempty,uuid"`
	// DueDate in "2006-01-02"; defaults to 30 days after issue.
	DueDate       *string              `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	TaxPercentage decimal.Decimal      `json:"tax_percentage"`
	Notes         *string              `json:"notes"`
	Items         []InvoiceItemRequest `json:"items" validate:"dive"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft pending paid overdue cancelled"`
}

type InvoiceFilter struct {
	ClientID string `form:"client_id" validate:"omitempty,uuid"`
	Status   string `form:"status"`
	Page     int    `form:"page,default=1"  validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type InvoiceItemResponse struct {
	ID                 string          `json:"id"`
	ProductID          *string         `json:"product_id"`
	Description        string          `json:"description"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Total              decimal.Decimal `json:"total"`
}

type InvoiceResponse struct {
	ID            string  `json:"id"`
	ClientID      string  `json:"client_id"`
	ClientName    string  `json:"client_name,omitempty"`
	AppointmentID *string `json:"appointment_id"`
	InvoiceNumber string  `json:"invoice_number"`
	IssueDate     string  `json:"issue_date"`
	DueDate       string  `json:"due_date"`
	Status        string  `json:"status"`
	TaxPercentage decimal.Decimal       `json:"tax_percentage"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	TaxAmount     decimal.Decimal       `json:"tax_amount"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Notes         *string               `json:"notes"`
	Items         []InvoiceItemResponse `json:"items"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// RevenueReport summarizes billing over a date range.
type RevenueReport struct {
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalInvoices  int             `json:"total_invoices"`
	PaidInvoices   int             `json:"paid_invoices"`
	PendingCount   int             `json:"pending_invoices"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
}
