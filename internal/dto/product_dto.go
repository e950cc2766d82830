package dto

import "github.com/shopspring/decimal"

// ─── Products ────────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	SKU         string  `json:"sku"         validate:"required,min=3,max=40"`
	Name        string  `json:"name"        validate:"required,min=2,max=120"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	Type        string  `json:"type"        validate:"required,oneof=medication supply equipment service food accessory"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	CostPrice   decimal.Decimal `json:"cost_price" validate:"required"`
	MinimumStock       int  `json:"minimum_stock"       validate:"min=0"`
	ReorderPoint       int  `json:"reorder_point"       validate:"min=0"`
	ExpirationTracking bool `json:"expiration_tracking"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=2,max=120"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	MinimumStock       *int  `json:"minimum_stock" validate:"omitempty,min=0"`
	ReorderPoint       *int  `json:"reorder_point" validate:"omitempty,min=0"`
	ExpirationTracking *bool `json:"expiration_tracking"`
}

type ProductFilter struct {
	SKU        string `form:"sku"`
	Name       string `form:"name"`
	CategoryID string `form:"category_id" validate:"omitempty,uuid"`
	Type       string `form:"type"`
	Active     string `form:"active"`
	Page       int    `form:"page,default=1"  validate:"min=1"`
	Limit      int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type ProductResponse struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
	Type        string  `json:"type"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	MinimumStock       int  `json:"minimum_stock"`
	ReorderPoint       int  `json:"reorder_point"`
	ExpirationTracking bool `json:"expiration_tracking"`
	Active             bool `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Categories ──────────────────────────────────────────────────────────────

type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=80"`
	Description *string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=80"`
	Description *string `json:"description"`
}

type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Active      bool    `json:"active"`
}
