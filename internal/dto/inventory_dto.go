package dto

// ─── Inbound / outbound stock ────────────────────────────────────────────────

type ReceiveStockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0"`
	// ExpirationDate in "2006-01-02"; omit for non-perishable lots.
	ExpirationDate *string `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	BatchNumber    *string `json:"batch_number"`
	Location       *string `json:"location"`
	// MovementType defaults to "purchase"; "return" is the other inbound kind.
	MovementType  *string `json:"movement_type" validate:"omitempty,oneof=purchase return"`
	ReferenceID   *string `json:"reference_id"  validate:"omitempty,uuid"`
	ReferenceType *string `json:"reference_type"`
	Notes         *string `json:"notes"`
}

type ConsumeStockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0"`
	// MovementType defaults to "sale".
	MovementType  *string `json:"movement_type" validate:"omitempty,oneof=sale expired damaged"`
	ReferenceID   *string `json:"reference_id"  validate:"omitempty,uuid"`
	ReferenceType *string `json:"reference_type"`
	Notes         *string `json:"notes"`
}

type ReservationRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0"`
}

type AdjustStockRequest struct {
	ProductID        string `json:"product_id"         validate:"required,uuid"`
	NewTotalQuantity int    `json:"new_total_quantity" validate:"min=0"`
	Reason           string `json:"reason"             validate:"required,min=3"`
}

// ─── Responses ───────────────────────────────────────────────────────────────

type StockLotResponse struct {
	ID               string  `json:"id"`
	ProductID        string  `json:"product_id"`
	CurrentQuantity  int     `json:"current_quantity"`
	ReservedQuantity int     `json:"reserved_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	ExpirationDate   *string `json:"expiration_date"`
	BatchNumber      *string `json:"batch_number"`
	Location         *string `json:"location"`
}

type ProductStockResponse struct {
	ProductID      string             `json:"product_id"`
	TotalQuantity  int                `json:"total_quantity"`
	TotalReserved  int                `json:"total_reserved"`
	TotalAvailable int                `json:"total_available"`
	Lots           []StockLotResponse `json:"lots"`
}

type StockMovementResponse struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name,omitempty"`
	Type          string  `json:"type"`
	Quantity      int     `json:"quantity"`
	ReferenceID   *string `json:"reference_id"`
	ReferenceType *string `json:"reference_type"`
	Notes         *string `json:"notes"`
	CreatedAt     string  `json:"created_at"`
}

type MovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type MovementFilter struct {
	ProductID string `form:"product_id" validate:"omitempty,uuid"`
	Type      string `form:"type"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=100" validate:"min=1,max=500"`
}

// LowStockAlert flags products at or below their minimum stock.
// Level: "critical" when total is zero, otherwise "warning".
type LowStockAlert struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	MinimumStock int    `json:"minimum_stock"`
	ReorderPoint int    `json:"reorder_point"`
	Level        string `json:"level"`
}

// ExpirationAlert flags lots expiring within the queried window.
// Level: "critical" when ≤ 7 days out, otherwise "warning".
type ExpirationAlert struct {
	ProductID        string `json:"product_id"`
	ProductName      string `json:"product_name"`
	LotID            string `json:"lot_id"`
	BatchNumber      *string `json:"batch_number"`
	ExpirationDate   string `json:"expiration_date"`
	DaysToExpiration int    `json:"days_to_expiration"`
	Quantity         int    `json:"quantity"`
	Level            string `json:"level"`
}
