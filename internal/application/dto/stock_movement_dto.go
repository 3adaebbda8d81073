package dto

import "time"

// CreateStockMovementRequest body para POST /api/stock-movements.
type CreateStockMovementRequest struct {
	ProductID    int64     `json:"product_id" validate:"required,gt=0"`
	MovementType string    `json:"movement_type" validate:"required,oneof=IN OUT"`
	Quantity     int64     `json:"quantity" validate:"required,gt=0,max=1000000000"`
	Source       string    `json:"source" validate:"required,oneof=PURCHASE SALE LOSS DONATION INVENTORY_ADJUSTMENT CUSTOMER_RETURN"`
	Reason       string    `json:"reason" validate:"max=500"`
	Date         time.Time `json:"date" validate:"required"`
}

// UpdateStockMovementRequest body para PUT /api/stock-movements/:id; los campos ausentes se conservan.
type UpdateStockMovementRequest struct {
	ProductID    *int64     `json:"product_id" validate:"omitempty,gt=0"`
	MovementType *string    `json:"movement_type" validate:"omitempty,oneof=IN OUT"`
	Quantity     *int64     `json:"quantity" validate:"omitempty,gt=0,max=1000000000"`
	Source       *string    `json:"source" validate:"omitempty,oneof=PURCHASE SALE LOSS DONATION INVENTORY_ADJUSTMENT CUSTOMER_RETURN"`
	Reason       *string    `json:"reason" validate:"omitempty,max=500"`
	Date         *time.Time `json:"date"`
}

// StockMovementListQuery filtros de GET /api/stock-movements.
type StockMovementListQuery struct {
	PageRequest
	ProductID int64  `query:"product_id" validate:"min=0"`
	From      string `query:"from"` // RFC3339 o YYYY-MM-DD
	To        string `query:"to"`
}

// StockMovementResponse salida de un movimiento.
type StockMovementResponse struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	MovementType string    `json:"movement_type"`
	Quantity     int64     `json:"quantity"`
	Source       string    `json:"source"`
	Reason       string    `json:"reason"`
	Date         time.Time `json:"date"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StockMovementListResponse lista paginada de movimientos.
type StockMovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// StockDriftDTO un producto cuyo stock registrado no coincide con el libro.
type StockDriftDTO struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	StoredStock int64  `json:"stored_stock"`
	LedgerStock int64  `json:"ledger_stock"`
	Drift       int64  `json:"drift"`
}

// ReconciliationResponse resultado de GET /api/stock-movements/reconciliation.
type ReconciliationResponse struct {
	RunID      string          `json:"run_id"`
	CheckedAt  time.Time       `json:"checked_at"`
	Products   int             `json:"products"`
	Consistent bool            `json:"consistent"`
	Drifts     []StockDriftDTO `json:"drifts"`
}
