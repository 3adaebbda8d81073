package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// InitialStock > 0 se registra como movimiento IN de ajuste de inventario.
type CreateProductRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=200"`
	Description    string          `json:"description" validate:"max=2000"`
	Unit           string          `json:"unit" validate:"required,min=1,max=50"`
	PriceUnit      decimal.Decimal `json:"price_unit"`
	InitialStock   int64           `json:"initial_stock" validate:"min=0,max=1000000000"`
	AlertThreshold int64           `json:"alert_threshold" validate:"min=0"`
	CategoryID     *int64          `json:"category_id" validate:"omitempty,gt=0"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock: se maneja vía movimientos).
type UpdateProductRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string          `json:"description" validate:"omitempty,max=2000"`
	Unit           *string          `json:"unit" validate:"omitempty,min=1,max=50"`
	PriceUnit      *decimal.Decimal `json:"price_unit"`
	AlertThreshold *int64           `json:"alert_threshold" validate:"omitempty,min=0"`
	CategoryID     *int64           `json:"category_id" validate:"omitempty,gt=0"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Unit           string          `json:"unit"`
	PriceUnit      decimal.Decimal `json:"price_unit"`
	CurrentStock   int64           `json:"current_stock"`
	AlertThreshold int64           `json:"alert_threshold"`
	LowStock       bool            `json:"low_stock"`
	CategoryID     *int64          `json:"category_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
