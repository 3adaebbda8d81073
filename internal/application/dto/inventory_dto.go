package dto

import "github.com/shopspring/decimal"

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto en o bajo su umbral de alerta.
type ReplenishmentSuggestionDTO struct {
	ProductID           int64           `json:"product_id"`
	ProductName         string          `json:"product_name"`
	Unit                string          `json:"unit"`
	CurrentStock        int64           `json:"current_stock"`
	AlertThreshold      int64           `json:"alert_threshold"`
	IdealStock          int64           `json:"ideal_stock"`         // AlertThreshold * 1.5, redondeado hacia arriba
	SuggestedOrderQty   int64           `json:"suggested_order_qty"` // IdealStock - CurrentStock
	PriceUnit           decimal.Decimal `json:"price_unit"`
	EstimatedOrderCost  decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * PriceUnit
	UnitsSoldLast90Days int64           `json:"units_sold_last_90d"`  // salidas SALE del libro
	Priority            int             `json:"priority"`             // 1 = más urgente
}
