package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
// CurrentStock es un contador corrido: solo lo modifica el motor de movimientos de stock.
type Product struct {
	ID             int64
	Name           string
	Description    string
	Unit           string          // unidad de medida (kg, und, caja...)
	PriceUnit      decimal.Decimal // precio unitario (opcional, cero si no aplica)
	CurrentStock   int64           // siempre >= 0 y igual a la suma firmada de sus movimientos
	AlertThreshold int64           // umbral de alerta de stock bajo
	CategoryID     *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BelowThreshold indica si el stock actual está en o por debajo del umbral de alerta.
func (p *Product) BelowThreshold() bool {
	return p.AlertThreshold > 0 && p.CurrentStock <= p.AlertThreshold
}
