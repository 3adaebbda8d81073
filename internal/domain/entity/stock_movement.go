package entity

import "time"

// MovementType tipo de movimiento de stock.
type MovementType string

// Tipos de movimiento.
const (
	MovementTypeIN  MovementType = "IN"  // entrada
	MovementTypeOUT MovementType = "OUT" // salida
)

// Valid indica si el tipo es IN u OUT.
func (t MovementType) Valid() bool {
	return t == MovementTypeIN || t == MovementTypeOUT
}

// SignedEffect devuelve +quantity para IN y -quantity para OUT (0 si el tipo es inválido).
func (t MovementType) SignedEffect(quantity int64) int64 {
	switch t {
	case MovementTypeIN:
		return quantity
	case MovementTypeOUT:
		return -quantity
	}
	return 0
}

// MovementSource origen de negocio del movimiento.
type MovementSource string

// Orígenes válidos.
const (
	SourcePurchase            MovementSource = "PURCHASE"
	SourceSale                MovementSource = "SALE"
	SourceLoss                MovementSource = "LOSS"
	SourceDonation            MovementSource = "DONATION"
	SourceInventoryAdjustment MovementSource = "INVENTORY_ADJUSTMENT"
	SourceCustomerReturn      MovementSource = "CUSTOMER_RETURN"
)

// Valid indica si el origen pertenece al catálogo.
func (s MovementSource) Valid() bool {
	switch s {
	case SourcePurchase, SourceSale, SourceLoss, SourceDonation,
		SourceInventoryAdjustment, SourceCustomerReturn:
		return true
	}
	return false
}

// StockMovement representa una fila del libro de movimientos (entrada o salida).
// Quantity siempre es positiva; el signo lo da MovementType.
type StockMovement struct {
	ID           int64
	ProductID    int64
	ProductName  string // solo lectura (listados)
	MovementType MovementType
	Quantity     int64
	Source       MovementSource
	Reason       string
	Date         time.Time // fecha informada por el llamador
	CreatedBy    int64     // usuario que lo registró; inmutable
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SignedEffect efecto firmado del movimiento sobre el stock del producto.
func (m *StockMovement) SignedEffect() int64 {
	return m.MovementType.SignedEffect(m.Quantity)
}

// StockBalance compara el contador almacenado de un producto con la suma de su libro.
type StockBalance struct {
	ProductID   int64
	ProductName string
	StoredStock int64
	LedgerStock int64
}

// Drift diferencia entre el contador y el libro (0 si están conciliados).
func (b StockBalance) Drift() int64 {
	return b.StoredStock - b.LedgerStock
}
