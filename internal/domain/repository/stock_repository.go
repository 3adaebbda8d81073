package repository

import "context"

// StockRepository es el Product Store: lee y escribe el contador de stock de un producto.
// Solo se obtiene atado a una transacción (ver inventory.TxRunner).
type StockRepository interface {
	// GetStock lee el stock actual sin bloqueo.
	GetStock(ctx context.Context, productID int64) (int64, error)
	// GetStockForUpdate lee el stock y bloquea la fila del producto hasta el fin de la transacción.
	GetStockForUpdate(ctx context.Context, productID int64) (int64, error)
	// SetStock escribe el nuevo valor. El llamador garantiza value >= 0.
	SetStock(ctx context.Context, productID int64, value int64) error
}
