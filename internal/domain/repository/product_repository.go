package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// No expone escritura de CurrentStock: eso vive en StockRepository, solo dentro de transacción.
type ProductRepository interface {
	// Create persiste el producto con stock 0 y asigna ID.
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve domain.ErrProductNotFound si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// Update actualiza los datos descriptivos; ignora CurrentStock.
	Update(ctx context.Context, product *entity.Product) error
	// Delete elimina el producto y sus movimientos.
	Delete(ctx context.Context, id int64) error
}
