package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo contador de stock por producto, atado a una transacción.
type StockRepo struct {
	s *Store
	t *tx
}

// GetStock lee el stock actual sin bloqueo.
func (r *StockRepo) GetStock(_ context.Context, productID int64) (int64, error) {
	v, ok := r.s.readStock(r.t, productID)
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return v, nil
}

// GetStockForUpdate toma el candado de la fila del producto y lee el stock.
func (r *StockRepo) GetStockForUpdate(ctx context.Context, productID int64) (int64, error) {
	r.t.lock(productKey(productID))
	return r.GetStock(ctx, productID)
}

// SetStock deja el nuevo valor pendiente hasta el Commit.
func (r *StockRepo) SetStock(_ context.Context, productID int64, value int64) error {
	if _, ok := r.s.readStock(r.t, productID); !ok {
		return domain.ErrProductNotFound
	}
	r.t.stock[productID] = value
	return nil
}
