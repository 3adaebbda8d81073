package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo contador products.current_stock (usar con tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar una tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// GetStock obtiene el stock actual de un producto.
func (r *StockRepo) GetStock(ctx context.Context, productID int64) (int64, error) {
	return r.get(ctx, `SELECT current_stock FROM products WHERE id = $1`, productID)
}

// GetStockForUpdate obtiene el stock y bloquea la fila del producto (SELECT FOR UPDATE).
func (r *StockRepo) GetStockForUpdate(ctx context.Context, productID int64) (int64, error) {
	return r.get(ctx, `SELECT current_stock FROM products WHERE id = $1 FOR UPDATE`, productID)
}

func (r *StockRepo) get(ctx context.Context, query string, productID int64) (int64, error) {
	var stock int64
	err := r.q.QueryRow(ctx, query, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, fmt.Errorf("get stock: %w", err)
	}
	return stock, nil
}

// SetStock escribe el contador.
func (r *StockRepo) SetStock(ctx context.Context, productID int64, value int64) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET current_stock = $2, updated_at = now() WHERE id = $1`,
		productID, value,
	)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
