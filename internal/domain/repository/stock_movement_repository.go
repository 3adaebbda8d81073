package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// MovementFilter filtros para listar movimientos.
type MovementFilter struct {
	ProductID *int64
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
	Ascending bool // por fecha; por defecto más recientes primero
}

// StockMovementRepository es el libro de movimientos: solo búsquedas por identidad y escritura de filas.
// Los errores de "no existe" son domain.ErrMovementNotFound.
type StockMovementRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.StockMovement, error)
	// GetForUpdate lee el movimiento y bloquea su fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.StockMovement, error)
	// Create inserta la fila y asigna ID.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// Replace reemplaza todos los campos mutables de la fila movement.ID.
	Replace(ctx context.Context, movement *entity.StockMovement) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
}

// StockAuditRepository calcula, por producto, el stock almacenado contra la suma firmada del libro.
type StockAuditRepository interface {
	Balances(ctx context.Context) ([]entity.StockBalance, error)
}
