package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository = (*StockMovementRepo)(nil)
	_ repository.StockAuditRepository    = (*StockMovementRepo)(nil)
)

// StockMovementRepo libro de movimientos en memoria. Con t == nil cada escritura es su propia transacción.
type StockMovementRepo struct {
	s *Store
	t *tx
}

// NewStockMovementRepository construye el repositorio fuera de transacción (lecturas y auditoría).
func NewStockMovementRepository(s *Store) *StockMovementRepo {
	return &StockMovementRepo{s: s}
}

// autocommit ejecuta fn en una transacción propia si el repo no está atado a una.
func (r *StockMovementRepo) autocommit(fn func(t *tx) error) error {
	if r.t != nil {
		return fn(r.t)
	}
	t := r.s.begin()
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(_ context.Context, id int64) (*entity.StockMovement, error) {
	m, ok := r.s.readMovement(r.t, id)
	if !ok {
		return nil, domain.ErrMovementNotFound
	}
	m.ProductName = r.s.productName(m.ProductID)
	return &m, nil
}

// GetForUpdate toma el candado de la fila del movimiento y lo lee.
func (r *StockMovementRepo) GetForUpdate(ctx context.Context, id int64) (*entity.StockMovement, error) {
	if r.t == nil {
		return r.GetByID(ctx, id)
	}
	r.t.lock(movementKey(id))
	return r.GetByID(ctx, id)
}

// Create asigna ID y deja la fila pendiente.
func (r *StockMovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	return r.autocommit(func(t *tx) error {
		if _, ok := r.s.readStock(t, movement.ProductID); !ok {
			return domain.ErrProductNotFound
		}
		movement.ID = r.s.nextMovementID()
		row := *movement
		row.ProductName = ""
		t.upserts[row.ID] = row
		return nil
	})
}

// Replace reemplaza los campos mutables; CreatedBy y CreatedAt se conservan.
func (r *StockMovementRepo) Replace(_ context.Context, movement *entity.StockMovement) error {
	return r.autocommit(func(t *tx) error {
		prev, ok := r.s.readMovement(t, movement.ID)
		if !ok {
			return domain.ErrMovementNotFound
		}
		row := *movement
		row.ProductName = ""
		row.CreatedBy = prev.CreatedBy
		row.CreatedAt = prev.CreatedAt
		t.upserts[row.ID] = row
		return nil
	})
}

// Delete marca la fila para eliminación.
func (r *StockMovementRepo) Delete(_ context.Context, id int64) error {
	return r.autocommit(func(t *tx) error {
		if _, ok := r.s.readMovement(t, id); !ok {
			return domain.ErrMovementNotFound
		}
		delete(t.upserts, id)
		t.deletes[id] = true
		return nil
	})
}

// List filtra por producto y rango de fechas, ordenado por fecha.
func (r *StockMovementRepo) List(_ context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	all := r.s.snapshotMovements(r.t)
	matched := make([]*entity.StockMovement, 0, len(all))
	for i := range all {
		m := all[i]
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.From != nil && m.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.Date.After(*filter.To) {
			continue
		}
		m.ProductName = r.s.productName(m.ProductID)
		matched = append(matched, &m)
	}
	sortByDate(matched, filter.Ascending)
	return paginate(matched, filter.Limit, filter.Offset), nil
}

// Balances suma el libro por producto y lo compara con el contador (misma vista consistente).
func (r *StockMovementRepo) Balances(_ context.Context) ([]entity.StockBalance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sums := make(map[int64]int64, len(r.s.products))
	for _, m := range r.s.movements {
		sums[m.ProductID] += m.SignedEffect()
	}
	out := make([]entity.StockBalance, 0, len(r.s.products))
	for id, p := range r.s.products {
		out = append(out, entity.StockBalance{
			ProductID:   id,
			ProductName: p.Name,
			StoredStock: p.CurrentStock,
			LedgerStock: sums[id],
		})
	}
	sortBalances(out)
	return out, nil
}
