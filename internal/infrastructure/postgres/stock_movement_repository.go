package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository = (*StockMovementRepo)(nil)
	_ repository.StockAuditRepository    = (*StockMovementRepo)(nil)
)

const movementColumns = `m.id, m.product_id, p.name, m.movement_type, m.quantity, m.source,
	COALESCE(m.reason, ''), m.date, m.created_by, m.created_at, m.updated_at`

// StockMovementRepo libro stock_movements sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var movType, source string
	err := row.Scan(&m.ID, &m.ProductID, &m.ProductName, &movType, &m.Quantity, &source,
		&m.Reason, &m.Date, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.MovementType = entity.MovementType(movType)
	m.Source = entity.MovementSource(source)
	return &m, nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(ctx context.Context, id int64) (*entity.StockMovement, error) {
	return r.get(ctx, `SELECT `+movementColumns+`
		FROM stock_movements m JOIN products p ON p.id = m.product_id
		WHERE m.id = $1`, id)
}

// GetForUpdate obtiene el movimiento y bloquea su fila (solo la del movimiento, no la del producto).
func (r *StockMovementRepo) GetForUpdate(ctx context.Context, id int64) (*entity.StockMovement, error) {
	return r.get(ctx, `SELECT `+movementColumns+`
		FROM stock_movements m JOIN products p ON p.id = m.product_id
		WHERE m.id = $1
		FOR UPDATE OF m`, id)
}

func (r *StockMovementRepo) get(ctx context.Context, query string, id int64) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// Create persiste un movimiento y asigna su ID.
func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (product_id, movement_type, quantity, source, reason, date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		movement.ProductID, string(movement.MovementType), movement.Quantity, string(movement.Source),
		movement.Reason, movement.Date, movement.CreatedBy, movement.CreatedAt, movement.UpdatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// Replace actualiza todos los campos mutables. created_by/created_at no se tocan.
func (r *StockMovementRepo) Replace(ctx context.Context, movement *entity.StockMovement) error {
	query := `
		UPDATE stock_movements
		SET product_id = $2, movement_type = $3, quantity = $4, source = $5,
		    reason = NULLIF($6, ''), date = $7, updated_at = $8
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		movement.ID, movement.ProductID, string(movement.MovementType), movement.Quantity,
		string(movement.Source), movement.Reason, movement.Date, movement.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("replace stock movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// Delete elimina la fila.
func (r *StockMovementRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stock movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// List lista movimientos filtrados por producto y rango de fechas.
func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements m JOIN products p ON p.id = m.product_id
		WHERE TRUE`
	var args []any
	pos := 1
	if filter.ProductID != nil {
		query += fmt.Sprintf(" AND m.product_id = $%d", pos)
		args = append(args, *filter.ProductID)
		pos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND m.date >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND m.date <= $%d", pos)
		args = append(args, *filter.To)
		pos++
	}
	if filter.Ascending {
		query += " ORDER BY m.date ASC, m.id ASC"
	} else {
		query += " ORDER BY m.date DESC, m.id DESC"
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Balances compara products.current_stock con la suma firmada del libro, en una sola consulta.
func (r *StockMovementRepo) Balances(ctx context.Context) ([]entity.StockBalance, error) {
	query := `
		SELECT p.id, p.name, p.current_stock,
		       COALESCE(SUM(CASE WHEN m.movement_type = 'IN' THEN m.quantity ELSE -m.quantity END), 0)::bigint
		FROM products p
		LEFT JOIN stock_movements m ON m.product_id = p.id
		GROUP BY p.id, p.name, p.current_stock
		ORDER BY p.id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stock balances: %w", err)
	}
	defer rows.Close()
	var list []entity.StockBalance
	for rows.Next() {
		var b entity.StockBalance
		if err := rows.Scan(&b.ProductID, &b.ProductName, &b.StoredStock, &b.LedgerStock); err != nil {
			return nil, fmt.Errorf("scan stock balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
