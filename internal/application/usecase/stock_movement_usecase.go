package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StockMovementUseCase traduce los DTOs HTTP a operaciones del motor de conciliación.
type StockMovementUseCase struct {
	engine    *inventory.MovementEngine
	reconcile *inventory.ReconcileUseCase
}

// NewStockMovementUseCase construye el caso de uso.
func NewStockMovementUseCase(engine *inventory.MovementEngine, reconcile *inventory.ReconcileUseCase) *StockMovementUseCase {
	return &StockMovementUseCase{engine: engine, reconcile: reconcile}
}

// Create registra un movimiento a nombre de actorID.
func (uc *StockMovementUseCase) Create(ctx context.Context, actorID int64, in dto.CreateStockMovementRequest) (*dto.StockMovementResponse, error) {
	m, err := uc.engine.Create(ctx, inventory.CreateMovementInput{
		ProductID:    in.ProductID,
		MovementType: entity.MovementType(in.MovementType),
		Quantity:     in.Quantity,
		Source:       entity.MovementSource(in.Source),
		Reason:       in.Reason,
		Date:         in.Date,
		CreatedBy:    actorID,
	})
	if err != nil {
		return nil, err
	}
	return toStockMovementResponse(m), nil
}

// Update modifica un movimiento; los campos nil conservan su valor.
func (uc *StockMovementUseCase) Update(ctx context.Context, id int64, in dto.UpdateStockMovementRequest) (*dto.StockMovementResponse, error) {
	patch := inventory.MovementPatch{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		Date:      in.Date,
	}
	if in.MovementType != nil {
		t := entity.MovementType(*in.MovementType)
		patch.MovementType = &t
	}
	if in.Source != nil {
		s := entity.MovementSource(*in.Source)
		patch.Source = &s
	}
	m, err := uc.engine.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return toStockMovementResponse(m), nil
}

// Delete elimina un movimiento y revierte su efecto.
func (uc *StockMovementUseCase) Delete(ctx context.Context, id int64) error {
	return uc.engine.Delete(ctx, id)
}

// GetByID obtiene un movimiento.
func (uc *StockMovementUseCase) GetByID(ctx context.Context, id int64) (*dto.StockMovementResponse, error) {
	m, err := uc.engine.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStockMovementResponse(m), nil
}

// List lista movimientos (más recientes primero) con filtros opcionales.
func (uc *StockMovementUseCase) List(ctx context.Context, q dto.StockMovementListQuery) (*dto.StockMovementListResponse, error) {
	q.DefaultPage()
	filter := repository.MovementFilter{Limit: q.Limit, Offset: q.Offset}
	if q.ProductID > 0 {
		pid := q.ProductID
		filter.ProductID = &pid
	}
	var err error
	if filter.From, err = parseDate(q.From, false); err != nil {
		return nil, err
	}
	if filter.To, err = parseDate(q.To, true); err != nil {
		return nil, err
	}
	list, err := uc.engine.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toStockMovementResponse(m))
	}
	return &dto.StockMovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}, nil
}

// Reconcile ejecuta la verificación contador vs libro.
func (uc *StockMovementUseCase) Reconcile(ctx context.Context) (*dto.ReconciliationResponse, error) {
	report, err := uc.reconcile.Check(ctx)
	if err != nil {
		return nil, err
	}
	drifts := make([]dto.StockDriftDTO, 0, len(report.Drifts))
	for _, b := range report.Drifts {
		drifts = append(drifts, dto.StockDriftDTO{
			ProductID:   b.ProductID,
			ProductName: b.ProductName,
			StoredStock: b.StoredStock,
			LedgerStock: b.LedgerStock,
			Drift:       b.Drift(),
		})
	}
	return &dto.ReconciliationResponse{
		RunID:      report.RunID,
		CheckedAt:  report.CheckedAt,
		Products:   report.Products,
		Consistent: report.Consistent(),
		Drifts:     drifts,
	}, nil
}

// parseDate acepta RFC3339 o YYYY-MM-DD; con endOfDay un día simple cubre hasta las 23:59:59.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q", domain.ErrInvalidInput, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func toStockMovementResponse(m *entity.StockMovement) *dto.StockMovementResponse {
	return &dto.StockMovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		ProductName:  m.ProductName,
		MovementType: string(m.MovementType),
		Quantity:     m.Quantity,
		Source:       string(m.Source),
		Reason:       m.Reason,
		Date:         m.Date,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
