package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

const salesWindow = 90 * 24 * time.Hour

// ReplenishmentUseCase genera la lista de reposición: productos en o bajo su umbral de alerta,
// priorizados por volumen de ventas reciente según el libro de movimientos.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	now         func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(productRepo repository.ProductRepository, movRepo repository.StockMovementRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{productRepo: productRepo, movRepo: movRepo, now: time.Now}
}

// GenerateReplenishmentList devuelve las sugerencias ordenadas (Priority 1 = más urgente).
// Productos sin umbral configurado (0) no participan.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	// 1. Productos bajo el umbral
	products, err := uc.productRepo.List(ctx, math.MaxInt32, 0)
	if err != nil {
		return nil, fmt.Errorf("reposición: listar productos: %w", err)
	}
	low := make([]*entity.Product, 0)
	for _, p := range products {
		if p.BelowThreshold() {
			low = append(low, p)
		}
	}
	if len(low) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// 2. Ventas por producto en la ventana reciente
	since := uc.now().Add(-salesWindow)
	recent, err := uc.movRepo.List(ctx, repository.MovementFilter{From: &since, Limit: math.MaxInt32})
	if err != nil {
		return nil, fmt.Errorf("reposición: listar movimientos: %w", err)
	}
	sold := make(map[int64]int64)
	for _, m := range recent {
		if m.MovementType == entity.MovementTypeOUT && m.Source == entity.SourceSale {
			sold[m.ProductID] += m.Quantity
		}
	}

	// 3. Sugerencias
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(low))
	for _, p := range low {
		ideal := (p.AlertThreshold*3 + 1) / 2
		qty := ideal - p.CurrentStock
		if qty < 0 {
			qty = 0
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:           p.ID,
			ProductName:         p.Name,
			Unit:                p.Unit,
			CurrentStock:        p.CurrentStock,
			AlertThreshold:      p.AlertThreshold,
			IdealStock:          ideal,
			SuggestedOrderQty:   qty,
			PriceUnit:           p.PriceUnit,
			EstimatedOrderCost:  p.PriceUnit.Mul(decimal.NewFromInt(qty)),
			UnitsSoldLast90Days: sold[p.ID],
		})
	}

	// 4. Mayor venta reciente primero, luego mayor déficit bajo el umbral
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.UnitsSoldLast90Days != b.UnitsSoldLast90Days {
			return a.UnitsSoldLast90Days > b.UnitsSoldLast90Days
		}
		defA := a.AlertThreshold - a.CurrentStock
		defB := b.AlertThreshold - b.CurrentStock
		if defA != defB {
			return defA > defB
		}
		return a.ProductID < b.ProductID
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
