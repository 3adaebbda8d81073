package inventory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// KardexLine una fila de la tarjeta de stock con el saldo corrido.
type KardexLine struct {
	MovementID int64
	Date       time.Time
	Source     entity.MovementSource
	Reason     string
	In         int64
	Out        int64
	Balance    int64
}

// KardexUseCase arma la tarjeta de stock de un producto (movimientos en orden cronológico).
type KardexUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
	generator   KardexGenerator
}

// NewKardexUseCase construye el caso de uso.
func NewKardexUseCase(productRepo repository.ProductRepository, movRepo repository.StockMovementRepository, generator KardexGenerator) *KardexUseCase {
	return &KardexUseCase{productRepo: productRepo, movRepo: movRepo, generator: generator}
}

// kardexSnapshotAttempts intentos de obtener producto y movimientos sin un commit en medio.
const kardexSnapshotAttempts = 3

// Lines devuelve el producto y sus líneas de kardex con saldo acumulado desde 0.
// Producto y movimientos se leen por separado: si el producto cambia entre ambas lecturas
// (un movimiento se confirmó en medio) se vuelve a leer todo.
func (uc *KardexUseCase) Lines(ctx context.Context, productID int64) (*entity.Product, []KardexLine, error) {
	var (
		product   *entity.Product
		movements []*entity.StockMovement
	)
	for attempt := 0; attempt < kardexSnapshotAttempts; attempt++ {
		before, err := uc.productRepo.GetByID(ctx, productID)
		if err != nil {
			return nil, nil, err
		}
		movements, err = uc.movRepo.List(ctx, repository.MovementFilter{
			ProductID: &productID,
			Limit:     math.MaxInt32,
			Ascending: true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("kardex: listar movimientos: %w", err)
		}
		product, err = uc.productRepo.GetByID(ctx, productID)
		if err != nil {
			return nil, nil, err
		}
		if product.CurrentStock == before.CurrentStock && product.UpdatedAt.Equal(before.UpdatedAt) {
			break
		}
	}

	lines := make([]KardexLine, 0, len(movements))
	var balance int64
	for _, m := range movements {
		balance += m.SignedEffect()
		line := KardexLine{
			MovementID: m.ID,
			Date:       m.Date,
			Source:     m.Source,
			Reason:     m.Reason,
			Balance:    balance,
		}
		if m.MovementType == entity.MovementTypeIN {
			line.In = m.Quantity
		} else {
			line.Out = m.Quantity
		}
		lines = append(lines, line)
	}
	return product, lines, nil
}

// DownloadPDF genera el PDF del kardex y un nombre de archivo sugerido.
func (uc *KardexUseCase) DownloadPDF(ctx context.Context, productID int64) ([]byte, string, error) {
	product, lines, err := uc.Lines(ctx, productID)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.generator.GenerateKardexPDF(ctx, product, lines)
	if err != nil {
		return nil, "", err
	}
	return pdf, fmt.Sprintf("kardex-%d.pdf", product.ID), nil
}
