package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// StockRecorder registra movimientos a través del motor de conciliación.
type StockRecorder interface {
	Create(ctx context.Context, in inventory.CreateMovementInput) (*entity.StockMovement, error)
}

// ProductUseCase casos de uso CRUD para productos. El stock se maneja vía movimientos.
type ProductUseCase struct {
	repo   repository.ProductRepository
	stock  StockRecorder
	log    zerolog.Logger
	nowUTC func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, stock StockRecorder, log zerolog.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, stock: stock, log: log, nowUTC: func() time.Time { return time.Now().UTC() }}
}

// Create crea un nuevo producto con stock 0. Si InitialStock > 0 se registra un movimiento
// IN / INVENTORY_ADJUSTMENT por esa cantidad, así el stock inicial queda en el libro.
// Si ese movimiento falla se elimina el producto recién creado.
func (uc *ProductUseCase) Create(ctx context.Context, actorID int64, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.InitialStock < 0 || in.AlertThreshold < 0 {
		return nil, fmt.Errorf("%w: stock inicial y umbral deben ser >= 0", domain.ErrInvalidInput)
	}
	if in.PriceUnit.IsNegative() {
		return nil, fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidInput)
	}
	product := &entity.Product{
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		Unit:           strings.TrimSpace(in.Unit),
		PriceUnit:      in.PriceUnit,
		AlertThreshold: in.AlertThreshold,
		CategoryID:     in.CategoryID,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	if in.InitialStock > 0 {
		_, err := uc.stock.Create(ctx, inventory.CreateMovementInput{
			ProductID:    product.ID,
			MovementType: entity.MovementTypeIN,
			Quantity:     in.InitialStock,
			Source:       entity.SourceInventoryAdjustment,
			Reason:       "Stock inicial",
			Date:         uc.nowUTC(),
			CreatedBy:    actorID,
		})
		if err != nil {
			if derr := uc.repo.Delete(ctx, product.ID); derr != nil {
				uc.log.Error().Err(derr).Int64("product_id", product.ID).Msg("eliminar producto tras fallar el stock inicial")
			}
			return nil, err
		}
		// releer: CurrentStock lo escribió el motor
		if product, err = uc.repo.GetByID(ctx, product.ID); err != nil {
			return nil, err
		}
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. No permite modificar el stock (se maneja vía movimientos).
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if in.Unit != nil {
		product.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.PriceUnit != nil {
		if in.PriceUnit.IsNegative() {
			return nil, fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidInput)
		}
		product.PriceUnit = *in.PriceUnit
	}
	if in.AlertThreshold != nil {
		if *in.AlertThreshold < 0 {
			return nil, fmt.Errorf("%w: umbral negativo", domain.ErrInvalidInput)
		}
		product.AlertThreshold = *in.AlertThreshold
	}
	if in.CategoryID != nil {
		product.CategoryID = in.CategoryID
	}
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Delete elimina un producto por ID junto con sus movimientos.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Unit:           p.Unit,
		PriceUnit:      p.PriceUnit,
		CurrentStock:   p.CurrentStock,
		AlertThreshold: p.AlertThreshold,
		LowStock:       p.BelowThreshold(),
		CategoryID:     p.CategoryID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
