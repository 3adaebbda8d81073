package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 20 * time.Millisecond
)

// EngineOptions parámetros del motor. Los valores cero toman los defaults.
type EngineOptions struct {
	MaxRetries   int           // reintentos ante domain.ErrTransactionConflict (además del primer intento)
	RetryBackoff time.Duration // espera lineal: intento * RetryBackoff
	Logger       *zerolog.Logger
	Now          func() time.Time
}

// MovementEngine es el motor de conciliación: toda mutación del stock de un producto pasa por aquí.
// Cada operación bloquea la fila del movimiento (update/delete) y la del producto, calcula el nuevo
// stock y escribe contador + libro en una sola transacción, o no escribe nada.
type MovementEngine struct {
	txRunner   TxRunner
	movRepo    repository.StockMovementRepository
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// NewMovementEngine construye el motor. movRepo se usa solo para lecturas fuera de transacción.
func NewMovementEngine(txRunner TxRunner, movRepo repository.StockMovementRepository, opts EngineOptions) *MovementEngine {
	e := &MovementEngine{
		txRunner:   txRunner,
		movRepo:    movRepo,
		maxRetries: opts.MaxRetries,
		backoff:    opts.RetryBackoff,
		log:        zerolog.Nop(),
		now:        opts.Now,
	}
	if e.maxRetries <= 0 {
		e.maxRetries = defaultMaxRetries
	}
	if e.backoff <= 0 {
		e.backoff = defaultRetryBackoff
	}
	if opts.Logger != nil {
		e.log = opts.Logger.With().Str("component", "stock_engine").Logger()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// CreateMovementInput entrada ya validada para registrar un movimiento.
type CreateMovementInput struct {
	ProductID    int64
	MovementType entity.MovementType
	Quantity     int64
	Source       entity.MovementSource
	Reason       string
	Date         time.Time
	CreatedBy    int64
}

// MovementPatch campos a modificar de un movimiento; nil conserva el valor anterior.
type MovementPatch struct {
	ProductID    *int64
	MovementType *entity.MovementType
	Quantity     *int64
	Source       *entity.MovementSource
	Reason       *string
	Date         *time.Time
}

func (p MovementPatch) apply(m entity.StockMovement) entity.StockMovement {
	if p.ProductID != nil {
		m.ProductID = *p.ProductID
	}
	if p.MovementType != nil {
		m.MovementType = *p.MovementType
	}
	if p.Quantity != nil {
		m.Quantity = *p.Quantity
	}
	if p.Source != nil {
		m.Source = *p.Source
	}
	if p.Reason != nil {
		m.Reason = *p.Reason
	}
	if p.Date != nil {
		m.Date = *p.Date
	}
	return m
}

// Create registra un movimiento y ajusta el stock del producto en la misma transacción.
//
// Errores: ErrProductNotFound, ErrInvalidMovementType, ErrInvalidInput (cantidad, origen o desbordamiento),
// ErrNegativeStock, ErrTransactionConflict (tras agotar reintentos), ErrStorageFailure.
func (e *MovementEngine) Create(ctx context.Context, in CreateMovementInput) (*entity.StockMovement, error) {
	var created *entity.StockMovement
	err := e.withRetry(ctx, "create", func() error {
		created = nil
		return e.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, stockRepo repository.StockRepository) error {
			// Bloquea la fila del producto (SELECT FOR UPDATE) para evitar actualizaciones perdidas
			current, err := stockRepo.GetStockForUpdate(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if !in.MovementType.Valid() {
				return domain.ErrInvalidMovementType
			}
			if err := checkFields(in.Quantity, in.Source); err != nil {
				return err
			}
			newStock, err := addStock(current, in.MovementType.SignedEffect(in.Quantity))
			if err != nil {
				return err
			}
			if newStock < 0 {
				return domain.ErrNegativeStock
			}
			if err := stockRepo.SetStock(ctx, in.ProductID, newStock); err != nil {
				return err
			}
			now := e.now()
			mov := &entity.StockMovement{
				ProductID:    in.ProductID,
				MovementType: in.MovementType,
				Quantity:     in.Quantity,
				Source:       in.Source,
				Reason:       in.Reason,
				Date:         in.Date,
				CreatedBy:    in.CreatedBy,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := movRepo.Create(ctx, mov); err != nil {
				return err
			}
			created = mov
			e.log.Debug().
				Int64("product_id", in.ProductID).
				Int64("movement_id", mov.ID).
				Int64("stock", newStock).
				Msg("movimiento registrado")
			return nil
		})
	})
	if err != nil {
		e.logRejected("create", in.ProductID, 0, err)
		return nil, err
	}
	return created, nil
}

// Update deshace el efecto anterior del movimiento y aplica el nuevo, todo o nada.
// El deshacer se calcula sobre el stock actual (no se recalcula el historial), por lo que asume
// que el contador refleja exactamente una vez el movimiento anterior.
// Si el patch cambia de producto, se deshace en el producto viejo y se aplica en el nuevo.
func (e *MovementEngine) Update(ctx context.Context, id int64, patch MovementPatch) (*entity.StockMovement, error) {
	var updated *entity.StockMovement
	err := e.withRetry(ctx, "update", func() error {
		updated = nil
		return e.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, stockRepo repository.StockRepository) error {
			existing, err := movRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			merged := patch.apply(*existing)

			stocks, err := e.lockStocks(ctx, stockRepo, existing.ProductID, merged.ProductID)
			if err != nil {
				return err
			}

			// 1. Deshacer: el stock como si el movimiento nunca hubiera existido
			restored := stocks[existing.ProductID] - existing.SignedEffect()

			// 2. Rehacer con los campos nuevos
			if !merged.MovementType.Valid() {
				return domain.ErrInvalidMovementType
			}
			if err := checkFields(merged.Quantity, merged.Source); err != nil {
				return err
			}

			writes := map[int64]int64{}
			if merged.ProductID == existing.ProductID {
				if writes[existing.ProductID], err = addStock(restored, merged.SignedEffect()); err != nil {
					return err
				}
			} else {
				writes[existing.ProductID] = restored
				if writes[merged.ProductID], err = addStock(stocks[merged.ProductID], merged.SignedEffect()); err != nil {
					return err
				}
			}
			for _, v := range writes {
				if v < 0 {
					return domain.ErrNegativeStock
				}
			}

			// 3. Persistir stock(s) y fila del libro
			for _, pid := range sortedKeys(writes) {
				if err := stockRepo.SetStock(ctx, pid, writes[pid]); err != nil {
					return err
				}
			}
			merged.UpdatedAt = e.now()
			if err := movRepo.Replace(ctx, &merged); err != nil {
				return err
			}
			updated = &merged
			e.log.Debug().
				Int64("movement_id", id).
				Int64("product_id", merged.ProductID).
				Int64("stock", writes[merged.ProductID]).
				Msg("movimiento actualizado")
			return nil
		})
	})
	if err != nil {
		e.logRejected("update", 0, id, err)
		return nil, err
	}
	return updated, nil
}

// Delete anula el efecto del movimiento y elimina la fila. Se rechaza con ErrNegativeStock
// si quitar una entrada dejaría el stock registrado en negativo.
func (e *MovementEngine) Delete(ctx context.Context, id int64) error {
	err := e.withRetry(ctx, "delete", func() error {
		return e.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, stockRepo repository.StockRepository) error {
			mov, err := movRepo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			stocks, err := e.lockStocks(ctx, stockRepo, mov.ProductID)
			if err != nil {
				return err
			}
			restored := stocks[mov.ProductID] - mov.SignedEffect()
			if restored < 0 {
				return domain.ErrNegativeStock
			}
			if err := stockRepo.SetStock(ctx, mov.ProductID, restored); err != nil {
				return err
			}
			if err := movRepo.Delete(ctx, id); err != nil {
				return err
			}
			e.log.Debug().
				Int64("movement_id", id).
				Int64("product_id", mov.ProductID).
				Int64("stock", restored).
				Msg("movimiento eliminado")
			return nil
		})
	})
	if err != nil {
		e.logRejected("delete", 0, id, err)
	}
	return err
}

// Get obtiene un movimiento por ID.
func (e *MovementEngine) Get(ctx context.Context, id int64) (*entity.StockMovement, error) {
	return e.movRepo.GetByID(ctx, id)
}

// List lista movimientos según el filtro.
func (e *MovementEngine) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return e.movRepo.List(ctx, filter)
}

// lockStocks bloquea las filas de producto en orden ascendente de ID (evita deadlocks entre
// transacciones que tocan los mismos dos productos) y devuelve su stock actual.
func (e *MovementEngine) lockStocks(ctx context.Context, stockRepo repository.StockRepository, productIDs ...int64) (map[int64]int64, error) {
	ids := make([]int64, 0, len(productIDs))
	seen := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stocks := make(map[int64]int64, len(ids))
	for _, id := range ids {
		v, err := stockRepo.GetStockForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		stocks[id] = v
	}
	return stocks, nil
}

// withRetry repite fn solo ante ErrTransactionConflict, hasta maxRetries veces.
// ErrStorageFailure y los errores de entrada se devuelven sin reintentar.
func (e *MovementEngine) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrTransactionConflict) {
			return err
		}
		if attempt >= e.maxRetries {
			return err
		}
		e.log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("conflicto de transacción, reintentando")
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", err, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * e.backoff):
		}
	}
}

func (e *MovementEngine) logRejected(op string, productID, movementID int64, err error) {
	ev := e.log.Warn()
	if !domain.IsCallerError(err) && !errors.Is(err, domain.ErrMovementNotFound) {
		ev = e.log.Error()
	}
	if productID != 0 {
		ev = ev.Int64("product_id", productID)
	}
	if movementID != 0 {
		ev = ev.Int64("movement_id", movementID)
	}
	ev.Err(err).Str("op", op).Msg("operación de stock rechazada")
}

func checkFields(quantity int64, source entity.MovementSource) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	if !source.Valid() {
		return fmt.Errorf("%w: origen %q", domain.ErrInvalidInput, source)
	}
	return nil
}

// addStock suma el efecto al stock y rechaza el desbordamiento de int64 como entrada inválida.
func addStock(stock, effect int64) (int64, error) {
	if (effect > 0 && stock > math.MaxInt64-effect) || (effect < 0 && stock < math.MinInt64-effect) {
		return 0, fmt.Errorf("%w: el stock excede el máximo representable", domain.ErrInvalidInput)
	}
	return stock + effect, nil
}

func sortedKeys(m map[int64]int64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
