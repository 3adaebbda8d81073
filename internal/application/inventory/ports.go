package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad para el motor de stock.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// CycleLocker obtiene un candado distribuido de corta vida (una réplica por ciclo).
// acquired=false sin error significa que otra réplica ya tiene el candado.
type CycleLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// KardexGenerator genera la tarjeta de stock (kardex) de un producto en PDF.
type KardexGenerator interface {
	GenerateKardexPDF(ctx context.Context, product *entity.Product, lines []KardexLine) ([]byte, error)
}
