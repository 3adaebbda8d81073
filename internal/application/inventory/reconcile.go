package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// DriftReport resultado de una verificación contador vs libro.
type DriftReport struct {
	RunID     string
	CheckedAt time.Time
	Products  int
	Drifts    []entity.StockBalance
}

// Consistent indica que ningún producto presenta diferencia.
func (r *DriftReport) Consistent() bool { return len(r.Drifts) == 0 }

// ReconcileUseCase recalcula la suma firmada del libro por producto y la compara con el
// contador almacenado. Solo reporta; nunca corrige el stock.
type ReconcileUseCase struct {
	auditRepo repository.StockAuditRepository
	log       zerolog.Logger
}

// NewReconcileUseCase construye el caso de uso. log puede ser nil.
func NewReconcileUseCase(auditRepo repository.StockAuditRepository, log *zerolog.Logger) *ReconcileUseCase {
	uc := &ReconcileUseCase{auditRepo: auditRepo, log: zerolog.Nop()}
	if log != nil {
		uc.log = log.With().Str("component", "stock_reconcile").Logger()
	}
	return uc
}

// Check ejecuta la verificación completa.
func (uc *ReconcileUseCase) Check(ctx context.Context) (*DriftReport, error) {
	balances, err := uc.auditRepo.Balances(ctx)
	if err != nil {
		return nil, fmt.Errorf("conciliación: leer balances: %w", err)
	}
	report := &DriftReport{
		RunID:     uuid.NewString(),
		CheckedAt: time.Now().UTC(),
		Products:  len(balances),
	}
	for _, b := range balances {
		if b.Drift() == 0 {
			continue
		}
		report.Drifts = append(report.Drifts, b)
		uc.log.Warn().
			Str("run_id", report.RunID).
			Int64("product_id", b.ProductID).
			Int64("stored", b.StoredStock).
			Int64("ledger", b.LedgerStock).
			Msg("stock desalineado con el libro de movimientos")
	}
	uc.log.Info().
		Str("run_id", report.RunID).
		Int("products", report.Products).
		Int("drifts", len(report.Drifts)).
		Msg("conciliación de stock finalizada")
	return report, nil
}
