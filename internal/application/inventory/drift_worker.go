package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const driftLockKey = "lock:stock-reconcile"

// DriftWorker ejecuta ReconcileUseCase.Check periódicamente.
// Con un CycleLocker configurado solo una réplica corre cada ciclo.
type DriftWorker struct {
	uc       *ReconcileUseCase
	locker   CycleLocker
	interval time.Duration
	log      zerolog.Logger
}

// NewDriftWorker construye el worker. locker puede ser nil (proceso único).
func NewDriftWorker(uc *ReconcileUseCase, locker CycleLocker, interval time.Duration, log zerolog.Logger) *DriftWorker {
	return &DriftWorker{uc: uc, locker: locker, interval: interval, log: log}
}

// Run bloquea hasta que ctx se cancele. interval <= 0 deshabilita el worker.
func (w *DriftWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info().Msg("verificación periódica de stock deshabilitada")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce ejecuta un ciclo. Devuelve false si el ciclo se omitió o falló.
func (w *DriftWorker) RunOnce(ctx context.Context) bool {
	if w.locker != nil {
		release, acquired, err := w.locker.TryLock(ctx, driftLockKey, w.lockTTL())
		if err != nil {
			w.log.Error().Err(err).Msg("obtener candado de conciliación")
			return false
		}
		if !acquired {
			w.log.Debug().Msg("otra réplica ejecuta la conciliación; ciclo omitido")
			return false
		}
		defer release()
	}
	if _, err := w.uc.Check(ctx); err != nil {
		w.log.Error().Err(err).Msg("verificación periódica de stock")
		return false
	}
	return true
}

func (w *DriftWorker) lockTTL() time.Duration {
	if w.interval > 0 && w.interval < 5*time.Minute {
		return w.interval
	}
	return 5 * time.Minute
}
