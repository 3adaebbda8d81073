package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

func (s *Store) lockEntries() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

// Los candados de fila se eliminan al terminar la última tx que los usa.
func TestRowLocks_NoSeAcumulan(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	products := NewProductRepository(s)
	runner := NewTxRunner(s)

	ids := make([]int64, 3)
	for i := range ids {
		p := &entity.Product{Name: "P", Unit: "und"}
		require.NoError(t, products.Create(ctx, p))
		ids[i] = p.ID
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			pid := ids[w%len(ids)]
			for i := 0; i < 50; i++ {
				var created int64
				err := runner.Run(ctx, func(movRepo repository.StockMovementRepository, stockRepo repository.StockRepository) error {
					v, err := stockRepo.GetStockForUpdate(ctx, pid)
					if err != nil {
						return err
					}
					m := &entity.StockMovement{
						ProductID: pid, MovementType: entity.MovementTypeIN, Quantity: 1,
						Source: entity.SourcePurchase, Date: time.Now(),
					}
					if err := movRepo.Create(ctx, m); err != nil {
						return err
					}
					created = m.ID
					return stockRepo.SetStock(ctx, pid, v+1)
				})
				assert.NoError(t, err)

				err = runner.Run(ctx, func(movRepo repository.StockMovementRepository, stockRepo repository.StockRepository) error {
					if _, err := movRepo.GetForUpdate(ctx, created); err != nil {
						return err
					}
					v, err := stockRepo.GetStockForUpdate(ctx, pid)
					if err != nil {
						return err
					}
					if err := stockRepo.SetStock(ctx, pid, v-1); err != nil {
						return err
					}
					return movRepo.Delete(ctx, created)
				})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, s.lockEntries())

	require.NoError(t, products.Delete(ctx, ids[0]))
	assert.Zero(t, s.lockEntries())
}

// Una tx fallida también devuelve sus candados.
func TestRowLocks_SeLiberanTrasRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	runner := NewTxRunner(s)

	err := runner.Run(ctx, func(_ repository.StockMovementRepository, stockRepo repository.StockRepository) error {
		_, err := stockRepo.GetStockForUpdate(ctx, 404)
		return err
	})

	require.Error(t, err)
	assert.Zero(t, s.lockEntries())
}
