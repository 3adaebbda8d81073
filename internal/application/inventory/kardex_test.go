package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

type stubKardexGenerator struct {
	product *entity.Product
	lines   []inventory.KardexLine
}

func (g *stubKardexGenerator) GenerateKardexPDF(_ context.Context, product *entity.Product, lines []inventory.KardexLine) ([]byte, error) {
	g.product = product
	g.lines = lines
	return []byte("%PDF-stub"), nil
}

func TestKardex_SaldoCorridoEnOrdenCronologico(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	// se registran fuera de orden; el kardex ordena por fecha
	for _, mv := range []struct {
		typ  entity.MovementType
		qty  int64
		days int
	}{
		{entity.MovementTypeIN, 10, 0},
		{entity.MovementTypeOUT, 4, 2},
		{entity.MovementTypeIN, 6, 1},
	} {
		in := input(pid, mv.typ, mv.qty)
		in.Date = testDay.Add(time.Duration(mv.days) * 24 * time.Hour)
		_, err := f.engine.Create(context.Background(), in)
		require.NoError(t, err)
	}
	uc := inventory.NewKardexUseCase(f.products, f.ledger, &stubKardexGenerator{})

	product, lines, err := uc.Lines(context.Background(), pid)

	require.NoError(t, err)
	assert.Equal(t, int64(12), product.CurrentStock)
	require.Len(t, lines, 3)
	assert.Equal(t, []int64{10, 16, 12}, []int64{lines[0].Balance, lines[1].Balance, lines[2].Balance})
	assert.Equal(t, int64(6), lines[1].In)
	assert.Equal(t, int64(4), lines[2].Out)
	assert.Zero(t, lines[2].In)
	assert.Equal(t, product.CurrentStock, lines[len(lines)-1].Balance)
}

func TestKardex_DownloadPDF(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 3)
	gen := &stubKardexGenerator{}
	uc := inventory.NewKardexUseCase(f.products, f.ledger, gen)

	pdf, name, err := uc.DownloadPDF(context.Background(), pid)

	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub", string(pdf))
	assert.Equal(t, "kardex-1.pdf", name)
	assert.Equal(t, "Arroz", gen.product.Name)
	assert.Len(t, gen.lines, 1)
}

func TestKardex_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	uc := inventory.NewKardexUseCase(f.products, f.ledger, &stubKardexGenerator{})

	_, _, err := uc.DownloadPDF(context.Background(), 77)

	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

// racingLedger confirma un movimiento justo antes del primer listado, entre las dos lecturas del kardex.
type racingLedger struct {
	repository.StockMovementRepository
	commit func()
	done   bool
}

func (r *racingLedger) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if !r.done {
		r.done = true
		r.commit()
	}
	return r.StockMovementRepository.List(ctx, filter)
}

func TestKardex_MovimientoConcurrente_NoMuestraDiferenciaFalsa(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 10)
	ledger := &racingLedger{
		StockMovementRepository: f.ledger,
		commit:                  func() { f.move(t, pid, entity.MovementTypeIN, 5) },
	}
	uc := inventory.NewKardexUseCase(f.products, ledger, &stubKardexGenerator{})

	product, lines, err := uc.Lines(context.Background(), pid)

	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(15), product.CurrentStock)
	assert.Equal(t, product.CurrentStock, lines[len(lines)-1].Balance)
}
