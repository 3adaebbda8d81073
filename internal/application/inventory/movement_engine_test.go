package inventory_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var testDay = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	products *memory.ProductRepo
	ledger   *memory.StockMovementRepo
	engine   *inventory.MovementEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ledger := memory.NewStockMovementRepository(store)
	return &fixture{
		store:    store,
		products: memory.NewProductRepository(store),
		ledger:   ledger,
		engine: inventory.NewMovementEngine(memory.NewTxRunner(store), ledger, inventory.EngineOptions{
			RetryBackoff: time.Millisecond,
		}),
	}
}

func (f *fixture) product(t *testing.T, name string) int64 {
	t.Helper()
	p := &entity.Product{Name: name, Unit: "und"}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p.ID
}

func (f *fixture) stock(t *testing.T, productID int64) int64 {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.CurrentStock
}

func (f *fixture) ledgerSum(t *testing.T, productID int64) int64 {
	t.Helper()
	list, err := f.ledger.List(context.Background(), repository.MovementFilter{ProductID: &productID})
	require.NoError(t, err)
	var sum int64
	for _, m := range list {
		sum += m.SignedEffect()
	}
	return sum
}

func (f *fixture) move(t *testing.T, productID int64, typ entity.MovementType, qty int64) *entity.StockMovement {
	t.Helper()
	m, err := f.engine.Create(context.Background(), input(productID, typ, qty))
	require.NoError(t, err)
	return m
}

// assertReconciled verifica el invariante central: stock == suma firmada del libro y >= 0.
func (f *fixture) assertReconciled(t *testing.T, productID int64) {
	t.Helper()
	stock := f.stock(t, productID)
	assert.Equal(t, f.ledgerSum(t, productID), stock, "el stock debe ser igual a la suma del libro")
	assert.GreaterOrEqual(t, stock, int64(0), "el stock nunca es negativo")
}

func input(productID int64, typ entity.MovementType, qty int64) inventory.CreateMovementInput {
	src := entity.SourcePurchase
	if typ == entity.MovementTypeOUT {
		src = entity.SourceSale
	}
	return inventory.CreateMovementInput{
		ProductID:    productID,
		MovementType: typ,
		Quantity:     qty,
		Source:       src,
		Date:         testDay,
		CreatedBy:    7,
	}
}

func ptr[T any](v T) *T { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de referencia
// ──────────────────────────────────────────────────────────────────────────────

// Escenario 1: stock 0 + IN 10 → 10.
func TestCreate_EntradaSumaAlStock(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")

	m := f.move(t, pid, entity.MovementTypeIN, 10)

	assert.NotZero(t, m.ID)
	assert.Equal(t, int64(7), m.CreatedBy)
	assert.Equal(t, int64(10), f.stock(t, pid))
	f.assertReconciled(t, pid)
}

// Escenario 2: stock 10 + OUT 15 → NegativeStock, nada cambia.
func TestCreate_SalidaMayorAlStock_Rechazada(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 10)

	_, err := f.engine.Create(context.Background(), input(pid, entity.MovementTypeOUT, 15))

	require.ErrorIs(t, err, domain.ErrNegativeStock)
	assert.Equal(t, int64(10), f.stock(t, pid))
	list, _ := f.ledger.List(context.Background(), repository.MovementFilter{ProductID: &pid})
	assert.Len(t, list, 1, "el libro no debe registrar el movimiento rechazado")
}

// Escenario 3: stock 15 con M = OUT 5; M pasa a IN 3 → 23.
func TestUpdate_CambiaTipoYCantidad(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 20)
	m := f.move(t, pid, entity.MovementTypeOUT, 5)
	require.Equal(t, int64(15), f.stock(t, pid))

	updated, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{
		MovementType: ptr(entity.MovementTypeIN),
		Quantity:     ptr(int64(3)),
		Source:       ptr(entity.SourceCustomerReturn),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeIN, updated.MovementType)
	assert.Equal(t, int64(3), updated.Quantity)
	assert.Equal(t, int64(23), f.stock(t, pid))
	f.assertReconciled(t, pid)
}

// Escenario 4: eliminar una salida devuelve la cantidad al stock.
func TestDelete_SalidaDevuelveStock(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 10)
	out := f.move(t, pid, entity.MovementTypeOUT, 4)
	require.Equal(t, int64(6), f.stock(t, pid))

	require.NoError(t, f.engine.Delete(context.Background(), out.ID))

	assert.Equal(t, int64(10), f.stock(t, pid))
	_, err := f.engine.Get(context.Background(), out.ID)
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)
	f.assertReconciled(t, pid)
}

// Escenario 5: IN 5 (M) + OUT 3 → 2; eliminar M dejaría -3 → NegativeStock.
func TestDelete_EntradaYaConsumida_Rechazada(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	m := f.move(t, pid, entity.MovementTypeIN, 5)
	f.move(t, pid, entity.MovementTypeOUT, 3)

	err := f.engine.Delete(context.Background(), m.ID)

	require.ErrorIs(t, err, domain.ErrNegativeStock)
	assert.Equal(t, int64(2), f.stock(t, pid))
	_, err = f.engine.Get(context.Background(), m.ID)
	assert.NoError(t, err, "el movimiento debe seguir existiendo")
	f.assertReconciled(t, pid)
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores de entrada
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_Errores(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")

	tests := []struct {
		name string
		in   inventory.CreateMovementInput
		want error
	}{
		{"producto inexistente", input(999, entity.MovementTypeIN, 1), domain.ErrProductNotFound},
		{"tipo inválido", input(pid, entity.MovementType("TRANSFER"), 1), domain.ErrInvalidMovementType},
		{"cantidad cero", input(pid, entity.MovementTypeIN, 0), domain.ErrInvalidInput},
		{"cantidad negativa", input(pid, entity.MovementTypeIN, -3), domain.ErrInvalidInput},
		{"origen inválido", func() inventory.CreateMovementInput {
			in := input(pid, entity.MovementTypeIN, 1)
			in.Source = "ACHAT"
			return in
		}(), domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsDomainError(err))
		})
	}
	assert.Equal(t, int64(0), f.stock(t, pid))
}

func TestCreate_DesbordamientoEsEntradaInvalida(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 10)

	_, err := f.engine.Create(context.Background(), input(pid, entity.MovementTypeIN, math.MaxInt64))

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrNegativeStock)
	assert.Equal(t, int64(10), f.stock(t, pid))
	f.assertReconciled(t, pid)
}

func TestUpdate_DesbordamientoEsEntradaInvalida(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A")
	b := f.product(t, "B")
	m := f.move(t, a, entity.MovementTypeIN, 10)
	f.move(t, a, entity.MovementTypeIN, math.MaxInt64-20)
	f.move(t, b, entity.MovementTypeIN, math.MaxInt64-5)

	// mismo producto: MaxInt64-20 + 100
	_, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{Quantity: ptr(int64(100))})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// otro producto: MaxInt64-5 + 10
	_, err = f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{ProductID: &b})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, int64(math.MaxInt64-10), f.stock(t, a))
	assert.Equal(t, int64(math.MaxInt64-5), f.stock(t, b))
	got, err := f.engine.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got.ProductID)
	assert.Equal(t, int64(10), got.Quantity)
}

func TestUpdateYDelete_MovimientoInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Update(context.Background(), 404, inventory.MovementPatch{Quantity: ptr(int64(1))})
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)

	err = f.engine.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)
}

func TestUpdate_TipoInvalido_NoCambiaNada(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	m := f.move(t, pid, entity.MovementTypeIN, 8)

	_, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{
		MovementType: ptr(entity.MovementType("X")),
	})

	require.ErrorIs(t, err, domain.ErrInvalidMovementType)
	assert.Equal(t, int64(8), f.stock(t, pid))
	got, err := f.engine.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeIN, got.MovementType)
}

func TestUpdate_ReduceEntradaPorDebajoDeLoConsumido_Rechazada(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	m := f.move(t, pid, entity.MovementTypeIN, 10)
	f.move(t, pid, entity.MovementTypeOUT, 8)

	_, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{Quantity: ptr(int64(5))})

	require.ErrorIs(t, err, domain.ErrNegativeStock)
	assert.Equal(t, int64(2), f.stock(t, pid))
	f.assertReconciled(t, pid)
}

// ──────────────────────────────────────────────────────────────────────────────
// Update: conserva campos y cambio de producto
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_ConservaCamposNoIndicados(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	in := input(pid, entity.MovementTypeIN, 4)
	in.Reason = "proveedor A"
	m, err := f.engine.Create(context.Background(), in)
	require.NoError(t, err)

	newDate := testDay.Add(48 * time.Hour)
	updated, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{Date: &newDate})

	require.NoError(t, err)
	assert.Equal(t, "proveedor A", updated.Reason)
	assert.Equal(t, int64(4), updated.Quantity)
	assert.Equal(t, entity.SourcePurchase, updated.Source)
	assert.Equal(t, int64(7), updated.CreatedBy)
	assert.True(t, updated.Date.Equal(newDate))
	assert.Equal(t, int64(4), f.stock(t, pid))
}

func TestUpdate_CambioDeProducto_MueveElEfecto(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A")
	b := f.product(t, "B")
	m := f.move(t, a, entity.MovementTypeIN, 10)

	updated, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{ProductID: &b})

	require.NoError(t, err)
	assert.Equal(t, b, updated.ProductID)
	assert.Equal(t, int64(0), f.stock(t, a))
	assert.Equal(t, int64(10), f.stock(t, b))
	f.assertReconciled(t, a)
	f.assertReconciled(t, b)
}

func TestUpdate_CambioDeProducto_Rechazos(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A")
	b := f.product(t, "B")
	m := f.move(t, a, entity.MovementTypeIN, 10)
	f.move(t, a, entity.MovementTypeOUT, 6)

	// A quedaría en -6
	_, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{ProductID: &b})
	require.ErrorIs(t, err, domain.ErrNegativeStock)

	// producto destino inexistente
	missing := int64(999)
	_, err = f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{ProductID: &missing})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.Equal(t, int64(4), f.stock(t, a))
	assert.Equal(t, int64(0), f.stock(t, b))
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades
// ──────────────────────────────────────────────────────────────────────────────

// Crear y luego eliminar un movimiento deja el stock como estaba.
func TestCrearYEliminar_EsIdempotente(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 12)
	before := f.stock(t, pid)

	for _, typ := range []entity.MovementType{entity.MovementTypeIN, entity.MovementTypeOUT} {
		m := f.move(t, pid, typ, 5)
		require.NoError(t, f.engine.Delete(context.Background(), m.ID))
		assert.Equal(t, before, f.stock(t, pid))
	}
}

// Editar un movimiento y devolverle sus campos originales deja el stock como estaba.
func TestUpdate_IdaYVuelta_RestauraStock(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 20)
	m := f.move(t, pid, entity.MovementTypeOUT, 5)
	require.Equal(t, int64(15), f.stock(t, pid))

	_, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{
		MovementType: ptr(entity.MovementTypeIN),
		Quantity:     ptr(int64(3)),
		Source:       ptr(entity.SourcePurchase),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(23), f.stock(t, pid))

	back, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{
		MovementType: ptr(entity.MovementTypeOUT),
		Quantity:     ptr(int64(5)),
		Source:       ptr(entity.SourceSale),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(15), f.stock(t, pid))
	assert.Equal(t, m.MovementType, back.MovementType)
	assert.Equal(t, m.Quantity, back.Quantity)
	f.assertReconciled(t, pid)
}

func TestUpdate_IdaYVueltaEntreProductos_RestauraAmbos(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A")
	b := f.product(t, "B")
	f.move(t, a, entity.MovementTypeIN, 20)
	f.move(t, b, entity.MovementTypeIN, 8)
	m := f.move(t, a, entity.MovementTypeOUT, 5)
	require.Equal(t, int64(15), f.stock(t, a))

	_, err := f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{ProductID: &b})
	require.NoError(t, err)
	assert.Equal(t, int64(20), f.stock(t, a))
	assert.Equal(t, int64(3), f.stock(t, b))

	_, err = f.engine.Update(context.Background(), m.ID, inventory.MovementPatch{ProductID: &a})
	require.NoError(t, err)

	assert.Equal(t, int64(15), f.stock(t, a))
	assert.Equal(t, int64(8), f.stock(t, b))
	f.assertReconciled(t, a)
	f.assertReconciled(t, b)
}

// Secuencia aleatoria de operaciones: tras cada paso el stock coincide con el libro.
func TestSecuenciaAleatoria_MantieneInvariante(t *testing.T) {
	f := newFixture(t)
	pids := []int64{f.product(t, "A"), f.product(t, "B"), f.product(t, "C")}
	rng := rand.New(rand.NewSource(42))
	types := []entity.MovementType{entity.MovementTypeIN, entity.MovementTypeOUT}
	var ids []int64

	for i := 0; i < 400; i++ {
		ctx := context.Background()
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			m, err := f.engine.Create(ctx, input(pids[rng.Intn(len(pids))], types[rng.Intn(2)], int64(rng.Intn(20)+1)))
			if err == nil {
				ids = append(ids, m.ID)
			} else {
				require.ErrorIs(t, err, domain.ErrNegativeStock)
			}
		case op == 1:
			id := ids[rng.Intn(len(ids))]
			_, err := f.engine.Update(ctx, id, inventory.MovementPatch{
				ProductID:    ptr(pids[rng.Intn(len(pids))]),
				MovementType: ptr(types[rng.Intn(2)]),
				Quantity:     ptr(int64(rng.Intn(20) + 1)),
			})
			if err != nil {
				require.ErrorIs(t, err, domain.ErrNegativeStock)
			}
		default:
			k := rng.Intn(len(ids))
			err := f.engine.Delete(ctx, ids[k])
			if err == nil {
				ids = append(ids[:k], ids[k+1:]...)
			} else {
				require.ErrorIs(t, err, domain.ErrNegativeStock)
			}
		}
		for _, pid := range pids {
			f.assertReconciled(t, pid)
		}
	}
}

// Muchas operaciones concurrentes sobre el mismo producto: sin actualizaciones perdidas.
func TestConcurrencia_MismoProducto(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	f.move(t, pid, entity.MovementTypeIN, 50)

	var wg sync.WaitGroup
	var rejected atomic.Int64
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ := entity.MovementTypeIN
			if i%2 == 0 {
				typ = entity.MovementTypeOUT
			}
			if _, err := f.engine.Create(context.Background(), input(pid, typ, 3)); err != nil {
				assert.ErrorIs(t, err, domain.ErrNegativeStock)
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	f.assertReconciled(t, pid)
	list, err := f.ledger.List(context.Background(), repository.MovementFilter{ProductID: &pid})
	require.NoError(t, err)
	assert.Equal(t, int64(101), int64(len(list))+rejected.Load())
}

// Productos distintos no se bloquean entre sí y cada uno queda conciliado.
func TestConcurrencia_ProductosDistintosYCambiosCruzados(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A")
	b := f.product(t, "B")
	ma := f.move(t, a, entity.MovementTypeIN, 100)
	mb := f.move(t, b, entity.MovementTypeIN, 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.engine.Update(context.Background(), ma.ID, inventory.MovementPatch{ProductID: &b})
			_, _ = f.engine.Update(context.Background(), ma.ID, inventory.MovementPatch{ProductID: &a})
		}()
		go func() {
			defer wg.Done()
			_, _ = f.engine.Update(context.Background(), mb.ID, inventory.MovementPatch{ProductID: &a})
			_, _ = f.engine.Update(context.Background(), mb.ID, inventory.MovementPatch{ProductID: &b})
		}()
	}
	wg.Wait()

	f.assertReconciled(t, a)
	f.assertReconciled(t, b)
	assert.Equal(t, int64(200), f.stock(t, a)+f.stock(t, b))
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad y reintentos (TxRunner instrumentado)
// ──────────────────────────────────────────────────────────────────────────────

// flakyRunner envuelve un TxRunner real: las primeras `failures` llamadas devuelven err,
// y puede hacer fallar la escritura del libro después de escribir el stock.
type flakyRunner struct {
	inner      inventory.TxRunner
	err        error
	failures   int
	failLedger bool
	attempts   atomic.Int64
}

func (r *flakyRunner) Run(ctx context.Context, fn func(repository.StockMovementRepository, repository.StockRepository) error) error {
	n := r.attempts.Add(1)
	if int(n) <= r.failures {
		return r.err
	}
	return r.inner.Run(ctx, func(movRepo repository.StockMovementRepository, stockRepo repository.StockRepository) error {
		if r.failLedger {
			movRepo = failingLedger{movRepo}
		}
		return fn(movRepo, stockRepo)
	})
}

type failingLedger struct {
	repository.StockMovementRepository
}

var errDiskFull = errors.New("disco lleno")

func (failingLedger) Create(context.Context, *entity.StockMovement) error {
	return errDiskFull
}

func (failingLedger) Delete(context.Context, int64) error {
	return errDiskFull
}

func (failingLedger) Replace(context.Context, *entity.StockMovement) error {
	return errDiskFull
}

func (f *fixture) engineWith(runner inventory.TxRunner, retries int) *inventory.MovementEngine {
	return inventory.NewMovementEngine(runner, f.ledger, inventory.EngineOptions{
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	})
}

func TestAtomicidad_FallaDelLibroNoTocaElStock(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	m := f.move(t, pid, entity.MovementTypeIN, 10)

	runner := &flakyRunner{inner: memory.NewTxRunner(f.store), failLedger: true}
	engine := f.engineWith(runner, 3)

	_, err := engine.Create(context.Background(), input(pid, entity.MovementTypeIN, 5))
	require.ErrorIs(t, err, errDiskFull)

	err = engine.Delete(context.Background(), m.ID)
	require.ErrorIs(t, err, errDiskFull)

	assert.Equal(t, int64(10), f.stock(t, pid))
	assert.Equal(t, int64(1), int64(len(mustList(t, f, pid))))
	f.assertReconciled(t, pid)
}

func TestAtomicidad_UpdateFallidoNoTocaStockNiFila(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A")
	b := f.product(t, "B")
	f.move(t, a, entity.MovementTypeIN, 20)
	f.move(t, b, entity.MovementTypeIN, 6)
	m := f.move(t, a, entity.MovementTypeOUT, 5)

	engine := f.engineWith(&flakyRunner{inner: memory.NewTxRunner(f.store), failLedger: true}, 3)

	tests := []struct {
		name  string
		patch inventory.MovementPatch
	}{
		{"mismo producto", inventory.MovementPatch{Quantity: ptr(int64(2))}},
		{"cambio de producto", inventory.MovementPatch{ProductID: &b, Quantity: ptr(int64(1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Update(context.Background(), m.ID, tt.patch)
			require.ErrorIs(t, err, errDiskFull)

			assert.Equal(t, int64(15), f.stock(t, a))
			assert.Equal(t, int64(6), f.stock(t, b))
			got, err := f.engine.Get(context.Background(), m.ID)
			require.NoError(t, err)
			assert.Equal(t, a, got.ProductID)
			assert.Equal(t, int64(5), got.Quantity)
			f.assertReconciled(t, a)
			f.assertReconciled(t, b)
		})
	}
}

func TestReintento_ConflictoTransitorio(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	runner := &flakyRunner{inner: memory.NewTxRunner(f.store), err: domain.ErrTransactionConflict, failures: 2}

	_, err := f.engineWith(runner, 3).Create(context.Background(), input(pid, entity.MovementTypeIN, 5))

	require.NoError(t, err)
	assert.Equal(t, int64(3), runner.attempts.Load())
	assert.Equal(t, int64(5), f.stock(t, pid))
}

func TestReintento_AgotaIntentos(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	runner := &flakyRunner{inner: memory.NewTxRunner(f.store), err: domain.ErrTransactionConflict, failures: 100}

	_, err := f.engineWith(runner, 2).Create(context.Background(), input(pid, entity.MovementTypeIN, 5))

	require.ErrorIs(t, err, domain.ErrTransactionConflict)
	assert.Equal(t, int64(3), runner.attempts.Load(), "primer intento + 2 reintentos")
	assert.Equal(t, int64(0), f.stock(t, pid))
}

func TestReintento_FallaDeAlmacenamientoNoSeReintenta(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	storageErr := errors.Join(domain.ErrStorageFailure, errors.New("conexión rechazada"))
	runner := &flakyRunner{inner: memory.NewTxRunner(f.store), err: storageErr, failures: 100}

	_, err := f.engineWith(runner, 3).Create(context.Background(), input(pid, entity.MovementTypeIN, 5))

	require.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Equal(t, int64(1), runner.attempts.Load())
}

func TestReintento_ContextoCancelado(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, "Arroz")
	runner := &flakyRunner{inner: memory.NewTxRunner(f.store), err: domain.ErrTransactionConflict, failures: 100}
	engine := inventory.NewMovementEngine(runner, f.ledger, inventory.EngineOptions{
		MaxRetries:   50,
		RetryBackoff: time.Hour,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := engine.Create(ctx, input(pid, entity.MovementTypeIN, 5))

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrTransactionConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestList_FiltraYOrdena(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A")
	b := f.product(t, "B")
	for i := 0; i < 3; i++ {
		in := input(a, entity.MovementTypeIN, 1)
		in.Date = testDay.AddDate(0, 0, i)
		_, err := f.engine.Create(context.Background(), in)
		require.NoError(t, err)
	}
	f.move(t, b, entity.MovementTypeIN, 1)

	from := testDay.AddDate(0, 0, 1)
	list, err := f.engine.List(context.Background(), repository.MovementFilter{ProductID: &a, From: &from})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Date.After(list[1].Date), "más recientes primero")
	assert.Equal(t, "A", list[0].ProductName)

	all, err := f.engine.List(context.Background(), repository.MovementFilter{Limit: 2, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func mustList(t *testing.T, f *fixture, pid int64) []*entity.StockMovement {
	t.Helper()
	list, err := f.ledger.List(context.Background(), repository.MovementFilter{ProductID: &pid})
	require.NoError(t, err)
	return list
}
