// Package memory implementa los puertos de persistencia en memoria del proceso.
//
// Las transacciones toman candados por fila (producto o movimiento) que se mantienen hasta el
// Commit/Rollback, y escriben en un área temporal que solo se publica en el Commit. Movimientos
// de productos distintos no se bloquean entre sí.
package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Store es el almacenamiento compartido. Su ciclo de vida lo maneja el proceso que lo crea.
type Store struct {
	mu        sync.RWMutex
	products  map[int64]entity.Product
	movements map[int64]entity.StockMovement
	users     map[int64]entity.User

	seqProduct  int64
	seqMovement int64
	seqUser     int64

	locksMu sync.Mutex
	locks   map[string]*rowMutex
}

// rowMutex candado de una fila; refs cuenta las tx que lo tienen o lo esperan.
type rowMutex struct {
	mu   sync.Mutex
	refs int
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		products:  make(map[int64]entity.Product),
		movements: make(map[int64]entity.StockMovement),
		users:     make(map[int64]entity.User),
		locks:     make(map[string]*rowMutex),
	}
}

// acquireRow reserva la entrada del candado de la fila; el llamador bloquea l.mu.
func (s *Store) acquireRow(key string) *rowMutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &rowMutex{}
		s.locks[key] = l
	}
	l.refs++
	return l
}

// releaseRow desbloquea la fila y elimina la entrada cuando nadie más la usa.
func (s *Store) releaseRow(key string, l *rowMutex) {
	l.mu.Unlock()
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}

func (s *Store) nextMovementID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqMovement++
	return s.seqMovement
}

// begin abre una transacción vacía.
func (s *Store) begin() *tx {
	return &tx{
		s:       s,
		held:    make(map[string]*rowMutex),
		stock:   make(map[int64]int64),
		upserts: make(map[int64]entity.StockMovement),
		deletes: make(map[int64]bool),
	}
}

// tx transacción en memoria: candados de fila + escrituras pendientes.
type tx struct {
	s       *Store
	held    map[string]*rowMutex
	order   []string
	stock   map[int64]int64
	upserts map[int64]entity.StockMovement
	deletes map[int64]bool
}

func productKey(id int64) string  { return fmt.Sprintf("product:%d", id) }
func movementKey(id int64) string { return fmt.Sprintf("movement:%d", id) }

// lock toma el candado de la fila si la tx aún no lo tiene (reentrante dentro de la tx).
func (t *tx) lock(key string) {
	if _, ok := t.held[key]; ok {
		return
	}
	l := t.s.acquireRow(key)
	l.mu.Lock()
	t.held[key] = l
	t.order = append(t.order, key)
}

// release libera los candados en orden inverso de adquisición.
func (t *tx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		key := t.order[i]
		t.s.releaseRow(key, t.held[key])
	}
	t.held = nil
	t.order = nil
}

// commit publica las escrituras pendientes de forma atómica respecto a los lectores.
func (t *tx) commit() {
	if len(t.stock) == 0 && len(t.upserts) == 0 && len(t.deletes) == 0 {
		return
	}
	now := time.Now()
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, v := range t.stock {
		p, ok := t.s.products[id]
		if !ok {
			continue
		}
		p.CurrentStock = v
		p.UpdatedAt = now
		t.s.products[id] = p
	}
	for id, m := range t.upserts {
		t.s.movements[id] = m
	}
	for id := range t.deletes {
		delete(t.s.movements, id)
	}
}

// readMovement lee la fila considerando las escrituras pendientes de la tx (t puede ser nil).
func (s *Store) readMovement(t *tx, id int64) (entity.StockMovement, bool) {
	if t != nil {
		if t.deletes[id] {
			return entity.StockMovement{}, false
		}
		if m, ok := t.upserts[id]; ok {
			return m, true
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movements[id]
	return m, ok
}

// readStock lee el contador considerando las escrituras pendientes de la tx (t puede ser nil).
func (s *Store) readStock(t *tx, productID int64) (int64, bool) {
	s.mu.RLock()
	p, ok := s.products[productID]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if t != nil {
		if v, pending := t.stock[productID]; pending {
			return v, true
		}
	}
	return p.CurrentStock, true
}

// snapshotMovements copia el libro con las escrituras pendientes aplicadas.
func (s *Store) snapshotMovements(t *tx) []entity.StockMovement {
	s.mu.RLock()
	out := make([]entity.StockMovement, 0, len(s.movements))
	for id, m := range s.movements {
		if t != nil && (t.deletes[id] || hasKey(t.upserts, id)) {
			continue
		}
		out = append(out, m)
	}
	s.mu.RUnlock()
	if t != nil {
		for _, m := range t.upserts {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) productName(id int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products[id].Name
}

func hasKey(m map[int64]entity.StockMovement, id int64) bool {
	_, ok := m[id]
	return ok
}
