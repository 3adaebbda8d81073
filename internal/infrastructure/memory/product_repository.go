package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo CRUD de productos en memoria. Nunca escribe CurrentStock.
type ProductRepo struct {
	s *Store
}

// NewProductRepository construye el repositorio.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

// Create persiste el producto con stock 0.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seqProduct++
	product.ID = r.s.seqProduct
	product.CurrentStock = 0
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	product.UpdatedAt = product.CreatedAt
	r.s.products[product.ID] = *product
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

// List lista productos por ID ascendente con paginación.
func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	list := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		p := p
		list = append(list, &p)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return paginate(list, limit, offset), nil
}

// Update actualiza solo los campos descriptivos sobre la versión vigente (no pisa el stock).
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	cur.Name = product.Name
	cur.Description = product.Description
	cur.Unit = product.Unit
	cur.PriceUnit = product.PriceUnit
	cur.AlertThreshold = product.AlertThreshold
	cur.CategoryID = product.CategoryID
	cur.UpdatedAt = time.Now()
	r.s.products[product.ID] = cur
	product.CurrentStock = cur.CurrentStock
	product.UpdatedAt = cur.UpdatedAt
	return nil
}

// Delete elimina el producto y sus movimientos, con la fila del producto bloqueada.
func (r *ProductRepo) Delete(_ context.Context, id int64) error {
	t := r.s.begin()
	defer t.release()
	t.lock(productKey(id))

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.s.products, id)
	for mid, m := range r.s.movements {
		if m.ProductID == id {
			delete(r.s.movements, mid)
		}
	}
	return nil
}
