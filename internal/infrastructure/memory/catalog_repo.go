package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)
var _ repository.StockCountRepository = (*CountRepo)(nil)
var _ repository.MarketplaceMatchRepository = (*MarketplaceRepo)(nil)

// CatalogRepo implementación en memoria de CatalogRepository.
type CatalogRepo struct{ s *Store }

// GetByID obtiene un ítem por ID.
func (r *CatalogRepo) GetByID(_ context.Context, id string) (*entity.CatalogItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.catalog[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

// List ítems activos por tipo, ordenados por nombre.
func (r *CatalogRepo) List(_ context.Context, kind string) ([]*entity.CatalogItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.CatalogItem, 0)
	for _, it := range r.s.catalog {
		if it.IsDeleted || (kind != "" && it.Kind != kind) {
			continue
		}
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// UpdateUnitPrice actualiza el precio derivado.
func (r *CatalogRepo) UpdateUnitPrice(_ context.Context, id string, price decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.catalog[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.UnitPrice = price
	it.UpdatedAt = time.Now()
	return nil
}

// SoftDelete marca el ítem como eliminado.
func (r *CatalogRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.catalog[id]
	if !ok {
		return domain.ErrNotFound
	}
	it.IsDeleted = true
	it.DeletedAt = &at
	return nil
}

// CountRepo implementación en memoria de StockCountRepository.
type CountRepo struct{ s *Store }

// GetLine obtiene una línea de conteo.
func (r *CountRepo) GetLine(_ context.Context, countID, productID, locationID string) (*entity.StockCountLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.counts[countKey(countID, productID, locationID)]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

// MarkReconciled marca la línea como conciliada.
func (r *CountRepo) MarkReconciled(_ context.Context, countID, productID, locationID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.counts[countKey(countID, productID, locationID)]
	if !ok {
		return domain.ErrNotFound
	}
	l.Reconciled = true
	l.ReconciledAt = &at
	return nil
}

// ReferencesItem indica si algún conteo referencia el producto.
func (r *CountRepo) ReferencesItem(_ context.Context, productID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.counts {
		if l.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

// MarketplaceRepo implementación en memoria de MarketplaceMatchRepository.
type MarketplaceRepo struct{ s *Store }

// HasMatchedItem indica si el ítem está vinculado a un marketplace.
func (r *MarketplaceRepo) HasMatchedItem(_ context.Context, catalogItemID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.matches[catalogItemID]
	return ok, nil
}
