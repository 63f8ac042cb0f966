package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)
var _ repository.StockHistoryRepository = (*HistoryRepo)(nil)

// StockRepo implementación en memoria de StockRepository.
type StockRepo struct{ s *Store }

// Get obtiene una fila de stock por clave compuesta.
func (r *StockRepo) Get(_ context.Context, id string) (*entity.StockRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.stocks[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

// Create inserta una fila nueva; ErrConflict si ya existe.
func (r *StockRepo) Create(_ context.Context, stock *entity.StockRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stocks[stock.ID]; ok {
		return domain.ErrConflict
	}
	cp := *stock
	r.s.stocks[stock.ID] = &cp
	return nil
}

// Increment suma delta bajo lock y devuelve la cantidad previa.
func (r *StockRepo) Increment(_ context.Context, id string, delta int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stocks[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	before := st.Quantity
	st.Quantity += delta
	st.UpdatedAt = time.Now()
	return before, nil
}

// Delete elimina una fila de stock y devuelve una copia de lo eliminado.
func (r *StockRepo) Delete(_ context.Context, id string) (*entity.StockRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stocks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.s.stocks, id)
	cp := *st
	return &cp, nil
}

// List lista las filas ordenadas por clave; locationID vacío = todas.
func (r *StockRepo) List(_ context.Context, locationID string) ([]*entity.StockRecord, error) {
	return r.filter(func(st *entity.StockRecord) bool {
		return locationID == "" || st.LocationID == locationID
	}), nil
}

// ListByProduct lista las filas de un producto en todas las ubicaciones.
func (r *StockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockRecord, error) {
	return r.filter(func(st *entity.StockRecord) bool { return st.ProductID == productID }), nil
}

// HasPositiveStock indica si el producto tiene cantidad positiva en alguna ubicación.
func (r *StockRepo) HasPositiveStock(_ context.Context, productID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.stocks {
		if st.ProductID == productID && st.Quantity > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Rekey mueve la fila a una nueva clave y reasigna su historial.
func (r *StockRepo) Rekey(_ context.Context, oldID, newID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stocks[oldID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, taken := r.s.stocks[newID]; taken {
		return domain.ErrAlreadyExists
	}
	delete(r.s.stocks, oldID)
	st.ID = newID
	r.s.stocks[newID] = st
	for _, h := range r.s.history {
		if h.StockID == oldID {
			h.StockID = newID
		}
	}
	return nil
}

func (r *StockRepo) filter(keep func(*entity.StockRecord) bool) []*entity.StockRecord {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockRecord, 0)
	for _, st := range r.s.stocks {
		if keep(st) {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HistoryRepo implementación en memoria del diario de movimientos.
type HistoryRepo struct{ s *Store }

// Append agrega una entrada inmutable.
func (r *HistoryRepo) Append(_ context.Context, entry *entity.StockHistoryEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *entry
	r.s.history = append(r.s.history, &cp)
	return nil
}

// ListAfter entradas con timestamp > since.
func (r *HistoryRepo) ListAfter(_ context.Context, since time.Time, locationID string) ([]*entity.StockHistoryEntry, error) {
	return r.filter(func(h *entity.StockHistoryEntry) bool {
		return h.CreatedAt.After(since) && (locationID == "" || h.LocationID == locationID)
	}), nil
}

// ListByStockAfter entradas de una clave con timestamp > since.
func (r *HistoryRepo) ListByStockAfter(_ context.Context, stockID string, since time.Time) ([]*entity.StockHistoryEntry, error) {
	return r.filter(func(h *entity.StockHistoryEntry) bool {
		return h.StockID == stockID && h.CreatedAt.After(since)
	}), nil
}

// ListByStock entradas de una clave, más recientes primero.
func (r *HistoryRepo) ListByStock(_ context.Context, stockID string, limit, offset int) ([]*entity.StockHistoryEntry, error) {
	all := r.filter(func(h *entity.StockHistoryEntry) bool { return h.StockID == stockID })
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if offset >= len(all) {
		return []*entity.StockHistoryEntry{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *HistoryRepo) filter(keep func(*entity.StockHistoryEntry) bool) []*entity.StockHistoryEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockHistoryEntry, 0)
	for _, h := range r.s.history {
		if keep(h) {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out
}
