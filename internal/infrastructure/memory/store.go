// Package memory implementa los puertos de persistencia en memoria (tests y desarrollo local).
package memory

import (
	"sync"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Store estado compartido por todos los repositorios en memoria.
// Un único mutex serializa los accesos; el incremento de stock es atómico bajo ese lock.
type Store struct {
	mu sync.RWMutex

	catalog  map[string]*entity.CatalogItem
	stocks   map[string]*entity.StockRecord
	history  []*entity.StockHistoryEntry
	expenses map[string]*entity.Expense
	payments map[string]*entity.Payment
	counts   map[string]*entity.StockCountLine
	matches  map[string]struct{}
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		catalog:  make(map[string]*entity.CatalogItem),
		stocks:   make(map[string]*entity.StockRecord),
		history:  make([]*entity.StockHistoryEntry, 0),
		expenses: make(map[string]*entity.Expense),
		payments: make(map[string]*entity.Payment),
		counts:   make(map[string]*entity.StockCountLine),
		matches:  make(map[string]struct{}),
	}
}

// Stocks repositorio de stock.
func (s *Store) Stocks() *StockRepo { return &StockRepo{s: s} }

// History repositorio del diario de movimientos.
func (s *Store) History() *HistoryRepo { return &HistoryRepo{s: s} }

// Catalog repositorio de catálogo.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }

// Expenses repositorio de gastos.
func (s *Store) Expenses() *ExpenseRepo { return &ExpenseRepo{s: s} }

// Payments repositorio de pagos.
func (s *Store) Payments() *PaymentRepo { return &PaymentRepo{s: s} }

// Counts repositorio de conteos físicos.
func (s *Store) Counts() *CountRepo { return &CountRepo{s: s} }

// Marketplace repositorio de vínculos con marketplaces.
func (s *Store) Marketplace() *MarketplaceRepo { return &MarketplaceRepo{s: s} }

// PutCatalogItem inserta o reemplaza un ítem de catálogo (lo hace la administración del catálogo).
func (s *Store) PutCatalogItem(item *entity.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.catalog[item.ID] = &cp
}

// PutCountLine inserta una línea de conteo físico.
func (s *Store) PutCountLine(line *entity.StockCountLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *line
	s.counts[countKey(line.CountID, line.ProductID, line.LocationID)] = &cp
}

// MatchMarketplaceItem vincula un ítem de catálogo con un ítem de marketplace.
func (s *Store) MatchMarketplaceItem(catalogItemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[catalogItemID] = struct{}{}
}

// AllHistory devuelve una copia de todo el diario en orden de inserción.
func (s *Store) AllHistory() []*entity.StockHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.StockHistoryEntry, 0, len(s.history))
	for _, h := range s.history {
		cp := *h
		out = append(out, &cp)
	}
	return out
}

func countKey(countID, productID, locationID string) string {
	return countID + "|" + productID + "|" + locationID
}
