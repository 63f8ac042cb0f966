package repository

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// StockHistoryRepository puerto del diario de movimientos (append-only).
type StockHistoryRepository interface {
	Append(ctx context.Context, entry *entity.StockHistoryEntry) error
	// ListAfter devuelve las entradas con timestamp > since; locationID vacío = todas.
	ListAfter(ctx context.Context, since time.Time, locationID string) ([]*entity.StockHistoryEntry, error)
	// ListByStockAfter devuelve las entradas de una clave con timestamp > since.
	ListByStockAfter(ctx context.Context, stockID string, since time.Time) ([]*entity.StockHistoryEntry, error)
	// ListByStock lista entradas de una clave, más recientes primero.
	ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*entity.StockHistoryEntry, error)
}
