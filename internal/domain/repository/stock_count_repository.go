package repository

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// StockCountRepository puerto para las líneas de conteo físico.
type StockCountRepository interface {
	// GetLine devuelve nil, nil si la línea no existe.
	GetLine(ctx context.Context, countID, productID, locationID string) (*entity.StockCountLine, error)
	MarkReconciled(ctx context.Context, countID, productID, locationID string, at time.Time) error
	ReferencesItem(ctx context.Context, productID string) (bool, error)
}

// MarketplaceMatchRepository puerto para los vínculos con ítems de marketplaces externos.
type MarketplaceMatchRepository interface {
	HasMatchedItem(ctx context.Context, catalogItemID string) (bool, error)
}
