package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var (
	_ repository.StockCountRepository       = (*CountRepo)(nil)
	_ repository.MarketplaceMatchRepository = (*MarketplaceRepo)(nil)
)

// CountRepo líneas de conteo físico.
type CountRepo struct {
	q Querier
}

func NewCountRepository(q Querier) *CountRepo {
	return &CountRepo{q: q}
}

func (r *CountRepo) GetLine(ctx context.Context, countID, productID, locationID string) (*entity.StockCountLine, error) {
	query := `SELECT count_id, product_id, location_id, observed_quantity, reconciled, reconciled_at
		FROM stock_count_lines
		WHERE count_id = $1 AND product_id = $2 AND location_id = $3`
	var l entity.StockCountLine
	err := r.q.QueryRow(ctx, query, countID, productID, locationID).Scan(
		&l.CountID, &l.ProductID, &l.LocationID, &l.ObservedQuantity, &l.Reconciled, &l.ReconciledAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get count line: %w", err)
	}
	return &l, nil
}

func (r *CountRepo) MarkReconciled(ctx context.Context, countID, productID, locationID string, at time.Time) error {
	query := `UPDATE stock_count_lines SET reconciled = true, reconciled_at = $4
		WHERE count_id = $1 AND product_id = $2 AND location_id = $3`
	tag, err := r.q.Exec(ctx, query, countID, productID, locationID, at)
	if err != nil {
		return fmt.Errorf("mark count reconciled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CountRepo) ReferencesItem(ctx context.Context, productID string) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_count_lines WHERE product_id = $1)`, productID).Scan(&ok); err != nil {
		return false, fmt.Errorf("count references item: %w", err)
	}
	return ok, nil
}

// MarketplaceRepo vínculos de ítems del catálogo con marketplaces externos.
type MarketplaceRepo struct {
	q Querier
}

func NewMarketplaceRepository(q Querier) *MarketplaceRepo {
	return &MarketplaceRepo{q: q}
}

func (r *MarketplaceRepo) HasMatchedItem(ctx context.Context, catalogItemID string) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM marketplace_matches WHERE catalog_item_id = $1)`, catalogItemID).Scan(&ok); err != nil {
		return false, fmt.Errorf("marketplace match: %w", err)
	}
	return ok, nil
}
