package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.StockHistoryRepository = (*StockHistoryRepo)(nil)

// StockHistoryRepo diario de movimientos (solo INSERT y SELECT).
type StockHistoryRepo struct {
	q Querier
}

func NewStockHistoryRepository(q Querier) *StockHistoryRepo {
	return &StockHistoryRepo{q: q}
}

const historyColumns = `id, stock_id, product_id, location_id, actor, change, reason, current_amount, reference, created_at`

func (r *StockHistoryRepo) Append(ctx context.Context, e *entity.StockHistoryEntry) error {
	query := `
		INSERT INTO stock_history (` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.StockID, e.ProductID, e.LocationID, e.Actor,
		e.Change, e.Reason, e.CurrentAmount, e.Reference, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock history: %w", err)
	}
	return nil
}

// ListAfter entradas con created_at > since; locationID vacío = todas.
func (r *StockHistoryRepo) ListAfter(ctx context.Context, since time.Time, locationID string) ([]*entity.StockHistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM stock_history
		WHERE created_at > $1 AND ($2 = '' OR location_id = $2)
		ORDER BY created_at, id`
	return r.list(ctx, query, since, locationID)
}

func (r *StockHistoryRepo) ListByStockAfter(ctx context.Context, stockID string, since time.Time) ([]*entity.StockHistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM stock_history
		WHERE stock_id = $1 AND created_at > $2
		ORDER BY created_at, id`
	return r.list(ctx, query, stockID, since)
}

// ListByStock entradas de una clave, más recientes primero.
func (r *StockHistoryRepo) ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*entity.StockHistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM stock_history
		WHERE stock_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0) OFFSET $3`
	return r.list(ctx, query, stockID, limit, offset)
}

func (r *StockHistoryRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockHistoryEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock history: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.StockHistoryEntry, 0)
	for rows.Next() {
		var e entity.StockHistoryEntry
		if err := rows.Scan(
			&e.ID, &e.StockID, &e.ProductID, &e.LocationID, &e.Actor,
			&e.Change, &e.Reason, &e.CurrentAmount, &e.Reference, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock history: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
