package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo implementación de CatalogRepository sobre PostgreSQL.
type CatalogRepo struct {
	q Querier
}

func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

const catalogColumns = `id, kind, name, category, brand, unit_measure, unit_price, is_deleted, deleted_at, created_at, updated_at`

func scanCatalogItem(row pgx.Row) (*entity.CatalogItem, error) {
	var it entity.CatalogItem
	err := row.Scan(
		&it.ID, &it.Kind, &it.Name, &it.Category, &it.Brand, &it.UnitMeasure,
		&it.UnitPrice, &it.IsDeleted, &it.DeletedAt, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// GetByID incluye ítems dados de baja; el llamador decide.
func (r *CatalogRepo) GetByID(ctx context.Context, id string) (*entity.CatalogItem, error) {
	it, err := scanCatalogItem(r.q.QueryRow(ctx, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get catalog item: %w", err)
	}
	return it, nil
}

// List ítems activos; kind vacío = todos.
func (r *CatalogRepo) List(ctx context.Context, kind string) ([]*entity.CatalogItem, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_items
		WHERE is_deleted = false AND ($1 = '' OR kind = $1)
		ORDER BY name`
	rows, err := r.q.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.CatalogItem, 0)
	for rows.Next() {
		it, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) UpdateUnitPrice(ctx context.Context, id string, price decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE catalog_items SET unit_price = $2, updated_at = now() WHERE id = $1`, id, price)
	if err != nil {
		return fmt.Errorf("update unit price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CatalogRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE catalog_items SET is_deleted = true, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND is_deleted = false`
	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("soft delete catalog item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
