package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `id, product_id, location_id, quantity, created_at, updated_at`

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	if err := row.Scan(&s.ID, &s.ProductID, &s.LocationID, &s.Quantity, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene la fila por clave compuesta; nil, nil si no existe.
func (r *StockRepo) Get(ctx context.Context, id string) (*entity.StockRecord, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// Create inserta la fila; la PK sobre la clave compuesta convierte una carrera de creación en ErrConflict.
func (r *StockRepo) Create(ctx context.Context, s *entity.StockRecord) error {
	query := `
		INSERT INTO stocks (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, s.ID, s.ProductID, s.LocationID, s.Quantity, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

// Increment suma delta en una sola sentencia (sin leer y reescribir) y devuelve la cantidad previa.
func (r *StockRepo) Increment(ctx context.Context, id string, delta int64) (int64, error) {
	query := `
		UPDATE stocks SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING quantity`
	var after int64
	if err := r.q.QueryRow(ctx, query, id, delta).Scan(&after); err != nil {
		if isNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	return after - delta, nil
}

// Delete borra con RETURNING: la cantidad devuelta es la que tenía la fila al borrarse,
// sin ventana para un incremento concurrente.
func (r *StockRepo) Delete(ctx context.Context, id string) (*entity.StockRecord, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `DELETE FROM stocks WHERE id = $1 RETURNING `+stockColumns, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete stock: %w", err)
	}
	return s, nil
}

// List lista las filas; locationID vacío = todas.
func (r *StockRepo) List(ctx context.Context, locationID string) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE ($1 = '' OR location_id = $1) ORDER BY id`
	return r.list(ctx, query, locationID)
}

func (r *StockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE product_id = $1 ORDER BY id`
	return r.list(ctx, query, productID)
}

func (r *StockRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.StockRecord, 0)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *StockRepo) HasPositiveStock(ctx context.Context, productID string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stocks WHERE product_id = $1 AND quantity > 0)`, productID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("has positive stock: %w", err)
	}
	return ok, nil
}

// Rekey mueve la fila y su historial a la nueva clave en una transacción.
func (r *StockRepo) Rekey(ctx context.Context, oldID, newID string) error {
	return NewTxRunner(r.q).Run(ctx, func(q Querier) error {
		tag, err := q.Exec(ctx, `UPDATE stocks SET id = $2, updated_at = now() WHERE id = $1`, oldID, newID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("rekey stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if _, err := q.Exec(ctx, `UPDATE stock_history SET stock_id = $2 WHERE stock_id = $1`, oldID, newID); err != nil {
			return fmt.Errorf("rekey stock history: %w", err)
		}
		return nil
	})
}
