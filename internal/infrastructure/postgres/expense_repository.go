package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var (
	_ repository.ExpenseRepository = (*ExpenseRepo)(nil)
	_ repository.PaymentRepository = (*PaymentRepo)(nil)
)

// ExpenseRepo implementación de ExpenseRepository sobre PostgreSQL.
type ExpenseRepo struct {
	q Querier
}

func NewExpenseRepository(q Querier) *ExpenseRepo {
	return &ExpenseRepo{q: q}
}

const expenseColumns = `id, type, product_id, service_id, location_id, quantity, total_amount, date,
	payment_method, category, brand, vendor, note, is_stock_increment, is_paid, created_by, created_at, updated_at`

// item_id es columna generada: product_id para STOCKABLE, service_id en otro caso.
func scanExpense(row pgx.Row) (*entity.Expense, error) {
	var e entity.Expense
	err := row.Scan(
		&e.ID, &e.Type, &e.ProductID, &e.ServiceID, &e.LocationID, &e.Quantity, &e.TotalAmount, &e.Date,
		&e.PaymentMethod, &e.Category, &e.Brand, &e.Vendor, &e.Note, &e.IsStockIncrement, &e.IsPaid,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExpenseRepo) Create(ctx context.Context, e *entity.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.Type, e.ProductID, e.ServiceID, e.LocationID, e.Quantity, e.TotalAmount, e.Date,
		e.PaymentMethod, e.Category, e.Brand, e.Vendor, e.Note, e.IsStockIncrement, e.IsPaid,
		e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepo) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	e, err := scanExpense(r.q.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *ExpenseRepo) Update(ctx context.Context, e *entity.Expense) error {
	query := `
		UPDATE expenses SET
			type = $2, product_id = $3, service_id = $4, location_id = $5, quantity = $6,
			total_amount = $7, date = $8, payment_method = $9, category = $10, brand = $11,
			vendor = $12, note = $13, is_stock_increment = $14, is_paid = $15, updated_at = $16
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		e.ID, e.Type, e.ProductID, e.ServiceID, e.LocationID, e.Quantity,
		e.TotalAmount, e.Date, e.PaymentMethod, e.Category, e.Brand,
		e.Vendor, e.Note, e.IsStockIncrement, e.IsPaid, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ExpenseRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LatestByItem gasto de fecha más reciente del ítem; desempata por created_at.
func (r *ExpenseRepo) LatestByItem(ctx context.Context, itemID, excludeID string) (*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE item_id = $1 AND id <> $2
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT 1`
	e, err := scanExpense(r.q.QueryRow(ctx, query, itemID, excludeID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest expense by item: %w", err)
	}
	return e, nil
}

func (r *ExpenseRepo) ExistsForItem(ctx context.Context, itemID string) (bool, error) {
	var ok bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM expenses WHERE item_id = $1)`, itemID).Scan(&ok); err != nil {
		return false, fmt.Errorf("expense exists for item: %w", err)
	}
	return ok, nil
}

func (r *ExpenseRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE item_id = $1
		ORDER BY date DESC, created_at DESC, id DESC
		LIMIT NULLIF($2, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PaymentRepo pagos vinculados a gastos.
type PaymentRepo struct {
	q Querier
}

func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, expense_id, amount, date, payment_method, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, p.ID, p.ExpenseID, p.Amount, p.Date, p.PaymentMethod, p.CreatedBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) ListByExpense(ctx context.Context, expenseID string) ([]*entity.Payment, error) {
	query := `SELECT id, expense_id, amount, date, payment_method, created_by, created_at
		FROM payments WHERE expense_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Payment, 0)
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.Amount, &p.Date, &p.PaymentMethod, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PaymentRepo) DeleteByExpense(ctx context.Context, expenseID string) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM payments WHERE expense_id = $1`, expenseID)
	if err != nil {
		return 0, fmt.Errorf("delete payments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
