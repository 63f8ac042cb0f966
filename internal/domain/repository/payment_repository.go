package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// PaymentRepository puerto de persistencia para pagos.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	ListByExpense(ctx context.Context, expenseID string) ([]*entity.Payment, error)
	// DeleteByExpense elimina los pagos vinculados al gasto y devuelve cuántos eliminó.
	DeleteByExpense(ctx context.Context, expenseID string) (int, error)
}
