package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// ExpenseRepository puerto de persistencia para gastos (compras).
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Expense, error)
	Update(ctx context.Context, expense *entity.Expense) error
	Delete(ctx context.Context, id string) error
	// LatestByItem devuelve el gasto de fecha más reciente del producto/servicio, excluyendo excludeID.
	LatestByItem(ctx context.Context, itemID, excludeID string) (*entity.Expense, error)
	ExistsForItem(ctx context.Context, itemID string) (bool, error)
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Expense, error)
}
