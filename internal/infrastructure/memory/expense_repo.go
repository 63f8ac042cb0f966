package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.ExpenseRepository = (*ExpenseRepo)(nil)
var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// ExpenseRepo implementación en memoria de ExpenseRepository.
type ExpenseRepo struct{ s *Store }

// Create persiste un gasto nuevo.
func (r *ExpenseRepo) Create(_ context.Context, expense *entity.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[expense.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *expense
	r.s.expenses[expense.ID] = &cp
	return nil
}

// GetByID obtiene un gasto por ID.
func (r *ExpenseRepo) GetByID(_ context.Context, id string) (*entity.Expense, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.expenses[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

// Update reemplaza el gasto existente.
func (r *ExpenseRepo) Update(_ context.Context, expense *entity.Expense) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[expense.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *expense
	r.s.expenses[expense.ID] = &cp
	return nil
}

// Delete elimina un gasto.
func (r *ExpenseRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.expenses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.expenses, id)
	return nil
}

// LatestByItem gasto de fecha más reciente del ítem (desempate por CreatedAt y luego por ID).
func (r *ExpenseRepo) LatestByItem(ctx context.Context, itemID, excludeID string) (*entity.Expense, error) {
	list, _ := r.ListByItem(ctx, itemID, 0, 0)
	for _, e := range list {
		if e.ID != excludeID {
			return e, nil
		}
	}
	return nil, nil
}

// ExistsForItem indica si hay gastos del ítem.
func (r *ExpenseRepo) ExistsForItem(_ context.Context, itemID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.expenses {
		if e.ItemID() == itemID {
			return true, nil
		}
	}
	return false, nil
}

// ListByItem gastos del ítem, más recientes primero; el ID desempata para que el orden sea estable.
func (r *ExpenseRepo) ListByItem(_ context.Context, itemID string, limit, offset int) ([]*entity.Expense, error) {
	r.s.mu.RLock()
	out := make([]*entity.Expense, 0)
	for _, e := range r.s.expenses {
		if e.ItemID() == itemID {
			cp := *e
			out = append(out, &cp)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if offset >= len(out) {
		return []*entity.Expense{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// PaymentRepo implementación en memoria de PaymentRepository.
type PaymentRepo struct{ s *Store }

// Create persiste un pago.
func (r *PaymentRepo) Create(_ context.Context, payment *entity.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *payment
	r.s.payments[payment.ID] = &cp
	return nil
}

// ListByExpense pagos vinculados a un gasto.
func (r *PaymentRepo) ListByExpense(_ context.Context, expenseID string) ([]*entity.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Payment, 0)
	for _, p := range r.s.payments {
		if p.ExpenseID == expenseID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteByExpense elimina los pagos vinculados al gasto.
func (r *PaymentRepo) DeleteByExpense(_ context.Context, expenseID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, p := range r.s.payments {
		if expenseID != "" && p.ExpenseID == expenseID {
			delete(r.s.payments, id)
			n++
		}
	}
	return n, nil
}
