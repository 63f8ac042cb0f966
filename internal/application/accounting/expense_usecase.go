package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	appinv "github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// Modos de consistencia de la cascada gasto → stock → costo → pago.
const (
	ModeBestEffort = "best_effort" // cada paso confirma por separado; los secundarios solo se registran
	ModeSaga       = "saga"        // un fallo compensa los pasos ya aplicados
)

// ExpenseUseCase orquesta las compras: persiste el gasto y deriva stock, costo y pago.
type ExpenseUseCase struct {
	expenses repository.ExpenseRepository
	payments repository.PaymentRepository
	catalog  repository.CatalogRepository
	ledger   *appinv.LedgerUseCase
	cost     *appinv.CostEngine
	notifier *notify.Notifier
	log      *logger.Logger
	mode     string
	now      func() time.Time
}

// NewExpenseUseCase construye el caso de uso. mode vacío = best_effort.
func NewExpenseUseCase(
	expenses repository.ExpenseRepository,
	payments repository.PaymentRepository,
	catalog repository.CatalogRepository,
	ledger *appinv.LedgerUseCase,
	cost *appinv.CostEngine,
	notifier *notify.Notifier,
	log *logger.Logger,
	mode string,
) *ExpenseUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if mode != ModeSaga {
		mode = ModeBestEffort
	}
	return &ExpenseUseCase{
		expenses: expenses,
		payments: payments,
		catalog:  catalog,
		ledger:   ledger,
		cost:     cost,
		notifier: notifier,
		log:      log.Component("expense"),
		mode:     mode,
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (uc *ExpenseUseCase) SetClock(now func() time.Time) { uc.now = now }

// Mode devuelve el modo de consistencia activo.
func (uc *ExpenseUseCase) Mode() string { return uc.mode }

// Create registra una compra.
func (uc *ExpenseUseCase) Create(ctx context.Context, actor string, in dto.CreateExpenseRequest) (*dto.ExpenseResponse, error) {
	e := &entity.Expense{
		Type:             in.Type,
		ProductID:        in.ProductID,
		ServiceID:        in.ServiceID,
		LocationID:       in.LocationID,
		Quantity:         in.Quantity,
		TotalAmount:      in.TotalAmount,
		Date:             in.Date,
		PaymentMethod:    in.PaymentMethod,
		Category:         in.Category,
		Brand:            in.Brand,
		Vendor:           in.Vendor,
		Note:             in.Note,
		IsStockIncrement: in.IsStockIncrement,
		IsPaid:           in.IsPaid,
	}
	created, err := uc.create(ctx, actor, e)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(created, ""), nil
}

// GetByID obtiene un gasto.
func (uc *ExpenseUseCase) GetByID(ctx context.Context, id string) (*dto.ExpenseResponse, error) {
	e, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(e, ""), nil
}

// ListByItem gastos de un producto o servicio, más recientes primero.
func (uc *ExpenseUseCase) ListByItem(ctx context.Context, itemID string, page dto.PageRequest) ([]dto.ExpenseResponse, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: item_id requerido", domain.ErrInvalidInput)
	}
	list, err := uc.expenses.ListByItem(ctx, itemID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar gastos: %w", err)
	}
	out := make([]dto.ExpenseResponse, 0, len(list))
	for _, e := range list {
		out = append(out, *toExpenseResponse(e, ""))
	}
	return out, nil
}

// Update aplica un parche clasificado (cosmético, cantidad o identidad) y devuelve el gasto resultante.
// En un cambio de identidad el gasto resultante tiene un ID nuevo.
func (uc *ExpenseUseCase) Update(ctx context.Context, actor, id string, in dto.UpdateExpenseRequest) (*dto.ExpenseResponse, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	existing, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	patch := toPatch(in)
	if patch.Quantity != nil && *patch.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	if patch.TotalAmount != nil && patch.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: el total no puede ser negativo", domain.ErrInvalidInput)
	}

	class := inventory.ClassifyUpdate(existing, patch)
	merged := patch.Apply(*existing)

	var result *entity.Expense
	switch class {
	case inventory.UpdateIdentity:
		result, err = uc.replace(ctx, actor, existing, &merged)
	default:
		result, err = uc.patch(ctx, actor, existing, &merged, class)
	}
	if err != nil {
		return nil, err
	}
	return toExpenseResponse(result, string(class)), nil
}

// Remove elimina el gasto revirtiendo su efecto en stock y sus pagos, y recalcula el costo.
func (uc *ExpenseUseCase) Remove(ctx context.Context, actor, id string) error {
	if actor == "" {
		return fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	e, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	return uc.remove(ctx, actor, e, entity.ReasonExpenseDelete)
}

func (uc *ExpenseUseCase) load(ctx context.Context, id string) (*entity.Expense, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id requerido", domain.ErrInvalidInput)
	}
	e, err := uc.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer gasto %s: %w", id, err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: gasto %s", domain.ErrNotFound, id)
	}
	return e, nil
}

// validate revisa el vínculo con el catálogo antes de cualquier mutación.
func (uc *ExpenseUseCase) validate(ctx context.Context, e *entity.Expense) error {
	switch e.Type {
	case entity.ExpenseTypeStockable:
		if e.ProductID == "" || e.ServiceID != "" {
			return fmt.Errorf("%w: un gasto STOCKABLE requiere producto y no servicio", domain.ErrInvalidInput)
		}
		if e.IsStockIncrement && e.LocationID == "" {
			return fmt.Errorf("%w: un gasto que incrementa stock requiere ubicación", domain.ErrInvalidInput)
		}
	case entity.ExpenseTypeNonStockable:
		if e.ServiceID == "" || e.ProductID != "" {
			return fmt.Errorf("%w: un gasto NONSTOCKABLE requiere servicio y no producto", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: tipo de gasto desconocido %q", domain.ErrInvalidInput, e.Type)
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	if e.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: el total no puede ser negativo", domain.ErrInvalidInput)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: fecha requerida", domain.ErrInvalidInput)
	}

	item, err := uc.catalog.GetByID(ctx, e.ItemID())
	if err != nil {
		return fmt.Errorf("leer ítem %s: %w", e.ItemID(), err)
	}
	if item == nil || item.IsDeleted {
		return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, e.ItemID())
	}
	if item.IsProduct() != (e.Type == entity.ExpenseTypeStockable) {
		return fmt.Errorf("%w: el ítem %s no corresponde al tipo de gasto %s", domain.ErrInvalidInput, item.ID, e.Type)
	}
	return nil
}

func (uc *ExpenseUseCase) create(ctx context.Context, actor string, e *entity.Expense) (*entity.Expense, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	if err := uc.validate(ctx, e); err != nil {
		return nil, err
	}
	now := uc.now()
	e.ID = uuid.New().String()
	e.CreatedBy = actor
	e.CreatedAt = now
	e.UpdatedAt = now

	var err error
	if uc.mode == ModeSaga {
		err = uc.createSaga(ctx, actor, e)
	} else {
		err = uc.createBestEffort(ctx, actor, e)
	}
	if err != nil {
		return nil, err
	}
	uc.notifier.Emit(ctx, ports.TopicExpenseCreated, e.ID, actor, toExpenseResponse(e, ""))
	uc.notifier.Audit(ctx, actor, "EXPENSE_CREATE", "expense", e.ID, nil, e)
	return e, nil
}

func (uc *ExpenseUseCase) createBestEffort(ctx context.Context, actor string, e *entity.Expense) error {
	if err := uc.expenses.Create(ctx, e); err != nil {
		return fmt.Errorf("guardar gasto: %w", err)
	}
	if _, err := uc.cost.OnExpenseCreated(ctx, e, actor); err != nil {
		uc.log.Error().Err(err).Str("expense_id", e.ID).Str("actor", actor).Str("step", "cost").
			Msg("gasto guardado pero el costo no se recalculó")
	}
	if e.AffectsStock() {
		if err := uc.move(ctx, actor, e, e.Quantity, entity.ReasonExpenseCreate); err != nil {
			return err
		}
	}
	if e.IsPaid {
		if err := uc.createPayment(ctx, actor, e); err != nil {
			return err
		}
	}
	return nil
}

func (uc *ExpenseUseCase) createSaga(ctx context.Context, actor string, e *entity.Expense) error {
	s := newSaga("expense.create", uc.log)
	s.add("persist",
		func(ctx context.Context) error { return uc.expenses.Create(ctx, e) },
		func(ctx context.Context) error { return uc.expenses.Delete(ctx, e.ID) },
	)
	var previous *decimal.Decimal
	s.add("cost",
		func(ctx context.Context) error {
			item, err := uc.catalog.GetByID(ctx, e.ItemID())
			if err != nil {
				return err
			}
			if item != nil {
				p := item.UnitPrice
				previous = &p
			}
			_, err = uc.cost.OnExpenseCreated(ctx, e, actor)
			return err
		},
		func(ctx context.Context) error { return uc.restorePrice(ctx, e.ItemID(), previous, actor) },
	)
	if e.AffectsStock() {
		s.add("stock",
			func(ctx context.Context) error { return uc.move(ctx, actor, e, e.Quantity, entity.ReasonExpenseCreate) },
			func(ctx context.Context) error { return uc.move(ctx, actor, e, -e.Quantity, entity.ReasonCompensation) },
		)
	}
	if e.IsPaid {
		s.add("payment",
			func(ctx context.Context) error { return uc.createPayment(ctx, actor, e) },
			func(ctx context.Context) error {
				_, err := uc.payments.DeleteByExpense(ctx, e.ID)
				return err
			},
		)
	}
	return s.run(ctx)
}

// patch aplica un cambio cosmético o de cantidad en sitio.
func (uc *ExpenseUseCase) patch(ctx context.Context, actor string, existing, merged *entity.Expense, class inventory.UpdateClass) (*entity.Expense, error) {
	if err := uc.validate(ctx, merged); err != nil {
		return nil, err
	}
	merged.UpdatedAt = uc.now()
	if err := uc.expenses.Update(ctx, merged); err != nil {
		return nil, fmt.Errorf("actualizar gasto %s: %w", merged.ID, err)
	}

	if class == inventory.UpdateQuantity && (existing.AffectsStock() || merged.AffectsStock()) {
		delta := merged.Quantity - existing.Quantity
		if err := uc.move(ctx, actor, merged, delta, entity.ReasonExpenseUpdate); err != nil {
			return nil, err
		}
	}
	if class == inventory.UpdateQuantity || !existing.TotalAmount.Equal(merged.TotalAmount) {
		if _, err := uc.cost.OnExpenseUpdated(ctx, merged, actor); err != nil {
			uc.log.Error().Err(err).Str("expense_id", merged.ID).Str("actor", actor).Str("step", "cost").
				Msg("gasto actualizado pero el costo no se recalculó")
		}
	}
	if err := uc.syncPayment(ctx, actor, existing, merged); err != nil {
		return nil, err
	}

	uc.notifier.Emit(ctx, ports.TopicExpenseUpdated, merged.ID, actor, toExpenseResponse(merged, string(class)))
	uc.notifier.Audit(ctx, actor, "EXPENSE_UPDATE", "expense", merged.ID, existing, merged)
	return merged, nil
}

// replace reemplaza el gasto ante un cambio de identidad: eliminación completa y alta con los campos combinados.
func (uc *ExpenseUseCase) replace(ctx context.Context, actor string, existing, merged *entity.Expense) (*entity.Expense, error) {
	if err := uc.validate(ctx, merged); err != nil {
		return nil, err
	}
	if err := uc.remove(ctx, actor, existing, entity.ReasonExpenseDelete); err != nil {
		return nil, err
	}
	next := *merged
	next.ID = ""
	next.CreatedBy = ""
	created, err := uc.create(ctx, actor, &next)
	if err != nil {
		uc.log.Error().Err(err).Str("expense_id", existing.ID).Str("actor", actor).
			Msg("gasto anterior eliminado pero el reemplazo no se pudo crear")
		return nil, err
	}
	return created, nil
}

func (uc *ExpenseUseCase) remove(ctx context.Context, actor string, e *entity.Expense, reason string) error {
	var err error
	var removedPayments int
	if uc.mode == ModeSaga {
		removedPayments, err = uc.removeSaga(ctx, actor, e, reason)
	} else {
		removedPayments, err = uc.removeBestEffort(ctx, actor, e, reason)
	}
	if err != nil {
		return err
	}
	if removedPayments > 0 {
		uc.notifier.Emit(ctx, ports.TopicPaymentDeleted, e.ID, actor, map[string]any{"expense_id": e.ID, "count": removedPayments})
	}
	uc.notifier.Emit(ctx, ports.TopicExpenseDeleted, e.ID, actor, toExpenseResponse(e, ""))
	uc.notifier.Audit(ctx, actor, "EXPENSE_DELETE", "expense", e.ID, e, nil)
	return nil
}

func (uc *ExpenseUseCase) removeBestEffort(ctx context.Context, actor string, e *entity.Expense, reason string) (int, error) {
	if e.AffectsStock() {
		if err := uc.move(ctx, actor, e, -e.Quantity, reason); err != nil {
			return 0, err
		}
	}
	n, err := uc.payments.DeleteByExpense(ctx, e.ID)
	if err != nil {
		return 0, fmt.Errorf("eliminar pagos del gasto %s: %w", e.ID, err)
	}
	if err := uc.expenses.Delete(ctx, e.ID); err != nil {
		return n, fmt.Errorf("eliminar gasto %s: %w", e.ID, err)
	}
	if _, err := uc.cost.OnExpenseDeleted(ctx, e, actor); err != nil {
		uc.log.Error().Err(err).Str("expense_id", e.ID).Str("actor", actor).Str("step", "cost").
			Msg("gasto eliminado pero el costo no se recalculó")
	}
	return n, nil
}

func (uc *ExpenseUseCase) removeSaga(ctx context.Context, actor string, e *entity.Expense, reason string) (int, error) {
	s := newSaga("expense.delete", uc.log)
	if e.AffectsStock() {
		s.add("stock",
			func(ctx context.Context) error { return uc.move(ctx, actor, e, -e.Quantity, reason) },
			func(ctx context.Context) error { return uc.move(ctx, actor, e, e.Quantity, entity.ReasonCompensation) },
		)
	}
	var saved []*entity.Payment
	s.add("payments",
		func(ctx context.Context) error {
			var err error
			if saved, err = uc.payments.ListByExpense(ctx, e.ID); err != nil {
				return err
			}
			_, err = uc.payments.DeleteByExpense(ctx, e.ID)
			return err
		},
		func(ctx context.Context) error {
			for _, p := range saved {
				if err := uc.payments.Create(ctx, p); err != nil {
					return err
				}
			}
			return nil
		},
	)
	s.add("persist",
		func(ctx context.Context) error { return uc.expenses.Delete(ctx, e.ID) },
		func(ctx context.Context) error { return uc.expenses.Create(ctx, e) },
	)
	s.add("cost",
		func(ctx context.Context) error {
			_, err := uc.cost.OnExpenseDeleted(ctx, e, actor)
			return err
		},
		nil,
	)
	if err := s.run(ctx); err != nil {
		return 0, err
	}
	return len(saved), nil
}

// restorePrice devuelve el precio al valor previo a la saga.
func (uc *ExpenseUseCase) restorePrice(ctx context.Context, itemID string, previous *decimal.Decimal, actor string) error {
	if previous == nil {
		return nil
	}
	_, _, err := uc.cost.SetUnitPrice(ctx, itemID, *previous, actor)
	return err
}

func (uc *ExpenseUseCase) move(ctx context.Context, actor string, e *entity.Expense, delta int64, reason string) error {
	_, err := uc.ledger.UpsertMovement(ctx, appinv.MovementInput{
		ProductID:  e.ProductID,
		LocationID: e.LocationID,
		Delta:      delta,
		Reason:     reason,
		Actor:      actor,
		Reference:  e.ID,
	})
	if err != nil {
		return fmt.Errorf("movimiento de stock del gasto %s: %w", e.ID, err)
	}
	return nil
}

func (uc *ExpenseUseCase) createPayment(ctx context.Context, actor string, e *entity.Expense) error {
	p := &entity.Payment{
		ID:            uuid.New().String(),
		ExpenseID:     e.ID,
		Amount:        e.TotalAmount,
		Date:          e.Date,
		PaymentMethod: e.PaymentMethod,
		CreatedBy:     actor,
		CreatedAt:     uc.now(),
	}
	if err := uc.payments.Create(ctx, p); err != nil {
		return fmt.Errorf("crear pago del gasto %s: %w", e.ID, err)
	}
	uc.notifier.Emit(ctx, ports.TopicPaymentCreated, p.ID, actor, map[string]any{
		"payment_id": p.ID, "expense_id": e.ID, "amount": p.Amount,
	})
	return nil
}

// syncPayment mantiene el pago vinculado alineado con isPaid, el total y el medio de pago.
func (uc *ExpenseUseCase) syncPayment(ctx context.Context, actor string, before, after *entity.Expense) error {
	switch {
	case !before.IsPaid && !after.IsPaid:
		return nil
	case before.IsPaid && after.IsPaid &&
		before.TotalAmount.Equal(after.TotalAmount) &&
		before.PaymentMethod == after.PaymentMethod &&
		before.Date.Equal(after.Date):
		return nil
	}
	if before.IsPaid {
		n, err := uc.payments.DeleteByExpense(ctx, after.ID)
		if err != nil {
			return fmt.Errorf("eliminar pagos del gasto %s: %w", after.ID, err)
		}
		if n > 0 {
			uc.notifier.Emit(ctx, ports.TopicPaymentDeleted, after.ID, actor, map[string]any{"expense_id": after.ID, "count": n})
		}
	}
	if after.IsPaid {
		return uc.createPayment(ctx, actor, after)
	}
	return nil
}

func toPatch(in dto.UpdateExpenseRequest) entity.ExpensePatch {
	return entity.ExpensePatch{
		ProductID:        in.ProductID,
		ServiceID:        in.ServiceID,
		LocationID:       in.LocationID,
		Quantity:         in.Quantity,
		TotalAmount:      in.TotalAmount,
		Date:             in.Date,
		PaymentMethod:    in.PaymentMethod,
		Category:         in.Category,
		Brand:            in.Brand,
		Vendor:           in.Vendor,
		Note:             in.Note,
		IsStockIncrement: in.IsStockIncrement,
		IsPaid:           in.IsPaid,
	}
}

func toExpenseResponse(e *entity.Expense, class string) *dto.ExpenseResponse {
	return &dto.ExpenseResponse{
		ID:               e.ID,
		Type:             e.Type,
		ProductID:        e.ProductID,
		ServiceID:        e.ServiceID,
		LocationID:       e.LocationID,
		Quantity:         e.Quantity,
		TotalAmount:      e.TotalAmount,
		Date:             e.Date,
		PaymentMethod:    e.PaymentMethod,
		Category:         e.Category,
		Brand:            e.Brand,
		Vendor:           e.Vendor,
		Note:             e.Note,
		IsStockIncrement: e.IsStockIncrement,
		IsPaid:           e.IsPaid,
		CreatedBy:        e.CreatedBy,
		UpdateClass:      class,
	}
}

var errUnknownMode = errors.New("modo de consistencia desconocido")

// ParseMode valida el modo configurado; vacío = best_effort.
func ParseMode(mode string) (string, error) {
	switch mode {
	case "":
		return ModeBestEffort, nil
	case ModeBestEffort, ModeSaga:
		return mode, nil
	}
	return "", fmt.Errorf("%w: %q", errUnknownMode, mode)
}
