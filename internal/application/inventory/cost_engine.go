package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// CostEngine mantiene el costo unitario derivado (UnitPrice) de productos y servicios
// a partir de los gastos registrados. Es el único escritor de UnitPrice.
type CostEngine struct {
	catalog  repository.CatalogRepository
	expenses repository.ExpenseRepository
	stocks   repository.StockRepository
	notifier *notify.Notifier
	log      *logger.Logger
}

// NewCostEngine construye el motor de costos.
func NewCostEngine(
	catalog repository.CatalogRepository,
	expenses repository.ExpenseRepository,
	stocks repository.StockRepository,
	notifier *notify.Notifier,
	log *logger.Logger,
) *CostEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &CostEngine{
		catalog:  catalog,
		expenses: expenses,
		stocks:   stocks,
		notifier: notifier,
		log:      log.Component("cost_engine"),
	}
}

// OnExpenseCreated fija el precio unitario si el gasto es el de fecha más reciente del ítem
// (el empate favorece al gasto nuevo). El gasto ya debe estar persistido.
// Devuelve true si el precio cambió.
func (c *CostEngine) OnExpenseCreated(ctx context.Context, e *entity.Expense, actor string) (bool, error) {
	itemID := e.ItemID()
	if itemID == "" {
		return false, fmt.Errorf("%w: gasto %s sin producto ni servicio", domain.ErrInvalidInput, e.ID)
	}
	prior, err := c.expenses.LatestByItem(ctx, itemID, e.ID)
	if err != nil {
		return false, fmt.Errorf("último gasto de %s: %w", itemID, err)
	}
	if prior != nil && !inventory.ShouldSetPrice(e.Date, &prior.Date) {
		c.log.Debug().Str("item_id", itemID).Str("expense_id", e.ID).
			Time("date", e.Date).Time("latest", prior.Date).
			Msg("gasto con fecha anterior al último: el precio no cambia")
		return false, nil
	}
	price, ok := inventory.UnitPriceFromTotal(e.TotalAmount, e.Quantity)
	if !ok {
		c.log.Warn().Str("expense_id", e.ID).Int64("quantity", e.Quantity).
			Msg("cantidad no positiva: no se puede derivar el precio")
		return false, nil
	}
	_, changed, err := c.SetUnitPrice(ctx, itemID, price, actor)
	return changed, err
}

// OnExpenseUpdated re-evalúa el precio con la regla de creación para el gasto ya modificado.
func (c *CostEngine) OnExpenseUpdated(ctx context.Context, e *entity.Expense, actor string) (bool, error) {
	return c.OnExpenseCreated(ctx, e, actor)
}

// OnExpenseDeleted recalcula el precio tras eliminar el gasto (que ya no debe existir en el repositorio):
// valor en libros del stock positivo restante al precio previo; si no hay stock positivo,
// total/cantidad del gasto restante más reciente; si tampoco hay gastos, 0.
func (c *CostEngine) OnExpenseDeleted(ctx context.Context, e *entity.Expense, actor string) (bool, error) {
	itemID := e.ItemID()
	if itemID == "" {
		return false, fmt.Errorf("%w: gasto %s sin producto ni servicio", domain.ErrInvalidInput, e.ID)
	}
	item, err := c.catalog.GetByID(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("leer ítem %s: %w", itemID, err)
	}
	if item == nil {
		return false, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, itemID)
	}

	var stocks []*entity.StockRecord
	if e.Type == entity.ExpenseTypeStockable {
		stocks, err = c.stocks.ListByProduct(ctx, itemID)
		if err != nil {
			return false, fmt.Errorf("stock de %s: %w", itemID, err)
		}
	}
	latest, err := c.expenses.LatestByItem(ctx, itemID, e.ID)
	if err != nil {
		return false, fmt.Errorf("último gasto de %s: %w", itemID, err)
	}

	price := inventory.RecomputeAfterDeletion(stocks, item.UnitPrice, latest)
	_, changed, err := c.SetUnitPrice(ctx, itemID, price, actor)
	return changed, err
}

// SetUnitPrice escribe el precio (redondeado a 4 decimales) y devuelve el anterior.
// Invalida la caché del ítem y del listado de su tipo, y emite catalog.price_changed.
func (c *CostEngine) SetUnitPrice(ctx context.Context, itemID string, price decimal.Decimal, actor string) (previous decimal.Decimal, changed bool, err error) {
	item, err := c.catalog.GetByID(ctx, itemID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("leer ítem %s: %w", itemID, err)
	}
	if item == nil {
		return decimal.Zero, false, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, itemID)
	}
	price = inventory.Round4(price)
	previous = item.UnitPrice
	if previous.Equal(price) {
		return previous, false, nil
	}
	if err := c.catalog.UpdateUnitPrice(ctx, itemID, price); err != nil {
		return previous, false, fmt.Errorf("actualizar precio de %s: %w", itemID, err)
	}

	c.notifier.Invalidate(ports.CatalogKeys(item.Kind, item.ID)...)
	c.notifier.Emit(ctx, ports.TopicCatalogPrice, itemID, actor, dto.PriceChangeEvent{
		ItemID: itemID, Kind: item.Kind, Previous: previous, UnitPrice: price,
	})
	c.log.Info().Str("item_id", itemID).Str("previous", previous.String()).Str("unit_price", price.String()).
		Msg("precio unitario actualizado")
	return previous, true, nil
}
