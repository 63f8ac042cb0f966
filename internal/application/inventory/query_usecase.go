package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

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

// QueryUseCase lecturas del stock actual y reconstrucción a una fecha de corte. Nunca escribe.
type QueryUseCase struct {
	stocks   repository.StockRepository
	history  repository.StockHistoryRepository
	catalog  repository.CatalogRepository
	notifier *notify.Notifier
	log      *logger.Logger
}

// NewQueryUseCase construye la capa de consultas.
func NewQueryUseCase(
	stocks repository.StockRepository,
	history repository.StockHistoryRepository,
	catalog repository.CatalogRepository,
	notifier *notify.Notifier,
	log *logger.Logger,
) *QueryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QueryUseCase{
		stocks:   stocks,
		history:  history,
		catalog:  catalog,
		notifier: notifier,
		log:      log.Component("stock_query"),
	}
}

// FindAllStocks lista el stock actual. Sin filtro de ubicación usa el snapshot "stocks:all" de la caché.
func (uc *QueryUseCase) FindAllStocks(ctx context.Context, locationID string) ([]*entity.StockRecord, error) {
	cache := uc.notifier.Cache()
	if locationID == "" && cache != nil {
		if v, ok := cache.Get(ports.CacheKeyAllStocks); ok {
			if list, ok := v.([]*entity.StockRecord); ok {
				return cloneStocks(list), nil
			}
		}
	}
	list, err := uc.stocks.List(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("listar stock: %w", err)
	}
	if locationID == "" && cache != nil {
		cache.Set(ports.CacheKeyAllStocks, cloneStocks(list))
	}
	return list, nil
}

// ReconstructQuantityAsOf cantidad de (producto, ubicación) a la fecha at:
// cantidad actual − Σ cambios posteriores a at. Sin fila ni historial la cantidad es 0.
func (uc *QueryUseCase) ReconstructQuantityAsOf(ctx context.Context, productID, locationID string, at time.Time) (int64, error) {
	id, err := inventory.StockKey(productID, locationID)
	if err != nil {
		return 0, err
	}
	rec, err := uc.stocks.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("leer stock %s: %w", id, err)
	}
	var current int64
	if rec != nil {
		current = rec.Quantity
	}
	entries, err := uc.history.ListByStockAfter(ctx, id, at)
	if err != nil {
		return 0, fmt.Errorf("historial de %s: %w", id, err)
	}
	return inventory.QuantityAsOf(current, entries, at), nil
}

// ReconstructAllAsOf versión por lotes: una sola lectura del historial posterior al corte,
// agrupada por clave. Incluye claves ya eliminadas cuyo resultado a la fecha no es cero.
func (uc *QueryUseCase) ReconstructAllAsOf(ctx context.Context, at time.Time, locationID string) ([]dto.StockAsOf, error) {
	current, err := uc.stocks.List(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("listar stock: %w", err)
	}
	entries, err := uc.history.ListAfter(ctx, at, locationID)
	if err != nil {
		return nil, fmt.Errorf("historial posterior a %s: %w", at.Format(time.RFC3339), err)
	}
	after := inventory.ChangesAfterByKey(entries, at)

	out := make([]dto.StockAsOf, 0, len(current))
	seen := make(map[string]struct{}, len(current))
	for _, rec := range current {
		seen[rec.ID] = struct{}{}
		out = append(out, dto.StockAsOf{
			StockID:    rec.ID,
			ProductID:  rec.ProductID,
			LocationID: rec.LocationID,
			Quantity:   rec.Quantity - after[rec.ID],
		})
	}
	// Filas que ya no existen (eliminadas después del corte): su cantidad actual es 0.
	orphans := make(map[string]dto.StockAsOf)
	for _, e := range entries {
		if _, ok := seen[e.StockID]; ok {
			continue
		}
		if _, ok := orphans[e.StockID]; ok {
			continue
		}
		if q := -after[e.StockID]; q != 0 {
			orphans[e.StockID] = dto.StockAsOf{StockID: e.StockID, ProductID: e.ProductID, LocationID: e.LocationID, Quantity: q}
		}
	}
	for _, o := range orphans {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockID < out[j].StockID })
	return out, nil
}

// ValuationAsOf Σ(cantidad reconstruida × precio unitario ACTUAL del ítem) por producto.
// productIDs vacío = todos los productos con stock reconstruido.
func (uc *QueryUseCase) ValuationAsOf(ctx context.Context, at time.Time, productIDs []string, locationID string) (*dto.ValuationReport, error) {
	rows, err := uc.ReconstructAllAsOf(ctx, at, locationID)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}

	qty := make(map[string]int64)
	order := make([]string, 0)
	for _, r := range rows {
		if len(wanted) > 0 && !wanted[r.ProductID] {
			continue
		}
		if _, ok := qty[r.ProductID]; !ok {
			order = append(order, r.ProductID)
		}
		qty[r.ProductID] += r.Quantity
	}
	for _, id := range productIDs {
		if _, ok := qty[id]; !ok {
			qty[id] = 0
			order = append(order, id)
		}
	}
	sort.Strings(order)

	report := &dto.ValuationReport{At: at, LocationID: locationID, Lines: make([]dto.ValuationLine, 0, len(order)), Total: decimal.Zero}
	for _, productID := range order {
		item, err := uc.catalog.GetByID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("leer ítem %s: %w", productID, err)
		}
		price := decimal.Zero
		if item != nil {
			price = item.UnitPrice
		} else {
			uc.log.Warn().Str("product_id", productID).Msg("producto sin ítem de catálogo: se valoriza a 0")
		}
		value := decimal.NewFromInt(qty[productID]).Mul(price)
		report.Lines = append(report.Lines, dto.ValuationLine{
			ProductID: productID, Quantity: qty[productID], UnitPrice: price, Value: value,
		})
		report.Total = report.Total.Add(value)
	}
	return report, nil
}

// History líneas del diario de (producto, ubicación), más recientes primero.
func (uc *QueryUseCase) History(ctx context.Context, productID, locationID string, limit, offset int) ([]*entity.StockHistoryEntry, error) {
	id, err := inventory.StockKey(productID, locationID)
	if err != nil {
		return nil, err
	}
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: paginación inválida", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = 50
	}
	return uc.history.ListByStock(ctx, id, limit, offset)
}

func cloneStocks(in []*entity.StockRecord) []*entity.StockRecord {
	out := make([]*entity.StockRecord, len(in))
	for i, s := range in {
		cp := *s
		out[i] = &cp
	}
	return out
}
