package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// CatalogUseCase lecturas del catálogo y borrado lógico con guarda de referencias.
// El alta y la edición de ítems viven en la administración del catálogo; UnitPrice lo escribe el motor de costos.
type CatalogUseCase struct {
	repo        repository.CatalogRepository
	stocks      repository.StockRepository
	expenses    repository.ExpenseRepository
	counts      repository.StockCountRepository
	marketplace repository.MarketplaceMatchRepository
	notifier    *notify.Notifier
	log         *logger.Logger
	now         func() time.Time
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(
	repo repository.CatalogRepository,
	stocks repository.StockRepository,
	expenses repository.ExpenseRepository,
	counts repository.StockCountRepository,
	marketplace repository.MarketplaceMatchRepository,
	notifier *notify.Notifier,
	log *logger.Logger,
) *CatalogUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogUseCase{
		repo:        repo,
		stocks:      stocks,
		expenses:    expenses,
		counts:      counts,
		marketplace: marketplace,
		notifier:    notifier,
		log:         log.Component("catalog"),
		now:         time.Now,
	}
}

// GetByID obtiene un ítem activo (lectura a través de la caché).
func (uc *CatalogUseCase) GetByID(ctx context.Context, id string) (*dto.CatalogItemResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id requerido", domain.ErrInvalidInput)
	}
	cache := uc.notifier.Cache()
	if cache != nil {
		if v, ok := cache.Get(ports.CacheKeyItem(id)); ok {
			if item, ok := v.(dto.CatalogItemResponse); ok {
				return &item, nil
			}
		}
	}
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer ítem %s: %w", id, err)
	}
	if item == nil || item.IsDeleted {
		return nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, id)
	}
	out := toCatalogResponse(item)
	if cache != nil {
		cache.Set(ports.CacheKeyItem(id), out)
	}
	return &out, nil
}

// List lista los ítems activos de un tipo (PRODUCT o SERVICE); kind vacío = todos, sin caché.
func (uc *CatalogUseCase) List(ctx context.Context, kind string) ([]dto.CatalogItemResponse, error) {
	var key string
	switch kind {
	case entity.CatalogKindProduct:
		key = ports.CacheKeyAllProducts
	case entity.CatalogKindService:
		key = ports.CacheKeyAllServices
	case "":
	default:
		return nil, fmt.Errorf("%w: tipo de ítem desconocido %q", domain.ErrInvalidInput, kind)
	}

	cache := uc.notifier.Cache()
	if key != "" && cache != nil {
		if v, ok := cache.Get(key); ok {
			if list, ok := v.([]dto.CatalogItemResponse); ok {
				return append([]dto.CatalogItemResponse(nil), list...), nil
			}
		}
	}
	items, err := uc.repo.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("listar catálogo: %w", err)
	}
	out := make([]dto.CatalogItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toCatalogResponse(it))
	}
	if key != "" && cache != nil {
		cache.Set(key, append([]dto.CatalogItemResponse(nil), out...))
	}
	return out, nil
}

// Remove hace borrado lógico del ítem. Se rechaza con VALIDATION, sin mutar nada, si el ítem
// tiene stock positivo, gastos vinculados, líneas de conteo o un ítem de marketplace vinculado.
func (uc *CatalogUseCase) Remove(ctx context.Context, actor, id string) error {
	if actor == "" {
		return fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("leer ítem %s: %w", id, err)
	}
	if item == nil || item.IsDeleted {
		return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, id)
	}
	if err := uc.checkReferences(ctx, item); err != nil {
		return err
	}

	if err := uc.repo.SoftDelete(ctx, id, uc.now()); err != nil {
		return fmt.Errorf("eliminar ítem %s: %w", id, err)
	}
	uc.notifier.Invalidate(ports.CatalogKeys(item.Kind, item.ID)...)
	uc.notifier.Emit(ctx, ports.TopicCatalogRemoved, id, actor, toCatalogResponse(item))
	uc.notifier.Audit(ctx, actor, "CATALOG_DELETE", "catalog_item", id, item, nil)
	return nil
}

func (uc *CatalogUseCase) checkReferences(ctx context.Context, item *entity.CatalogItem) error {
	if item.IsProduct() {
		ok, err := uc.stocks.HasPositiveStock(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("verificar stock de %s: %w", item.ID, err)
		}
		if ok {
			return fmt.Errorf("%w: %s tiene stock positivo", domain.ErrReferencedItem, item.ID)
		}
	}
	ok, err := uc.expenses.ExistsForItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("verificar gastos de %s: %w", item.ID, err)
	}
	if ok {
		return fmt.Errorf("%w: %s tiene gastos vinculados", domain.ErrReferencedItem, item.ID)
	}
	ok, err = uc.counts.ReferencesItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("verificar conteos de %s: %w", item.ID, err)
	}
	if ok {
		return fmt.Errorf("%w: %s figura en un conteo físico", domain.ErrReferencedItem, item.ID)
	}
	ok, err = uc.marketplace.HasMatchedItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("verificar marketplace de %s: %w", item.ID, err)
	}
	if ok {
		return fmt.Errorf("%w: %s está vinculado a un marketplace", domain.ErrReferencedItem, item.ID)
	}
	return nil
}

func toCatalogResponse(item *entity.CatalogItem) dto.CatalogItemResponse {
	return dto.CatalogItemResponse{
		ID:          item.ID,
		Kind:        item.Kind,
		Name:        item.Name,
		Category:    item.Category,
		Brand:       item.Brand,
		UnitMeasure: item.UnitMeasure,
		UnitPrice:   item.UnitPrice,
	}
}
