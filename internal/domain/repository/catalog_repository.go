package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// CatalogRepository puerto de persistencia para productos y servicios.
// El alta/edición del catálogo vive fuera de este servicio; aquí solo se lee,
// se actualiza el precio derivado y se hace borrado lógico.
type CatalogRepository interface {
	// GetByID devuelve nil, nil si no existe (incluye ítems con borrado lógico).
	GetByID(ctx context.Context, id string) (*entity.CatalogItem, error)
	// List lista ítems activos de un tipo; kind vacío = todos.
	List(ctx context.Context, kind string) ([]*entity.CatalogItem, error)
	UpdateUnitPrice(ctx context.Context, id string, price decimal.Decimal) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
}
