package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// StockRepository define el puerto para el stock por (producto, ubicación).
// La cantidad solo cambia mediante Increment (atómico), nunca sobrescribiendo el valor.
type StockRepository interface {
	// Get devuelve nil, nil si la fila no existe.
	Get(ctx context.Context, id string) (*entity.StockRecord, error)
	// Create inserta una fila nueva; domain.ErrConflict si la clave ya existe (carrera de creación).
	Create(ctx context.Context, stock *entity.StockRecord) error
	// Increment suma delta de forma atómica y devuelve la cantidad previa; domain.ErrNotFound si no existe.
	Increment(ctx context.Context, id string, delta int64) (before int64, err error)
	// Delete borra la fila y devuelve su último estado; lectura y borrado son atómicos.
	Delete(ctx context.Context, id string) (*entity.StockRecord, error)
	// List lista las filas; locationID vacío = todas las ubicaciones.
	List(ctx context.Context, locationID string) ([]*entity.StockRecord, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error)
	HasPositiveStock(ctx context.Context, productID string) (bool, error)
	// Rekey cambia el id de una fila (y de su historial); domain.ErrAlreadyExists si newID está ocupado.
	Rekey(ctx context.Context, oldID, newID string) error
}
