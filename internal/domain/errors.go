package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// La taxonomía expuesta hacia afuera es VALIDATION, NOT_FOUND, CONFLICT e INTERNAL.
var (
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrConflict      = errors.New("conflicto con el estado actual")
	ErrAlreadyExists = errors.New("el recurso ya existe")

	// ErrReferencedItem: el ítem de catálogo tiene stock, gastos, conteos o vínculos de marketplace.
	ErrReferencedItem = errors.Join(ErrInvalidInput, errors.New("ítem de catálogo referenciado"))
	// ErrSourceStockMissing: traslado desde una fila de stock inexistente.
	ErrSourceStockMissing = errors.Join(ErrNotFound, errors.New("stock de origen inexistente"))
)

// Códigos de la taxonomía de errores.
const (
	KindValidation = "VALIDATION"
	KindNotFound   = "NOT_FOUND"
	KindConflict   = "CONFLICT"
	KindInternal   = "INTERNAL"
)

// Kind clasifica cualquier error en su código de taxonomía. NOT_FOUND tiene prioridad
// sobre VALIDATION cuando un error envuelve ambos.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists):
		return KindConflict
	default:
		return KindInternal
	}
}
