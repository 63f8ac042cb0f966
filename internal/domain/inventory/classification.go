package inventory

import "github.com/jhoicas/backoffice-api/internal/domain/entity"

// UpdateClass clasificación de una actualización de gasto respecto al registro existente.
type UpdateClass string

const (
	// UpdateCosmetic: producto, cantidad, ubicación y fecha sin cambios; parche en sitio sin efecto en stock.
	UpdateCosmetic UpdateClass = "COSMETIC"
	// UpdateQuantity: misma identidad, cambia la cantidad; ajuste por delta.
	UpdateQuantity UpdateClass = "QUANTITY"
	// UpdateIdentity: cambia producto/servicio, ubicación o fecha; se elimina y se recrea el gasto.
	UpdateIdentity UpdateClass = "IDENTITY"
)

// ClassifyUpdate compara solo los campos presentes en el patch contra el gasto existente.
func ClassifyUpdate(existing *entity.Expense, patch entity.ExpensePatch) UpdateClass {
	if patch.ProductID != nil && *patch.ProductID != existing.ProductID {
		return UpdateIdentity
	}
	if patch.ServiceID != nil && *patch.ServiceID != existing.ServiceID {
		return UpdateIdentity
	}
	if patch.LocationID != nil && *patch.LocationID != existing.LocationID {
		return UpdateIdentity
	}
	if patch.Date != nil && !patch.Date.Equal(existing.Date) {
		return UpdateIdentity
	}
	if patch.Quantity != nil && *patch.Quantity != existing.Quantity {
		return UpdateQuantity
	}
	return UpdateCosmetic
}
