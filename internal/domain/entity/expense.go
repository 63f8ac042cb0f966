package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de gasto.
const (
	ExpenseTypeStockable    = "STOCKABLE"    // compra de producto con inventario
	ExpenseTypeNonStockable = "NONSTOCKABLE" // compra de servicio
)

// Expense representa una compra (gasto). Exactamente uno de ProductID o ServiceID está presente.
type Expense struct {
	ID               string
	Type             string
	ProductID        string
	ServiceID        string
	LocationID       string
	Quantity         int64
	TotalAmount      decimal.Decimal
	Date             time.Time
	PaymentMethod    string
	Category         string // clasificación libre del gasto (bebidas, limpieza...)
	Brand            string
	Vendor           string
	Note             string
	IsStockIncrement bool
	IsPaid           bool
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ItemID devuelve el id del producto o servicio asociado.
func (e *Expense) ItemID() string {
	if e.Type == ExpenseTypeStockable {
		return e.ProductID
	}
	return e.ServiceID
}

// AffectsStock indica si el gasto mueve inventario.
func (e *Expense) AffectsStock() bool {
	return e.Type == ExpenseTypeStockable && e.IsStockIncrement
}
