package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpensePatch actualización parcial de un gasto. Un campo nil significa "no enviado".
type ExpensePatch struct {
	ProductID        *string
	ServiceID        *string
	LocationID       *string
	Quantity         *int64
	TotalAmount      *decimal.Decimal
	Date             *time.Time
	PaymentMethod    *string
	Category         *string
	Brand            *string
	Vendor           *string
	Note             *string
	IsStockIncrement *bool
	IsPaid           *bool
}

// Apply devuelve una copia del gasto con los campos presentes del patch aplicados.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.ProductID != nil {
		e.ProductID = *p.ProductID
	}
	if p.ServiceID != nil {
		e.ServiceID = *p.ServiceID
	}
	if p.LocationID != nil {
		e.LocationID = *p.LocationID
	}
	if p.Quantity != nil {
		e.Quantity = *p.Quantity
	}
	if p.TotalAmount != nil {
		e.TotalAmount = *p.TotalAmount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.PaymentMethod != nil {
		e.PaymentMethod = *p.PaymentMethod
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Brand != nil {
		e.Brand = *p.Brand
	}
	if p.Vendor != nil {
		e.Vendor = *p.Vendor
	}
	if p.Note != nil {
		e.Note = *p.Note
	}
	if p.IsStockIncrement != nil {
		e.IsStockIncrement = *p.IsStockIncrement
	}
	if p.IsPaid != nil {
		e.IsPaid = *p.IsPaid
	}
	return e
}
