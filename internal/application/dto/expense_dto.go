package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateExpenseRequest body para POST /api/expenses.
type CreateExpenseRequest struct {
	Type             string          `json:"type"` // STOCKABLE | NONSTOCKABLE
	ProductID        string          `json:"product_id,omitempty"`
	ServiceID        string          `json:"service_id,omitempty"`
	LocationID       string          `json:"location_id,omitempty"`
	Quantity         int64           `json:"quantity"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Date             time.Time       `json:"date"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	Category         string          `json:"category,omitempty"`
	Brand            string          `json:"brand,omitempty"`
	Vendor           string          `json:"vendor,omitempty"`
	Note             string          `json:"note,omitempty"`
	IsStockIncrement bool            `json:"is_stock_increment"`
	IsPaid           bool            `json:"is_paid"`
}

// UpdateExpenseRequest body para PATCH /api/expenses/:id. Campo ausente = sin cambio.
type UpdateExpenseRequest struct {
	ProductID        *string          `json:"product_id,omitempty"`
	ServiceID        *string          `json:"service_id,omitempty"`
	LocationID       *string          `json:"location_id,omitempty"`
	Quantity         *int64           `json:"quantity,omitempty"`
	TotalAmount      *decimal.Decimal `json:"total_amount,omitempty"`
	Date             *time.Time       `json:"date,omitempty"`
	PaymentMethod    *string          `json:"payment_method,omitempty"`
	Category         *string          `json:"category,omitempty"`
	Brand            *string          `json:"brand,omitempty"`
	Vendor           *string          `json:"vendor,omitempty"`
	Note             *string          `json:"note,omitempty"`
	IsStockIncrement *bool            `json:"is_stock_increment,omitempty"`
	IsPaid           *bool            `json:"is_paid,omitempty"`
}

// ExpenseResponse gasto.
type ExpenseResponse struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	ProductID        string          `json:"product_id,omitempty"`
	ServiceID        string          `json:"service_id,omitempty"`
	LocationID       string          `json:"location_id,omitempty"`
	Quantity         int64           `json:"quantity"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Date             time.Time       `json:"date"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	Category         string          `json:"category,omitempty"`
	Brand            string          `json:"brand,omitempty"`
	Vendor           string          `json:"vendor,omitempty"`
	Note             string          `json:"note,omitempty"`
	IsStockIncrement bool            `json:"is_stock_increment"`
	IsPaid           bool            `json:"is_paid"`
	CreatedBy        string          `json:"created_by"`
	UpdateClass      string          `json:"update_class,omitempty"` // COSMETIC | QUANTITY | IDENTITY
}

// CatalogItemResponse ítem de catálogo.
type CatalogItemResponse struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	UnitMeasure string          `json:"unit_measure,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
