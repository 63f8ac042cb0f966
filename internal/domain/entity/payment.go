package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment representa un pago. ExpenseID vacío indica un pago sin gasto de origen.
type Payment struct {
	ID            string
	ExpenseID     string
	Amount        decimal.Decimal
	Date          time.Time
	PaymentMethod string
	CreatedBy     string
	CreatedAt     time.Time
}
