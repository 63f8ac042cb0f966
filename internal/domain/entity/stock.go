package entity

import "time"

// StockRecord representa la cantidad actual de un producto en una ubicación.
// ID es la clave compuesta normalizada de (ProductID, LocationID); Quantity puede ser negativa (faltante).
type StockRecord struct {
	ID         string
	ProductID  string
	LocationID string
	Quantity   int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
