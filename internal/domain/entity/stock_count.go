package entity

import "time"

// StockCountLine línea de un conteo físico de inventario (una por producto y ubicación).
type StockCountLine struct {
	CountID          string
	ProductID        string
	LocationID       string
	ObservedQuantity int64
	Reconciled       bool
	ReconciledAt     *time.Time
}
