package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockMovementRequest body para POST /api/stocks/movements.
type StockMovementRequest struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Delta      int64  `json:"delta"`
	Reason     string `json:"reason"`
	Reference  string `json:"reference,omitempty"`
}

// ConsumeStockRequest body para POST /api/stocks/consume.
type ConsumeStockRequest struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
	Reference  string `json:"reference,omitempty"` // id del pedido
}

// TransferStockRequest body para POST /api/stocks/transfer.
type TransferStockRequest struct {
	ProductID      string `json:"product_id"`
	FromLocationID string `json:"from_location_id"`
	ToLocationID   string `json:"to_location_id"`
	Quantity       int64  `json:"quantity"`
}

// ReconcileCountRequest body para POST /api/stock-counts/:countId/reconcile.
type ReconcileCountRequest struct {
	ProductID        string `json:"product_id"`
	LocationID       string `json:"location_id"`
	ObservedQuantity int64  `json:"observed_quantity"`
}

// StockResponse fila de stock.
type StockResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	LocationID string    `json:"location_id"`
	Quantity   int64     `json:"quantity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StockHistoryResponse línea del diario de movimientos.
type StockHistoryResponse struct {
	ID            string    `json:"id"`
	StockID       string    `json:"stock_id"`
	ProductID     string    `json:"product_id"`
	LocationID    string    `json:"location_id"`
	Actor         string    `json:"actor"`
	Change        int64     `json:"change"`
	Reason        string    `json:"reason"`
	CurrentAmount int64     `json:"current_amount"` // cantidad antes del movimiento
	Reference     string    `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockAsOf cantidad reconstruida de una clave a una fecha de corte.
type StockAsOf struct {
	StockID    string `json:"stock_id"`
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// ValuationLine valorización de un producto: cantidad histórica × precio unitario ACTUAL.
type ValuationLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// ValuationReport resultado de valuationAsOf.
type ValuationReport struct {
	At         time.Time       `json:"at"`
	LocationID string          `json:"location_id,omitempty"`
	Lines      []ValuationLine `json:"lines"`
	Total      decimal.Decimal `json:"total"`
}

// StockChangeEvent payload de los eventos de stock.
type StockChangeEvent struct {
	StockID    string `json:"stock_id"`
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Change     int64  `json:"change"`
	Quantity   int64  `json:"quantity"`
	Reason     string `json:"reason"`
}

// PriceChangeEvent payload del evento catalog.price_changed.
type PriceChangeEvent struct {
	ItemID    string          `json:"item_id"`
	Kind      string          `json:"kind"`
	Previous  decimal.Decimal `json:"previous"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
