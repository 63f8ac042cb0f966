package entity

import "time"

// Motivos de movimiento registrados en el historial de stock.
const (
	ReasonExpenseCreate = "EXPENSE_CREATE" // entrada por compra
	ReasonExpenseUpdate = "EXPENSE_UPDATE" // ajuste por cambio de cantidad del gasto
	ReasonExpenseDelete = "EXPENSE_DELETE" // reverso por eliminación del gasto
	ReasonConsumption   = "CONSUMPTION"    // consumo por pedidos
	ReasonTransfer      = "TRANSFER"       // traslado entre ubicaciones
	ReasonStockEqualize = "STOCK_EQUALIZE" // conciliación de conteo físico
	ReasonDelete        = "DELETE"         // eliminación de la fila de stock
	ReasonManual        = "MANUAL"
	ReasonCompensation  = "COMPENSATION" // reverso de un paso de saga fallida
)

var validReasons = map[string]struct{}{
	ReasonExpenseCreate: {}, ReasonExpenseUpdate: {}, ReasonExpenseDelete: {},
	ReasonConsumption: {}, ReasonTransfer: {}, ReasonStockEqualize: {},
	ReasonDelete: {}, ReasonManual: {}, ReasonCompensation: {},
}

// IsValidReason indica si el motivo pertenece al catálogo conocido.
func IsValidReason(reason string) bool {
	_, ok := validReasons[reason]
	return ok
}

// StockHistoryEntry es una línea del diario de movimientos (append-only, nunca se modifica).
// CurrentAmount es la cantidad inmediatamente antes de aplicar Change.
type StockHistoryEntry struct {
	ID            string
	StockID       string
	ProductID     string
	LocationID    string
	Actor         string
	Change        int64
	Reason        string
	CurrentAmount int64
	Reference     string // id de gasto, conteo, pedido, etc.
	CreatedAt     time.Time
}
