package ports

import (
	"context"
	"time"
)

// Tópicos de eventos emitidos al bus de suscriptores en tiempo real.
const (
	TopicStockChanged      = "stock.changed"
	TopicStockRemoved      = "stock.removed"
	TopicStockRekeyed      = "stock.rekeyed"
	TopicCatalogPrice      = "catalog.price_changed"
	TopicCatalogRemoved    = "catalog.removed"
	TopicExpenseCreated    = "expense.created"
	TopicExpenseUpdated    = "expense.updated"
	TopicExpenseDeleted    = "expense.deleted"
	TopicPaymentCreated    = "payment.created"
	TopicPaymentDeleted    = "payment.deleted"
	TopicValuationSnapshot = "valuation.snapshot"
)

// Event cambio publicado tras una persistencia exitosa.
type Event struct {
	Topic      string    `json:"topic"`
	Key        string    `json:"key"`
	Actor      string    `json:"actor"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventBus puerto del bus de eventos. Un fallo al publicar nunca revierte la mutación.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
