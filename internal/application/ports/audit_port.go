package ports

import (
	"context"
	"time"
)

// AuditEntry registro de actividad del usuario que ejecutó una mutación.
type AuditEntry struct {
	Actor      string    `json:"actor" bson:"actor"`
	Action     string    `json:"action" bson:"action"`
	EntityType string    `json:"entity_type" bson:"entity_type"`
	EntityID   string    `json:"entity_id" bson:"entity_id"`
	Before     any       `json:"before,omitempty" bson:"before,omitempty"`
	After      any       `json:"after,omitempty" bson:"after,omitempty"`
	At         time.Time `json:"at" bson:"at"`
}

// AuditLog puerto del registro de auditoría (fire-and-forget).
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}
