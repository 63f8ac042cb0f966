// Package events implementa el bus de eventos de cambios (Kafka, webhook o solo log).
package events

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
)

// envelope forma serializada de un evento, común a todos los transportes.
type envelope struct {
	Topic      string    `json:"topic"`
	Key        string    `json:"key"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func encode(ev ports.Event) ([]byte, error) {
	return json.Marshal(envelope{
		Topic:      ev.Topic,
		Key:        ev.Key,
		Actor:      ev.Actor,
		OccurredAt: ev.OccurredAt,
		Payload:    ev.Payload,
	})
}
