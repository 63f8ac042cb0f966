package events

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

var _ ports.EventBus = (*LogBus)(nil)

// LogBus solo registra los eventos (desarrollo local o sin suscriptores).
type LogBus struct {
	log *logger.Logger
}

func NewLogBus(log *logger.Logger) *LogBus {
	return &LogBus{log: log.Component("events")}
}

func (b *LogBus) Publish(_ context.Context, ev ports.Event) error {
	b.log.Debug().Str("topic", ev.Topic).Str("key", ev.Key).Str("actor", ev.Actor).Msg("evento")
	return nil
}

func (b *LogBus) Close() error { return nil }
