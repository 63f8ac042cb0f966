package audit

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

var _ ports.AuditLog = (*LogSink)(nil)

// LogSink escribe la auditoría en el log estructurado.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.Component("audit")}
}

func (s *LogSink) Record(_ context.Context, e ports.AuditEntry) error {
	s.log.Info().
		Str("actor", e.Actor).
		Str("action", e.Action).
		Str("entity_type", e.EntityType).
		Str("entity_id", e.EntityID).
		Time("at", e.At).
		Msg("actividad")
	return nil
}
