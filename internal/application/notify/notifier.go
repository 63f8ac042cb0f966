package notify

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// Notifier agrupa los efectos secundarios de una mutación ya persistida:
// invalidación de caché, evento al bus y registro de auditoría.
// Todos son best-effort: los errores se registran y nunca se propagan al caller.
type Notifier struct {
	cache ports.Cache
	bus   ports.EventBus
	audit ports.AuditLog
	log   *logger.Logger
	now   func() time.Time
}

// New construye el notifier. Cualquier dependencia puede ser nil (se omite ese efecto).
func New(cache ports.Cache, bus ports.EventBus, audit ports.AuditLog, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{cache: cache, bus: bus, audit: audit, log: log, now: time.Now}
}

// Cache expone la caché inyectada para lecturas read-through (puede ser nil).
func (n *Notifier) Cache() ports.Cache {
	if n == nil {
		return nil
	}
	return n.cache
}

// Invalidate elimina claves de la caché.
func (n *Notifier) Invalidate(keys ...string) {
	if n == nil || n.cache == nil || len(keys) == 0 {
		return
	}
	n.cache.Invalidate(keys...)
}

// Emit publica un evento en el bus; un fallo solo se registra.
func (n *Notifier) Emit(ctx context.Context, topic, key, actor string, payload any) {
	if n == nil || n.bus == nil {
		return
	}
	ev := ports.Event{Topic: topic, Key: key, Actor: actor, Payload: payload, OccurredAt: n.now()}
	if err := n.bus.Publish(ctx, ev); err != nil {
		n.log.Warn().Err(err).Str("topic", topic).Str("key", key).Msg("no se pudo publicar el evento")
	}
}

// Audit registra la actividad del actor; un fallo solo se registra.
func (n *Notifier) Audit(ctx context.Context, actor, action, entityType, entityID string, before, after any) {
	if n == nil || n.audit == nil {
		return
	}
	entry := ports.AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		At:         n.now(),
	}
	if err := n.audit.Record(ctx, entry); err != nil {
		n.log.Warn().Err(err).Str("action", action).Str("entity_id", entityID).Msg("no se pudo registrar auditoría")
	}
}
