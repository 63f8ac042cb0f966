package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// maxUpsertAttempts reintentos ante carreras de creación/eliminación de la misma clave.
const maxUpsertAttempts = 3

// LedgerUseCase mantiene el stock por (producto, ubicación) y su diario de movimientos.
// La cantidad se actualiza con incremento atómico; el alta en el diario es un paso aparte
// (no atómico con el incremento).
type LedgerUseCase struct {
	stocks   repository.StockRepository
	history  repository.StockHistoryRepository
	counts   repository.StockCountRepository
	notifier *notify.Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewLedgerUseCase construye el caso de uso del ledger de stock.
func NewLedgerUseCase(
	stocks repository.StockRepository,
	history repository.StockHistoryRepository,
	counts repository.StockCountRepository,
	notifier *notify.Notifier,
	log *logger.Logger,
) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		stocks:   stocks,
		history:  history,
		counts:   counts,
		notifier: notifier,
		log:      log.Component("stock_ledger"),
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (uc *LedgerUseCase) SetClock(now func() time.Time) { uc.now = now }

// MovementInput entrada de UpsertMovement. Delta con signo.
type MovementInput struct {
	ProductID  string
	LocationID string
	Delta      int64
	Reason     string
	Actor      string
	Reference  string
}

// UpsertMovement crea la fila si no existe (cantidad = delta) o incrementa atómicamente la existente,
// y agrega la línea al diario con la cantidad previa.
func (uc *LedgerUseCase) UpsertMovement(ctx context.Context, in MovementInput) (*entity.StockRecord, error) {
	if in.Actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	if !entity.IsValidReason(in.Reason) {
		return nil, fmt.Errorf("%w: motivo desconocido %q", domain.ErrInvalidInput, in.Reason)
	}
	id, err := inventory.StockKey(in.ProductID, in.LocationID)
	if err != nil {
		return nil, err
	}

	rec, err := uc.apply(ctx, id, in)
	if err != nil {
		return nil, err
	}

	uc.notifier.Invalidate(ports.CacheKeyAllStocks)
	uc.notifier.Emit(ctx, ports.TopicStockChanged, id, in.Actor, dto.StockChangeEvent{
		StockID: id, ProductID: rec.ProductID, LocationID: rec.LocationID,
		Change: in.Delta, Quantity: rec.Quantity, Reason: in.Reason,
	})
	uc.notifier.Audit(ctx, in.Actor, "STOCK_"+in.Reason, "stock", id, nil, rec)
	return rec, nil
}

func (uc *LedgerUseCase) apply(ctx context.Context, id string, in MovementInput) (*entity.StockRecord, error) {
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		now := uc.now()
		existing, err := uc.stocks.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("leer stock %s: %w", id, err)
		}

		if existing == nil {
			rec := &entity.StockRecord{
				ID:         id,
				ProductID:  in.ProductID,
				LocationID: in.LocationID,
				Quantity:   in.Delta,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			err := uc.stocks.Create(ctx, rec)
			if errors.Is(err, domain.ErrConflict) {
				// Otro request creó la misma clave: se reintenta por la vía de incremento.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("crear stock %s: %w", id, err)
			}
			if err := uc.appendEntry(ctx, rec, in, 0, now); err != nil {
				return nil, err
			}
			return rec, nil
		}

		before, err := uc.stocks.Increment(ctx, id, in.Delta)
		if errors.Is(err, domain.ErrNotFound) {
			// La fila se eliminó entre la lectura y el incremento.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("incrementar stock %s: %w", id, err)
		}
		existing.Quantity = before + in.Delta
		existing.UpdatedAt = now
		if err := uc.appendEntry(ctx, existing, in, before, now); err != nil {
			return nil, err
		}
		return existing, nil
	}
	return nil, fmt.Errorf("%w: no se pudo aplicar el movimiento sobre %s", domain.ErrConflict, id)
}

func (uc *LedgerUseCase) appendEntry(ctx context.Context, rec *entity.StockRecord, in MovementInput, before int64, at time.Time) error {
	entry := &entity.StockHistoryEntry{
		ID:            uuid.New().String(),
		StockID:       rec.ID,
		ProductID:     rec.ProductID,
		LocationID:    rec.LocationID,
		Actor:         in.Actor,
		Change:        in.Delta,
		Reason:        in.Reason,
		CurrentAmount: before,
		Reference:     in.Reference,
		CreatedAt:     at,
	}
	if err := uc.history.Append(ctx, entry); err != nil {
		uc.log.Error().Err(err).
			Str("stock_id", rec.ID).Int64("change", in.Delta).Str("reason", in.Reason).
			Msg("cantidad actualizada pero el historial no se registró")
		return fmt.Errorf("registrar historial de %s: %w", rec.ID, err)
	}
	return nil
}

// ConsumeInput entrada de ConsumeStock (consumo por pedidos).
type ConsumeInput struct {
	ProductID  string
	LocationID string
	Quantity   int64
	Actor      string
	Reference  string
}

// ConsumeStock descuenta stock por consumo. Se permite quedar en negativo (faltante).
func (uc *LedgerUseCase) ConsumeStock(ctx context.Context, in ConsumeInput) (*entity.StockRecord, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad a consumir debe ser positiva", domain.ErrInvalidInput)
	}
	return uc.UpsertMovement(ctx, MovementInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Delta:      -in.Quantity,
		Reason:     entity.ReasonConsumption,
		Actor:      in.Actor,
		Reference:  in.Reference,
	})
}

// TransferInput entrada de Transfer.
type TransferInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Actor          string
}

// Transfer mueve cantidad entre ubicaciones: −quantity en origen y +quantity en destino,
// ambos con motivo TRANSFER. Nunca fabrica stock de origen: la fila debe existir.
func (uc *LedgerUseCase) Transfer(ctx context.Context, in TransferInput) (from, to *entity.StockRecord, err error) {
	if in.Quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: la cantidad a trasladar debe ser positiva", domain.ErrInvalidInput)
	}
	fromID, err := inventory.StockKey(in.ProductID, in.FromLocationID)
	if err != nil {
		return nil, nil, err
	}
	toID, err := inventory.StockKey(in.ProductID, in.ToLocationID)
	if err != nil {
		return nil, nil, err
	}
	if fromID == toID {
		return nil, nil, fmt.Errorf("%w: origen y destino son la misma ubicación", domain.ErrInvalidInput)
	}
	src, err := uc.stocks.Get(ctx, fromID)
	if err != nil {
		return nil, nil, fmt.Errorf("leer stock origen: %w", err)
	}
	if src == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrSourceStockMissing, fromID)
	}

	from, err = uc.UpsertMovement(ctx, MovementInput{
		ProductID: in.ProductID, LocationID: in.FromLocationID,
		Delta: -in.Quantity, Reason: entity.ReasonTransfer, Actor: in.Actor, Reference: toID,
	})
	if err != nil {
		return nil, nil, err
	}
	to, err = uc.UpsertMovement(ctx, MovementInput{
		ProductID: in.ProductID, LocationID: in.ToLocationID,
		Delta: in.Quantity, Reason: entity.ReasonTransfer, Actor: in.Actor, Reference: fromID,
	})
	if err != nil {
		uc.log.Error().Err(err).Str("from", fromID).Str("to", toID).
			Msg("traslado incompleto: la salida del origen quedó registrada")
		return from, nil, err
	}
	return from, to, nil
}

// Remove elimina la fila de stock y agrega una línea de reverso (DELETE) por la cantidad que tenía
// al borrarse, para que el diario siga sumando a cero para esa clave. La cantidad sale del propio
// borrado: un incremento concurrente queda antes (y se revierte) o crea una fila nueva después.
func (uc *LedgerUseCase) Remove(ctx context.Context, productID, locationID, actor string) error {
	if actor == "" {
		return fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	id, err := inventory.StockKey(productID, locationID)
	if err != nil {
		return err
	}
	rec, err := uc.stocks.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("eliminar stock %s: %w", id, err)
	}

	in := MovementInput{Delta: -rec.Quantity, Reason: entity.ReasonDelete, Actor: actor}
	if err := uc.appendEntry(ctx, rec, in, rec.Quantity, uc.now()); err != nil {
		return err
	}

	uc.notifier.Invalidate(ports.CacheKeyAllStocks)
	uc.notifier.Emit(ctx, ports.TopicStockRemoved, id, actor, dto.StockChangeEvent{
		StockID: id, ProductID: rec.ProductID, LocationID: rec.LocationID,
		Change: -rec.Quantity, Quantity: 0, Reason: entity.ReasonDelete,
	})
	uc.notifier.Audit(ctx, actor, "STOCK_DELETE", "stock", id, rec, nil)
	return nil
}

// CountInput entrada de UpdateStockForStockCount.
type CountInput struct {
	CountID          string
	ProductID        string
	LocationID       string
	ObservedQuantity int64
	Actor            string
}

// UpdateStockForStockCount iguala el stock al conteo físico: delta = observado − actual,
// movimiento STOCK_EQUALIZE, y marca la línea del conteo como conciliada.
func (uc *LedgerUseCase) UpdateStockForStockCount(ctx context.Context, in CountInput) (*entity.StockRecord, error) {
	if in.CountID == "" {
		return nil, fmt.Errorf("%w: count_id requerido", domain.ErrInvalidInput)
	}
	line, err := uc.counts.GetLine(ctx, in.CountID, in.ProductID, in.LocationID)
	if err != nil {
		return nil, fmt.Errorf("leer línea de conteo: %w", err)
	}
	if line == nil {
		return nil, fmt.Errorf("%w: línea de conteo %s", domain.ErrNotFound, in.CountID)
	}
	id, err := inventory.StockKey(in.ProductID, in.LocationID)
	if err != nil {
		return nil, err
	}
	current, err := uc.stocks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leer stock %s: %w", id, err)
	}
	var currentQty int64
	if current != nil {
		currentQty = current.Quantity
	}

	rec, err := uc.UpsertMovement(ctx, MovementInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Delta:      in.ObservedQuantity - currentQty,
		Reason:     entity.ReasonStockEqualize,
		Actor:      in.Actor,
		Reference:  in.CountID,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.counts.MarkReconciled(ctx, in.CountID, in.ProductID, in.LocationID, uc.now()); err != nil {
		return rec, fmt.Errorf("marcar conteo conciliado: %w", err)
	}
	return rec, nil
}

// RekeyStocks recalcula la clave compuesta de cada fila con la regla de normalización vigente.
// Recorre las filas en secuencia; una colisión se devuelve como ErrAlreadyExists y detiene el proceso.
func (uc *LedgerUseCase) RekeyStocks(ctx context.Context, actor string) (int, error) {
	if actor == "" {
		return 0, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	all, err := uc.stocks.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("listar stock: %w", err)
	}
	moved := 0
	defer func() {
		if moved > 0 {
			uc.notifier.Invalidate(ports.CacheKeyAllStocks)
		}
	}()
	for _, rec := range all {
		newID, err := inventory.StockKey(rec.ProductID, rec.LocationID)
		if err != nil {
			return moved, err
		}
		if newID == rec.ID {
			continue
		}
		if err := uc.stocks.Rekey(ctx, rec.ID, newID); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return moved, fmt.Errorf("%w: la clave %s ya existe (origen %s)", domain.ErrAlreadyExists, newID, rec.ID)
			}
			return moved, fmt.Errorf("recalcular clave %s: %w", rec.ID, err)
		}
		moved++
		uc.notifier.Emit(ctx, ports.TopicStockRekeyed, newID, actor, map[string]string{"previous_id": rec.ID, "stock_id": newID})
	}
	uc.log.Info().Int("moved", moved).Str("actor", actor).Msg("claves de stock recalculadas")
	return moved, nil
}
