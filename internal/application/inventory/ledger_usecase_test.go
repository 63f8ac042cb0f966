package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

func sumFor(entries []*entity.StockHistoryEntry, stockID string) int64 {
	var sum int64
	for _, e := range entries {
		if e.StockID == stockID {
			sum += e.Change
		}
	}
	return sum
}

func TestUpsertMovement_CreaEIncrementa(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.ledger.UpsertMovement(ctx, appinv.MovementInput{
		ProductID: "Café", LocationID: "Bar 1", Delta: 7, Reason: entity.ReasonManual, Actor: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, "cafe_bar-1", rec.ID)
	assert.Equal(t, int64(7), rec.Quantity)

	rec, err = f.ledger.UpsertMovement(ctx, appinv.MovementInput{
		ProductID: "Café", LocationID: "Bar 1", Delta: -3, Reason: entity.ReasonConsumption, Actor: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Quantity)

	hist := f.store.AllHistory()
	require.Len(t, hist, 2)
	assert.Equal(t, int64(0), hist[0].CurrentAmount, "la primera entrada parte de 0")
	assert.Equal(t, int64(7), hist[1].CurrentAmount, "current_amount es la cantidad previa")
	assert.Equal(t, actor, hist[1].Actor)
	assert.Contains(t, f.bus.Topics(), ports.TopicStockChanged)
	assert.Contains(t, f.cache.invalidated, ports.CacheKeyAllStocks)
}

func TestUpsertMovement_Validaciones(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := map[string]appinv.MovementInput{
		"sin actor":    {ProductID: "p", LocationID: "l", Delta: 1, Reason: entity.ReasonManual},
		"sin producto": {LocationID: "l", Delta: 1, Reason: entity.ReasonManual, Actor: actor},
		"motivo":       {ProductID: "p", LocationID: "l", Delta: 1, Reason: "REGALO", Actor: actor},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ledger.UpsertMovement(ctx, in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
	assert.Empty(t, f.store.AllHistory(), "una validación fallida no toca el ledger")
}

func TestUpsertMovement_BusCaidoNoRevierte(t *testing.T) {
	f := newFixture()
	f.bus.failWith = errors.New("bus caído")

	require.NoError(t, f.move("p1", "l1", 5))

	rec, err := f.store.Stocks().Get(context.Background(), "p1_l1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(5), rec.Quantity)
}

// Dos movimientos sobre una clave nueva: una sola fila con d1+d2 y dos entradas.
func TestUpsertMovement_ClaveNuevaConcurrente(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, d := range []int64{3, 4} {
		wg.Add(1)
		go func(d int64) {
			defer wg.Done()
			errs <- f.move("Ron", "Bodega", d)
		}(d)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := f.store.Stocks().List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(7), all[0].Quantity)
	assert.Len(t, f.store.AllHistory(), 2)
}

func TestUpsertMovement_SumaDelDiario(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			delta := int64(i%7) - 2
			loc := []string{"bar", "cocina"}[i%2]
			assert.NoError(t, f.move("gin", loc, delta))
		}(i)
	}
	wg.Wait()

	hist := f.store.AllHistory()
	all, err := f.store.Stocks().List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, rec := range all {
		assert.Equal(t, rec.Quantity, sumFor(hist, rec.ID), "cantidad == Σ change para %s", rec.ID)
	}
}

func TestTransfer_Conserva(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.move("vodka", "A", 10))
	require.NoError(t, f.move("vodka", "B", 2))
	before := len(f.store.AllHistory())

	from, to, err := f.ledger.Transfer(ctx, appinv.TransferInput{
		ProductID: "vodka", FromLocationID: "A", ToLocationID: "B", Quantity: 4, Actor: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), from.Quantity)
	assert.Equal(t, int64(6), to.Quantity)
	assert.Equal(t, int64(12), from.Quantity+to.Quantity)

	hist := f.store.AllHistory()[before:]
	require.Len(t, hist, 2)
	for _, h := range hist {
		assert.Equal(t, entity.ReasonTransfer, h.Reason)
	}
}

func TestTransfer_OrigenInexistente(t *testing.T) {
	f := newFixture()

	_, _, err := f.ledger.Transfer(context.Background(), appinv.TransferInput{
		ProductID: "vodka", FromLocationID: "A", ToLocationID: "B", Quantity: 1, Actor: actor,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Empty(t, f.store.AllHistory(), "nunca se fabrica stock de origen")
}

func TestConsumeStock_PermiteFaltante(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.move("limon", "bar", 2))

	rec, err := f.ledger.ConsumeStock(context.Background(), appinv.ConsumeInput{
		ProductID: "limon", LocationID: "bar", Quantity: 5, Actor: actor, Reference: "order-9",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-3), rec.Quantity)

	_, err = f.ledger.ConsumeStock(context.Background(), appinv.ConsumeInput{
		ProductID: "limon", LocationID: "bar", Quantity: 0, Actor: actor,
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRemove_AgregaReverso(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.move("hielo", "bar", 9))

	require.NoError(t, f.ledger.Remove(ctx, "hielo", "bar", actor))

	rec, err := f.store.Stocks().Get(ctx, "hielo_bar")
	require.NoError(t, err)
	assert.Nil(t, rec)

	hist := f.store.AllHistory()
	require.Len(t, hist, 2)
	last := hist[1]
	assert.Equal(t, entity.ReasonDelete, last.Reason)
	assert.Equal(t, int64(-9), last.Change)
	assert.Equal(t, int64(9), last.CurrentAmount)
	assert.Equal(t, int64(0), sumFor(hist, "hielo_bar"))
	assert.Contains(t, f.bus.Topics(), ports.TopicStockRemoved)

	err = f.ledger.Remove(ctx, "hielo", "bar", actor)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// racingStocks ejecuta un movimiento sobre la misma clave justo antes del borrado.
type racingStocks struct {
	repository.StockRepository
	beforeDelete func()
}

func (r *racingStocks) Delete(ctx context.Context, id string) (*entity.StockRecord, error) {
	if r.beforeDelete != nil {
		r.beforeDelete()
		r.beforeDelete = nil
	}
	return r.StockRepository.Delete(ctx, id)
}

func TestRemove_IncrementoConcurrenteQuedaRevertido(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.move("hielo", "bar", 10))

	racing := &racingStocks{StockRepository: f.store.Stocks()}
	racing.beforeDelete = func() { require.NoError(t, f.move("hielo", "bar", 5)) }
	ledger := appinv.NewLedgerUseCase(racing, f.store.History(), f.store.Counts(), nil, logger.Nop())
	ledger.SetClock(f.clock.Now)

	require.NoError(t, ledger.Remove(ctx, "hielo", "bar", actor))

	rec, err := f.store.Stocks().Get(ctx, "hielo_bar")
	require.NoError(t, err)
	assert.Nil(t, rec)

	hist := f.store.AllHistory()
	require.Len(t, hist, 3)
	last := hist[2]
	assert.Equal(t, entity.ReasonDelete, last.Reason)
	assert.Equal(t, int64(-15), last.Change)
	assert.Equal(t, int64(15), last.CurrentAmount)
	assert.Equal(t, int64(0), sumFor(hist, "hielo_bar"), "el diario de la clave eliminada debe sumar cero")
}

func TestUpdateStockForStockCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.move("tequila", "bar", 12))
	f.store.PutCountLine(&entity.StockCountLine{CountID: "c1", ProductID: "tequila", LocationID: "bar", ObservedQuantity: 9})

	rec, err := f.ledger.UpdateStockForStockCount(ctx, appinv.CountInput{
		CountID: "c1", ProductID: "tequila", LocationID: "bar", ObservedQuantity: 9, Actor: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), rec.Quantity)

	hist := f.store.AllHistory()
	last := hist[len(hist)-1]
	assert.Equal(t, entity.ReasonStockEqualize, last.Reason)
	assert.Equal(t, int64(-3), last.Change)
	assert.Equal(t, "c1", last.Reference)

	line, err := f.store.Counts().GetLine(ctx, "c1", "tequila", "bar")
	require.NoError(t, err)
	assert.True(t, line.Reconciled)
}

func TestUpdateStockForStockCount_LineaInexistente(t *testing.T) {
	f := newFixture()

	_, err := f.ledger.UpdateStockForStockCount(context.Background(), appinv.CountInput{
		CountID: "nope", ProductID: "tequila", LocationID: "bar", ObservedQuantity: 1, Actor: actor,
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Empty(t, f.store.AllHistory())
}

func TestRekeyStocks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	now := time.Now()
	// Filas con claves de una regla de normalización anterior.
	require.NoError(t, f.store.Stocks().Create(ctx, &entity.StockRecord{ID: "Pisco__Bar", ProductID: "Pisco", LocationID: "Bar", Quantity: 3, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, f.store.Stocks().Create(ctx, &entity.StockRecord{ID: "vino_bar", ProductID: "vino", LocationID: "bar", Quantity: 1, CreatedAt: now, UpdatedAt: now}))

	moved, err := f.ledger.RekeyStocks(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	key, err := inventory.StockKey("Pisco", "Bar")
	require.NoError(t, err)
	rec, err := f.store.Stocks().Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(3), rec.Quantity)
}

func TestRekeyStocks_Colision(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, f.store.Stocks().Create(ctx, &entity.StockRecord{ID: "OLD-pisco", ProductID: "Pisco", LocationID: "Bar", Quantity: 3, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, f.move("Pisco", "Bar", 2))

	_, err := f.ledger.RekeyStocks(ctx, actor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
	assert.Equal(t, domain.KindConflict, domain.Kind(err))
}
