package inventory_test

import (
	"context"
	"sync"
	"time"

	appinv "github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const actor = "user-1"

// fakeClock reloj manual; cada llamada avanza un segundo para que los timestamps sean distintos.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// mapCache caché mínima para verificar invalidaciones.
type mapCache struct {
	mu          sync.Mutex
	data        map[string]any
	invalidated []string
}

func newMapCache() *mapCache { return &mapCache{data: map[string]any{}} }

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *mapCache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.invalidated = append(c.invalidated, k)
	}
}

// recordingBus guarda los eventos publicados; failWith simula un bus caído.
type recordingBus struct {
	mu       sync.Mutex
	events   []ports.Event
	failWith error
}

func (b *recordingBus) Publish(_ context.Context, ev ports.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, ev := range b.events {
		out = append(out, ev.Topic)
	}
	return out
}

type fixture struct {
	store  *memory.Store
	cache  *mapCache
	bus    *recordingBus
	clock  *fakeClock
	ledger *appinv.LedgerUseCase
	query  *appinv.QueryUseCase
	cost   *appinv.CostEngine
}

func newFixture() *fixture {
	store := memory.New()
	cache := newMapCache()
	bus := &recordingBus{}
	clock := newClock()
	n := notify.New(cache, bus, nil, logger.Nop())

	ledger := appinv.NewLedgerUseCase(store.Stocks(), store.History(), store.Counts(), n, logger.Nop())
	ledger.SetClock(clock.Now)
	return &fixture{
		store:  store,
		cache:  cache,
		bus:    bus,
		clock:  clock,
		ledger: ledger,
		query:  appinv.NewQueryUseCase(store.Stocks(), store.History(), store.Catalog(), n, logger.Nop()),
		cost:   appinv.NewCostEngine(store.Catalog(), store.Expenses(), store.Stocks(), n, logger.Nop()),
	}
}

func (f *fixture) move(productID, locationID string, delta int64) error {
	_, err := f.ledger.UpsertMovement(context.Background(), appinv.MovementInput{
		ProductID: productID, LocationID: locationID, Delta: delta, Reason: entity.ReasonManual, Actor: actor,
	})
	return err
}
