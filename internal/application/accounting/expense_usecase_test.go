package accounting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/accounting"
	"github.com/jhoicas/backoffice-api/internal/application/dto"
	appinv "github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const actor = "admin-1"

var (
	d1 = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 = d1.AddDate(0, 0, 7)
)

// failingPayments falla al crear pagos para forzar la compensación.
type failingPayments struct {
	repository.PaymentRepository
}

func (failingPayments) Create(context.Context, *entity.Payment) error {
	return errors.New("pagos no disponible")
}

type fixture struct {
	store *memory.Store
	uc    *accounting.ExpenseUseCase
}

func newFixture(mode string, payments repository.PaymentRepository) *fixture {
	store := memory.New()
	store.PutCatalogItem(&entity.CatalogItem{ID: "P", Kind: entity.CatalogKindProduct, Name: "Ron añejo"})
	store.PutCatalogItem(&entity.CatalogItem{ID: "Q", Kind: entity.CatalogKindProduct, Name: "Gin"})
	store.PutCatalogItem(&entity.CatalogItem{ID: "S", Kind: entity.CatalogKindService, Name: "Limpieza"})
	if payments == nil {
		payments = store.Payments()
	}

	n := notify.New(nil, nil, nil, logger.Nop())
	ledger := appinv.NewLedgerUseCase(store.Stocks(), store.History(), store.Counts(), n, logger.Nop())
	cost := appinv.NewCostEngine(store.Catalog(), store.Expenses(), store.Stocks(), n, logger.Nop())
	uc := accounting.NewExpenseUseCase(store.Expenses(), payments, store.Catalog(), ledger, cost, n, logger.Nop(), mode)
	return &fixture{store: store, uc: uc}
}

func purchase(product string, qty int64, total string, date time.Time) dto.CreateExpenseRequest {
	return dto.CreateExpenseRequest{
		Type: entity.ExpenseTypeStockable, ProductID: product, LocationID: "L",
		Quantity: qty, TotalAmount: decimal.RequireFromString(total), Date: date,
		PaymentMethod: "cash", IsStockIncrement: true,
	}
}

func (f *fixture) price(t *testing.T, id string) string {
	t.Helper()
	item, err := f.store.Catalog().GetByID(context.Background(), id)
	require.NoError(t, err)
	return item.UnitPrice.StringFixed(4)
}

func (f *fixture) qty(t *testing.T, product, location string) int64 {
	t.Helper()
	key, err := inventory.StockKey(product, location)
	require.NoError(t, err)
	rec, err := f.store.Stocks().Get(context.Background(), key)
	require.NoError(t, err)
	if rec == nil {
		return 0
	}
	return rec.Quantity
}

func TestCreateDelete_RecalculoDeCosto(t *testing.T) {
	f := newFixture(accounting.ModeBestEffort, nil)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, actor, purchase("P", 10, "100", d1))
	require.NoError(t, err)
	assert.Equal(t, "10.0000", f.price(t, "P"))
	assert.Equal(t, int64(10), f.qty(t, "P", "L"))

	second, err := f.uc.Create(ctx, actor, purchase("P", 5, "60", d2))
	require.NoError(t, err)
	assert.Equal(t, "12.0000", f.price(t, "P"))
	assert.Equal(t, int64(15), f.qty(t, "P", "L"))

	preRecompute := decimal.RequireFromString(f.price(t, "P"))
	require.NoError(t, f.uc.Remove(ctx, actor, second.ID))
	assert.Equal(t, int64(10), f.qty(t, "P", "L"))

	stocks, err := f.store.Stocks().ListByProduct(ctx, "P")
	require.NoError(t, err)
	remaining, err := f.store.Expenses().LatestByItem(ctx, "P", "")
	require.NoError(t, err)
	want := inventory.RecomputeAfterDeletion(stocks, preRecompute, remaining)
	assert.Equal(t, want.StringFixed(4), f.price(t, "P"))
}

func TestCreate_PagoVinculado(t *testing.T) {
	f := newFixture(accounting.ModeBestEffort, nil)
	ctx := context.Background()
	in := purchase("P", 2, "30", d1)
	in.IsPaid = true

	e, err := f.uc.Create(ctx, actor, in)
	require.NoError(t, err)
	payments, err := f.store.Payments().ListByExpense(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(30)))

	require.NoError(t, f.uc.Remove(ctx, actor, e.ID))
	payments, err = f.store.Payments().ListByExpense(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(accounting.ModeBestEffort, nil)
	ctx := context.Background()

	noProduct := purchase("", 1, "1", d1)
	service := purchase("S", 1, "1", d1)
	zero := purchase("P", 0, "1", d1)
	missing := purchase("X", 1, "1", d1)

	cases := []struct {
		name string
		in   dto.CreateExpenseRequest
		kind string
	}{
		{"sin producto", noProduct, domain.KindValidation},
		{"servicio como producto", service, domain.KindValidation},
		{"cantidad cero", zero, domain.KindValidation},
		{"producto inexistente", missing, domain.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Create(ctx, actor, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, domain.Kind(err))
		})
	}
	assert.Empty(t, f.store.AllHistory())

	_, err := f.uc.Create(ctx, "", purchase("P", 1, "1", d1))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "actor requerido")
}

func TestCreate_ServicioNoMueveStock(t *testing.T) {
	f := newFixture(accounting.ModeBestEffort, nil)

	_, err := f.uc.Create(context.Background(), actor, dto.CreateExpenseRequest{
		Type: entity.ExpenseTypeNonStockable, ServiceID: "S", Quantity: 4, TotalAmount: decimal.NewFromInt(10), Date: d1,
	})
	require.NoError(t, err)
	assert.Equal(t, "2.5000", f.price(t, "S"))
	assert.Empty(t, f.store.AllHistory())
}

func TestUpdate_Clasificacion(t *testing.T) {
	ctx := context.Background()

	t.Run("cosmético no toca el diario", func(t *testing.T) {
		f := newFixture(accounting.ModeBestEffort, nil)
		e, err := f.uc.Create(ctx, actor, purchase("P", 10, "100", d1))
		require.NoError(t, err)
		before := len(f.store.AllHistory())

		note := "factura 123"
		out, err := f.uc.Update(ctx, actor, e.ID, dto.UpdateExpenseRequest{Note: &note})
		require.NoError(t, err)
		assert.Equal(t, string(inventory.UpdateCosmetic), out.UpdateClass)
		assert.Equal(t, e.ID, out.ID)
		assert.Equal(t, note, out.Note)
		assert.Len(t, f.store.AllHistory(), before)
	})

	t.Run("cantidad ajusta por delta", func(t *testing.T) {
		f := newFixture(accounting.ModeBestEffort, nil)
		e, err := f.uc.Create(ctx, actor, purchase("P", 10, "100", d1))
		require.NoError(t, err)

		qty := int64(8)
		out, err := f.uc.Update(ctx, actor, e.ID, dto.UpdateExpenseRequest{Quantity: &qty})
		require.NoError(t, err)
		assert.Equal(t, string(inventory.UpdateQuantity), out.UpdateClass)
		assert.Equal(t, int64(8), f.qty(t, "P", "L"))

		hist := f.store.AllHistory()
		last := hist[len(hist)-1]
		assert.Equal(t, entity.ReasonExpenseUpdate, last.Reason)
		assert.Equal(t, int64(-2), last.Change)
		assert.Equal(t, "12.5000", f.price(t, "P"))
	})

	t.Run("identidad reemplaza el gasto", func(t *testing.T) {
		f := newFixture(accounting.ModeBestEffort, nil)
		e, err := f.uc.Create(ctx, actor, purchase("P", 10, "100", d1))
		require.NoError(t, err)
		before := len(f.store.AllHistory())

		product := "Q"
		out, err := f.uc.Update(ctx, actor, e.ID, dto.UpdateExpenseRequest{ProductID: &product})
		require.NoError(t, err)
		assert.Equal(t, string(inventory.UpdateIdentity), out.UpdateClass)
		assert.NotEqual(t, e.ID, out.ID)
		assert.True(t, out.IsStockIncrement, "isStockIncrement se conserva")

		added := f.store.AllHistory()[before:]
		require.Len(t, added, 2)
		assert.Equal(t, entity.ReasonExpenseDelete, added[0].Reason)
		assert.Equal(t, int64(-10), added[0].Change)
		assert.Equal(t, entity.ReasonExpenseCreate, added[1].Reason)
		assert.Equal(t, int64(10), added[1].Change)

		assert.Equal(t, int64(0), f.qty(t, "P", "L"))
		assert.Equal(t, int64(10), f.qty(t, "Q", "L"))

		old, err := f.store.Expenses().GetByID(ctx, e.ID)
		require.NoError(t, err)
		assert.Nil(t, old)
	})

	t.Run("gasto inexistente", func(t *testing.T) {
		f := newFixture(accounting.ModeBestEffort, nil)
		note := "x"
		_, err := f.uc.Update(ctx, actor, "nope", dto.UpdateExpenseRequest{Note: &note})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestUpdate_SincronizaPago(t *testing.T) {
	f := newFixture(accounting.ModeBestEffort, nil)
	ctx := context.Background()
	e, err := f.uc.Create(ctx, actor, purchase("P", 1, "10", d1))
	require.NoError(t, err)

	paid := true
	_, err = f.uc.Update(ctx, actor, e.ID, dto.UpdateExpenseRequest{IsPaid: &paid})
	require.NoError(t, err)
	payments, _ := f.store.Payments().ListByExpense(ctx, e.ID)
	require.Len(t, payments, 1)

	amount := decimal.NewFromInt(12)
	_, err = f.uc.Update(ctx, actor, e.ID, dto.UpdateExpenseRequest{TotalAmount: &amount})
	require.NoError(t, err)
	payments, _ = f.store.Payments().ListByExpense(ctx, e.ID)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(amount))
	assert.Equal(t, "12.0000", f.price(t, "P"))

	paid = false
	_, err = f.uc.Update(ctx, actor, e.ID, dto.UpdateExpenseRequest{IsPaid: &paid})
	require.NoError(t, err)
	payments, _ = f.store.Payments().ListByExpense(ctx, e.ID)
	assert.Empty(t, payments)
}

func TestRemove_Inexistente(t *testing.T) {
	f := newFixture(accounting.ModeBestEffort, nil)
	err := f.uc.Remove(context.Background(), actor, "nope")
	assert.Equal(t, domain.KindNotFound, domain.Kind(err))
}

func TestCreate_BestEffortNoRevierte(t *testing.T) {
	store := memory.New()
	f := newFixture(accounting.ModeBestEffort, failingPayments{PaymentRepository: store.Payments()})
	in := purchase("P", 3, "30", d1)
	in.IsPaid = true

	_, err := f.uc.Create(context.Background(), actor, in)
	require.Error(t, err)
	assert.Equal(t, int64(3), f.qty(t, "P", "L"), "sin saga los pasos previos quedan confirmados")
	assert.Equal(t, "10.0000", f.price(t, "P"))
}

func TestCreate_SagaCompensa(t *testing.T) {
	store := memory.New()
	f := newFixture(accounting.ModeSaga, failingPayments{PaymentRepository: store.Payments()})
	in := purchase("P", 3, "30", d1)
	in.IsPaid = true

	_, err := f.uc.Create(context.Background(), actor, in)
	require.Error(t, err)

	assert.Equal(t, int64(0), f.qty(t, "P", "L"), "el movimiento se compensa")
	assert.Equal(t, "0.0000", f.price(t, "P"), "el precio vuelve al valor previo")
	hist := f.store.AllHistory()
	require.Len(t, hist, 2)
	assert.Equal(t, entity.ReasonCompensation, hist[1].Reason)

	list, err := f.store.Expenses().ListByItem(context.Background(), "P", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "el gasto persistido se elimina")
}

func TestRemove_Saga(t *testing.T) {
	f := newFixture(accounting.ModeSaga, nil)
	ctx := context.Background()
	e, err := f.uc.Create(ctx, actor, purchase("P", 4, "20", d1))
	require.NoError(t, err)

	require.NoError(t, f.uc.Remove(ctx, actor, e.ID))
	assert.Equal(t, int64(0), f.qty(t, "P", "L"))
	assert.Equal(t, "0.0000", f.price(t, "P"))
}

func TestParseMode(t *testing.T) {
	m, err := accounting.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, accounting.ModeBestEffort, m)

	m, err = accounting.ParseMode("saga")
	require.NoError(t, err)
	assert.Equal(t, accounting.ModeSaga, m)

	_, err = accounting.ParseMode("2pc")
	assert.Error(t, err)
}
