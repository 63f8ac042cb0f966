package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/inventory"
)

func TestRound4_HalfUp(t *testing.T) {
	cases := map[string]string{
		"1.23455":  "1.2346",
		"1.23454":  "1.2345",
		"10":       "10.0000",
		"3.333333": "3.3333",
		"0.00005":  "0.0001",
	}
	for in, want := range cases {
		got := inventory.Round4(decimal.RequireFromString(in))
		assert.Equal(t, want, got.StringFixed(4), in)
	}
}

func TestUnitPriceFromTotal(t *testing.T) {
	p, ok := inventory.UnitPriceFromTotal(decimal.NewFromInt(100), 3)
	assert.True(t, ok)
	assert.Equal(t, "33.3333", p.StringFixed(4))

	_, ok = inventory.UnitPriceFromTotal(decimal.NewFromInt(100), 0)
	assert.False(t, ok, "cantidad cero no define precio")
}

func TestShouldSetPrice(t *testing.T) {
	d1 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	assert.True(t, inventory.ShouldSetPrice(d1, nil), "sin gastos previos siempre fija precio")
	assert.True(t, inventory.ShouldSetPrice(d2, &d1))
	assert.True(t, inventory.ShouldSetPrice(d1, &d1), "el empate favorece al gasto nuevo")
	assert.False(t, inventory.ShouldSetPrice(d1, &d2), "un gasto más antiguo no cambia el precio")
}

func TestRecomputeAfterDeletion(t *testing.T) {
	price := decimal.RequireFromString("12")

	t.Run("con stock positivo usa valor en libros", func(t *testing.T) {
		stocks := []*entity.StockRecord{{Quantity: 10}, {Quantity: -4}, {Quantity: 5}}
		got := inventory.RecomputeAfterDeletion(stocks, price, nil)
		// (10*12 + 5*12) / 15
		assert.Equal(t, "12.0000", got.StringFixed(4))
	})

	t.Run("sin stock positivo usa el gasto restante más reciente", func(t *testing.T) {
		stocks := []*entity.StockRecord{{Quantity: 0}, {Quantity: -2}}
		latest := &entity.Expense{Quantity: 4, TotalAmount: decimal.NewFromInt(50)}
		got := inventory.RecomputeAfterDeletion(stocks, price, latest)
		assert.Equal(t, "12.5000", got.StringFixed(4))
	})

	t.Run("sin stock ni gastos vuelve a cero", func(t *testing.T) {
		got := inventory.RecomputeAfterDeletion(nil, price, nil)
		assert.True(t, got.IsZero())
	})
}
