package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
)

func TestExpenseRepo_EmpateDeFechasOrdenaPorID(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := store.Expenses()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"gasto-b", "gasto-c", "gasto-a"} {
		require.NoError(t, repo.Create(ctx, &entity.Expense{
			ID:          id,
			Type:        entity.ExpenseTypeStockable,
			ProductID:   "ron",
			Quantity:    1,
			TotalAmount: decimal.NewFromInt(10),
			Date:        at,
			CreatedAt:   at,
		}))
	}

	// el orden de iteración del mapa varía entre llamadas; el resultado no debe variar
	for i := 0; i < 50; i++ {
		list, err := repo.ListByItem(ctx, "ron", 0, 0)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"gasto-c", "gasto-b", "gasto-a"}, []string{list[0].ID, list[1].ID, list[2].ID})

		latest, err := repo.LatestByItem(ctx, "ron", "")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "gasto-c", latest.ID)

		latest, err = repo.LatestByItem(ctx, "ron", "gasto-c")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "gasto-b", latest.ID)
	}
}

func TestExpenseRepo_FechaManda(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Expenses()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &entity.Expense{
		ID: "z-viejo", Type: entity.ExpenseTypeStockable, ProductID: "ron",
		Date: base, CreatedAt: base.Add(time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &entity.Expense{
		ID: "a-nuevo", Type: entity.ExpenseTypeStockable, ProductID: "ron",
		Date: base.Add(24 * time.Hour), CreatedAt: base,
	}))

	latest, err := repo.LatestByItem(ctx, "ron", "")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "a-nuevo", latest.ID)
}
