package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/accounting"
	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/notify"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/cache"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// newAPI arma la API completa sobre el store en memoria.
func newAPI(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.PutCatalogItem(&entity.CatalogItem{ID: "ron", Kind: entity.CatalogKindProduct, Name: "Ron"})
	store.PutCatalogItem(&entity.CatalogItem{ID: "aseo", Kind: entity.CatalogKindService, Name: "Aseo"})

	log := logger.Nop()
	n := notify.New(cache.NewLRU(64, time.Minute), nil, nil, log)
	ledger := inventory.NewLedgerUseCase(store.Stocks(), store.History(), store.Counts(), n, log)
	query := inventory.NewQueryUseCase(store.Stocks(), store.History(), store.Catalog(), n, log)
	cost := inventory.NewCostEngine(store.Catalog(), store.Expenses(), store.Stocks(), n, log)
	expenses := accounting.NewExpenseUseCase(store.Expenses(), store.Payments(), store.Catalog(), ledger, cost, n, log, accounting.ModeBestEffort)
	catalog := usecase.NewCatalogUseCase(store.Catalog(), store.Stocks(), store.Expenses(), store.Counts(), store.Marketplace(), n, log)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:    ledger,
		Query:     query,
		ExpenseUC: expenses,
		CatalogUC: catalog,
		JWTSecret: testJWTSecret,
	})
	return app, store
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestStocks_MovementAndList(t *testing.T) {
	app, _ := newAPI(t)

	resp, raw := call(t, app, http.MethodPost, "/api/stocks/movements", "manager",
		dto.StockMovementRequest{ProductID: "ron", LocationID: "Bar 1", Delta: 12, Reason: entity.ReasonManual})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var rec dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "ron_bar-1", rec.ID)
	assert.Equal(t, int64(12), rec.Quantity)

	resp, raw = call(t, app, http.MethodGet, "/api/stocks", "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(12), list[0].Quantity)
}

func TestStocks_RequiresToken(t *testing.T) {
	app, _ := newAPI(t)
	resp, _ := call(t, app, http.MethodGet, "/api/stocks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStocks_StaffCannotRekey(t *testing.T) {
	app, _ := newAPI(t)
	resp, raw := call(t, app, http.MethodPost, "/api/stocks/rekey", "staff", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(raw), "FORBIDDEN")

	resp, raw = call(t, app, http.MethodPost, "/api/stocks/rekey", "admin", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestStocks_StatusMapping(t *testing.T) {
	app, _ := newAPI(t)

	resp, raw := call(t, app, http.MethodPost, "/api/stocks/movements", "manager",
		dto.StockMovementRequest{ProductID: "ron", LocationID: "L", Delta: 1, Reason: "INVENTADO"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "VALIDATION")

	resp, raw = call(t, app, http.MethodPost, "/api/stocks/transfer", "staff",
		dto.TransferStockRequest{ProductID: "ron", FromLocationID: "A", ToLocationID: "B", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(raw), "NOT_FOUND")

	resp, _ = call(t, app, http.MethodPost, "/api/stocks/consume", "staff", "no es un objeto")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStocks_TransferConsumeAndHistory(t *testing.T) {
	app, _ := newAPI(t)
	call(t, app, http.MethodPost, "/api/stocks/movements", "manager",
		dto.StockMovementRequest{ProductID: "ron", LocationID: "A", Delta: 10, Reason: entity.ReasonManual})

	resp, raw := call(t, app, http.MethodPost, "/api/stocks/transfer", "staff",
		dto.TransferStockRequest{ProductID: "ron", FromLocationID: "A", ToLocationID: "B", Quantity: 4})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var moved map[string]dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &moved))
	assert.Equal(t, int64(6), moved["from"].Quantity)
	assert.Equal(t, int64(4), moved["to"].Quantity)

	resp, raw = call(t, app, http.MethodPost, "/api/stocks/consume", "staff",
		dto.ConsumeStockRequest{ProductID: "ron", LocationID: "B", Quantity: 5, Reference: "pedido-9"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var rec dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, int64(-1), rec.Quantity, "el consumo puede dejar faltante")

	resp, raw = call(t, app, http.MethodGet, "/api/stocks/ron/B/history", "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist []dto.StockHistoryResponse
	require.NoError(t, json.Unmarshal(raw, &hist))
	require.Len(t, hist, 2)
	assert.Equal(t, entity.ReasonConsumption, hist[0].Reason)
	assert.Equal(t, int64(4), hist[0].CurrentAmount)
	assert.Equal(t, entity.ReasonTransfer, hist[1].Reason)
}

func TestStocks_RemoveAndAsOf(t *testing.T) {
	app, _ := newAPI(t)
	call(t, app, http.MethodPost, "/api/stocks/movements", "manager",
		dto.StockMovementRequest{ProductID: "ron", LocationID: "A", Delta: 3, Reason: entity.ReasonManual})
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	resp, _ := call(t, app, http.MethodDelete, "/api/stocks/ron/A", "manager", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = call(t, app, http.MethodDelete, "/api/stocks/ron/A", "manager", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw := call(t, app, http.MethodGet, "/api/stocks/as-of?at="+past+"&product_id=ron&location_id=A", "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var one dto.StockAsOf
	require.NoError(t, json.Unmarshal(raw, &one))
	assert.Equal(t, int64(0), one.Quantity)

	resp, _ = call(t, app, http.MethodGet, "/api/stocks/as-of?at=ayer", "staff", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExpenses_LifecycleUpdatesStockAndPrice(t *testing.T) {
	app, store := newAPI(t)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	resp, raw := call(t, app, http.MethodPost, "/api/expenses", "manager", map[string]any{
		"type": entity.ExpenseTypeStockable, "product_id": "ron", "location_id": "A",
		"quantity": 4, "total_amount": "50", "date": day, "is_stock_increment": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var exp dto.ExpenseResponse
	require.NoError(t, json.Unmarshal(raw, &exp))

	item, err := store.Catalog().GetByID(context.Background(), "ron")
	require.NoError(t, err)
	assert.Equal(t, "12.5000", item.UnitPrice.StringFixed(4))

	resp, raw = call(t, app, http.MethodGet, "/api/stocks?location_id=A", "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(4), list[0].Quantity)

	resp, raw = call(t, app, http.MethodPatch, "/api/expenses/"+exp.ID, "manager", map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	require.NoError(t, json.Unmarshal(raw, &exp))
	assert.Equal(t, "QUANTITY", exp.UpdateClass)

	resp, raw = call(t, app, http.MethodGet, "/api/expenses?item_id=ron", "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var listed []dto.ExpenseResponse
	require.NoError(t, json.Unmarshal(raw, &listed))
	assert.Len(t, listed, 1)

	resp, _ = call(t, app, http.MethodDelete, "/api/expenses/"+exp.ID, "manager", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/expenses/"+exp.ID, "manager", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/expenses", "staff", map[string]any{"type": "STOCKABLE"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCatalog_ListAndGuardedRemove(t *testing.T) {
	app, store := newAPI(t)

	resp, raw := call(t, app, http.MethodGet, "/api/catalog?kind=PRODUCT", "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []dto.CatalogItemResponse
	require.NoError(t, json.Unmarshal(raw, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "ron", items[0].ID)

	resp, _ = call(t, app, http.MethodGet, "/api/catalog?kind=OTRO", "staff", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	store.MatchMarketplaceItem("ron")
	resp, raw = call(t, app, http.MethodDelete, "/api/catalog/ron", "manager", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))

	resp, _ = call(t, app, http.MethodDelete, "/api/catalog/aseo", "manager", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/catalog/aseo", "staff", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
