package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/accounting"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *inventory.LedgerUseCase
	Query     *inventory.QueryUseCase
	ExpenseUC *accounting.ExpenseUseCase
	CatalogUC *usecase.CatalogUseCase
	JWTSecret string
}

// Router registra las rutas de la API. Todo bajo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleStaff)
	managers := RequireRole(jwt.RoleAdmin, jwt.RoleManager)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Stock
	inv := NewInventoryHandler(deps.Ledger, deps.Query)
	stocks := api.Group("/stocks")
	stocks.Get("/", anyRole, inv.FindAll)
	stocks.Get("/as-of", anyRole, inv.AsOf)
	stocks.Get("/valuation", managers, inv.Valuation)
	stocks.Post("/movements", managers, inv.UpsertMovement)
	stocks.Post("/consume", anyRole, inv.ConsumeStock)
	stocks.Post("/transfer", anyRole, inv.Transfer)
	stocks.Post("/rekey", adminOnly, inv.Rekey)
	stocks.Get("/:productId/:locationId/history", anyRole, inv.History)
	stocks.Delete("/:productId/:locationId", managers, inv.Remove)

	api.Post("/stock-counts/:countId/reconcile", managers, inv.ReconcileCount)

	// Gastos
	exp := NewExpenseHandler(deps.ExpenseUC)
	expenses := api.Group("/expenses", managers)
	expenses.Post("/", exp.Create)
	expenses.Get("/", exp.ListByItem)
	expenses.Get("/:id", exp.GetByID)
	expenses.Patch("/:id", exp.Update)
	expenses.Delete("/:id", exp.Remove)

	// Catálogo
	cat := NewCatalogHandler(deps.CatalogUC)
	catalog := api.Group("/catalog")
	catalog.Get("/", anyRole, cat.List)
	catalog.Get("/:id", anyRole, cat.GetByID)
	catalog.Delete("/:id", managers, cat.Remove)
}
