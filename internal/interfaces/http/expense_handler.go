package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/accounting"
	"github.com/jhoicas/backoffice-api/internal/application/dto"
)

// ExpenseHandler gastos (compras) y sus efectos en stock, costo y pagos.
type ExpenseHandler struct {
	uc *accounting.ExpenseUseCase
}

func NewExpenseHandler(uc *accounting.ExpenseUseCase) *ExpenseHandler {
	return &ExpenseHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar gasto
// @Tags         expenses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateExpenseRequest  true  "Gasto"
// @Success      201   {object}  dto.ExpenseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/expenses [post]
func (h *ExpenseHandler) Create(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	var in dto.CreateExpenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Create(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener gasto
// @Tags         expenses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del gasto"
// @Success      200  {object}  dto.ExpenseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/expenses/{id} [get]
func (h *ExpenseHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListByItem godoc
// @Summary      Gastos de un ítem, más recientes primero
// @Tags         expenses
// @Security     Bearer
// @Produce      json
// @Param        item_id  query  string  true   "Producto o servicio"
// @Param        limit    query  int     false  "Límite"
// @Param        offset   query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.ExpenseResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/expenses [get]
func (h *ExpenseHandler) ListByItem(c *fiber.Ctx) error {
	itemID := c.Query("item_id")
	if itemID == "" {
		return badRequest(c, "VALIDATION", "item_id requerido")
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badRequest(c, "INVALID_QUERY", "paginación inválida")
	}
	page.DefaultPage()
	out, err := h.uc.ListByItem(c.UserContext(), itemID, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar gasto
// @Description  Cambios cosméticos se aplican en sitio; cantidad ajusta stock por delta;
//
//	cambiar ítem o ubicación elimina y recrea el gasto con nuevo ID.
//
// @Tags         expenses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del gasto"
// @Param        body  body  dto.UpdateExpenseRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ExpenseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/expenses/{id} [patch]
func (h *ExpenseHandler) Update(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	var in dto.UpdateExpenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Update(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Remove godoc
// @Summary      Eliminar gasto (revierte stock, borra pagos y recalcula costo)
// @Tags         expenses
// @Security     Bearer
// @Param        id   path  string  true  "ID del gasto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/expenses/{id} [delete]
func (h *ExpenseHandler) Remove(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	if err := h.uc.Remove(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
