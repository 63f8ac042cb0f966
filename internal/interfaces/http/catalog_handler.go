package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/usecase"
)

// CatalogHandler lectura y baja lógica de productos y servicios.
type CatalogHandler struct {
	uc *usecase.CatalogUseCase
}

func NewCatalogHandler(uc *usecase.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// List godoc
// @Summary      Listar catálogo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        kind  query  string  false  "PRODUCT | SERVICE"
// @Success      200   {array}   dto.CatalogItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/catalog [get]
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Query("kind"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener ítem de catálogo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.CatalogItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/catalog/{id} [get]
func (h *CatalogHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Remove godoc
// @Summary      Baja lógica de un ítem sin referencias
// @Tags         catalog
// @Security     Bearer
// @Param        id   path  string  true  "ID del ítem"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/catalog/{id} [delete]
func (h *CatalogHandler) Remove(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	if err := h.uc.Remove(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
