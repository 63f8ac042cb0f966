package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP del libro de stock (protegido).
type InventoryHandler struct {
	ledger *inventory.LedgerUseCase
	query  *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerUseCase, query *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, query: query}
}

// UpsertMovement godoc
// @Summary      Registrar movimiento de stock
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StockMovementRequest  true  "product_id, location_id, delta con signo, reason"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stocks/movements [post]
func (h *InventoryHandler) UpsertMovement(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	var in dto.StockMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	rec, err := h.ledger.UpsertMovement(c.UserContext(), inventory.MovementInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Delta:      in.Delta,
		Reason:     in.Reason,
		Actor:      actor,
		Reference:  in.Reference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(rec))
}

// ConsumeStock godoc
// @Summary      Descontar stock por consumo (puede quedar negativo)
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeStockRequest  true  "product_id, location_id, quantity"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stocks/consume [post]
func (h *InventoryHandler) ConsumeStock(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	var in dto.ConsumeStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	rec, err := h.ledger.ConsumeStock(c.UserContext(), inventory.ConsumeInput{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		Actor:      actor,
		Reference:  in.Reference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(rec))
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "product_id, from_location_id, to_location_id, quantity"
// @Success      200   {object}  map[string]dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stocks/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	from, to, err := h.ledger.Transfer(c.UserContext(), inventory.TransferInput{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Actor:          actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"from": toStockResponse(from), "to": toStockResponse(to)})
}

// Remove godoc
// @Summary      Eliminar fila de stock (deja línea DELETE en el diario)
// @Tags         stocks
// @Security     Bearer
// @Param        productId   path  string  true  "Producto"
// @Param        locationId  path  string  true  "Ubicación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{productId}/{locationId} [delete]
func (h *InventoryHandler) Remove(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	if err := h.ledger.Remove(c.UserContext(), c.Params("productId"), c.Params("locationId"), actor); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Rekey godoc
// @Summary      Re-normalizar las claves de stock (solo admin)
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stocks/rekey [post]
func (h *InventoryHandler) Rekey(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	n, err := h.ledger.RekeyStocks(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"rekeyed": n})
}

// ReconcileCount godoc
// @Summary      Igualar stock a una línea de conteo físico
// @Tags         stock-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        countId  path  string                      true  "Conteo"
// @Param        body     body  dto.ReconcileCountRequest   true  "product_id, location_id, observed_quantity"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-counts/{countId}/reconcile [post]
func (h *InventoryHandler) ReconcileCount(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return unauthorized(c)
	}
	var in dto.ReconcileCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	rec, err := h.ledger.UpdateStockForStockCount(c.UserContext(), inventory.CountInput{
		CountID:          c.Params("countId"),
		ProductID:        in.ProductID,
		LocationID:       in.LocationID,
		ObservedQuantity: in.ObservedQuantity,
		Actor:            actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(rec))
}

// FindAll godoc
// @Summary      Listar stock actual
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Filtrar por ubicación"
// @Success      200  {array}   dto.StockResponse
// @Router       /api/stocks [get]
func (h *InventoryHandler) FindAll(c *fiber.Ctx) error {
	list, err := h.query.FindAllStocks(c.UserContext(), c.Query("location_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toStockResponse(s))
	}
	return c.JSON(out)
}

// AsOf godoc
// @Summary      Reconstruir stock a una fecha de corte
// @Description  Con product_id y location_id devuelve una sola clave; si no, todas.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        at           query  string  true   "Fecha de corte RFC3339"
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación"
// @Success      200  {array}   dto.StockAsOf
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stocks/as-of [get]
func (h *InventoryHandler) AsOf(c *fiber.Ctx) error {
	at, err := parseAt(c)
	if err != nil {
		return badRequest(c, "INVALID_AT", "at debe ser RFC3339")
	}
	productID, locationID := c.Query("product_id"), c.Query("location_id")
	if productID != "" {
		qty, err := h.query.ReconstructQuantityAsOf(c.UserContext(), productID, locationID, at)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dto.StockAsOf{ProductID: productID, LocationID: locationID, Quantity: qty})
	}
	list, err := h.query.ReconstructAllAsOf(c.UserContext(), at, locationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Valuation godoc
// @Summary      Valorizar stock a una fecha (cantidad histórica × precio actual)
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        at           query  string  true   "Fecha de corte RFC3339"
// @Param        product_ids  query  string  false  "IDs separados por coma"
// @Param        location_id  query  string  false  "Ubicación"
// @Success      200  {object}  dto.ValuationReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stocks/valuation [get]
func (h *InventoryHandler) Valuation(c *fiber.Ctx) error {
	at, err := parseAt(c)
	if err != nil {
		return badRequest(c, "INVALID_AT", "at debe ser RFC3339")
	}
	report, err := h.query.ValuationAsOf(c.UserContext(), at, splitIDs(c.Query("product_ids")), c.Query("location_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// History godoc
// @Summary      Diario de movimientos de una clave
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        productId   path   string  true   "Producto"
// @Param        locationId  path   string  true   "Ubicación"
// @Param        limit       query  int     false  "Máximo de líneas"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.StockHistoryResponse
// @Router       /api/stocks/{productId}/{locationId}/history [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	entries, err := h.query.History(c.UserContext(), c.Params("productId"), c.Params("locationId"),
		c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryResponse(e))
	}
	return c.JSON(out)
}

func parseAt(c *fiber.Ctx) (time.Time, error) {
	return time.Parse(time.RFC3339, c.Query("at"))
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toStockResponse(s *entity.StockRecord) dto.StockResponse {
	return dto.StockResponse{
		ID:         s.ID,
		ProductID:  s.ProductID,
		LocationID: s.LocationID,
		Quantity:   s.Quantity,
		UpdatedAt:  s.UpdatedAt,
	}
}

func toHistoryResponse(e *entity.StockHistoryEntry) dto.StockHistoryResponse {
	return dto.StockHistoryResponse{
		ID:            e.ID,
		StockID:       e.StockID,
		ProductID:     e.ProductID,
		LocationID:    e.LocationID,
		Actor:         e.Actor,
		Change:        e.Change,
		Reason:        e.Reason,
		CurrentAmount: e.CurrentAmount,
		Reference:     e.Reference,
		CreatedAt:     e.CreatedAt,
	}
}
