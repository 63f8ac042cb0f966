package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
)

var kindStatus = map[string]int{
	domain.KindValidation: fiber.StatusBadRequest,
	domain.KindNotFound:   fiber.StatusNotFound,
	domain.KindConflict:   fiber.StatusConflict,
	domain.KindInternal:   fiber.StatusInternalServerError,
}

// writeError traduce la taxonomía de dominio a status HTTP. Los errores internos no exponen detalle.
func writeError(c *fiber.Ctx, err error) error {
	kind := domain.Kind(err)
	msg := err.Error()
	if kind == domain.KindInternal {
		msg = "error interno"
	}
	return c.Status(kindStatus[kind]).JSON(dto.ErrorResponse{Code: kind, Message: msg})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

// ErrorHandler para fiber.Config: errores que escapan de los handlers (rutas inexistentes, panics recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}
	return writeError(c, err)
}
