package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/domain"
)

// errorMapping traduce un error de dominio a estado HTTP y código estable.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrConsistency, fiber.StatusConflict, "CONSISTENCY"},
	{domain.ErrTransient, fiber.StatusServiceUnavailable, "TRANSIENT"},
}

// writeError responde con dto.ErrorResponse según el error de dominio; el resto es 500.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			if m.status == fiber.StatusServiceUnavailable {
				c.Set(fiber.HeaderRetryAfter, "1")
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
