package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/allocation-engine/pkg/logger"
)

// RequestLogger registra método, ruta, estado y duración de cada petición.
// Las respuestas 5xx se registran como error.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
		return err
	}
}
