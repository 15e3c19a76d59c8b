package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/allocation-engine/internal/application/allocation"
)

// OrderHandler expone el ciclo de vida de la orden: confirmar, consumir, liberar, cancelar, despachar y cerrar.
type OrderHandler struct {
	confirm   *allocation.ConfirmOrderUseCase
	commitRel *allocation.CommitReleaseUseCase
	lifecycle *allocation.LifecycleUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(confirm *allocation.ConfirmOrderUseCase, commitRel *allocation.CommitReleaseUseCase, lifecycle *allocation.LifecycleUseCase) *OrderHandler {
	return &OrderHandler{confirm: confirm, commitRel: commitRel, lifecycle: lifecycle}
}

// Confirm godoc
// @Summary      Confirmar orden (asignación FIFO de todas las líneas)
// @Description  PARTIAL deja la orden en DRAFT con las reservas hechas y el faltante por línea.
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.ConfirmOrderResult
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	out, err := h.confirm.ConfirmOrder(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Commit godoc
// @Summary      Consumir reservas (descuenta stock, CONFIRMED -> PICKED)
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.CommitResult
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/commit [post]
func (h *OrderHandler) Commit(c *fiber.Ctx) error {
	out, err := h.commitRel.CommitAllocations(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Release godoc
// @Summary      Liberar reservas PROVISIONAL (idempotente)
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.ReleaseResult
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/release [post]
func (h *OrderHandler) Release(c *fiber.Ctx) error {
	out, err := h.commitRel.ReleaseAllocations(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar orden y liberar sus reservas
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.ReleaseResult
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.lifecycle.CancelOrder(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Ship godoc
// @Summary      Despachar orden (PICKED -> SHIPPED)
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderStatusResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *fiber.Ctx) error {
	out, err := h.lifecycle.ShipOrder(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Close godoc
// @Summary      Cerrar orden (SHIPPED -> CLOSED)
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderStatusResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/close [post]
func (h *OrderHandler) Close(c *fiber.Ctx) error {
	out, err := h.lifecycle.CloseOrder(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
