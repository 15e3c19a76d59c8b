package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/allocation-engine/internal/application/allocation"
	"github.com/jhoicas/allocation-engine/internal/application/dto"
)

// AllocationHandler asignación FIFO de una sola línea.
type AllocationHandler struct {
	allocator *allocation.Allocator
}

// NewAllocationHandler construye el handler.
func NewAllocationHandler(allocator *allocation.Allocator) *AllocationHandler {
	return &AllocationHandler{allocator: allocator}
}

// AllocateLine godoc
// @Summary      Asignar una línea de orden
// @Description  Reserva hasta quantity del ítem en lotes FIFO. Asignar menos de lo pedido no es error.
// @Tags         allocations
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AllocateLineRequest  true  "item_id, order_line_id, quantity"
// @Success      200   {object}  dto.AllocateLineResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/allocations [post]
func (h *AllocationHandler) AllocateLine(c *fiber.Ctx) error {
	var in dto.AllocateLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.allocator.AllocateLine(c.Context(), in.ItemID, in.Quantity, in.OrderLineID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
