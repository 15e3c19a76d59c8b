package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/application/inventory"
)

// InventoryHandler libro de lotes y consulta de disponibilidad.
type InventoryHandler struct {
	ledger       *inventory.RegisterMovementUseCase
	availability *inventory.AvailabilityUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.RegisterMovementUseCase, availability *inventory.AvailabilityUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, availability: availability}
}

// ReceiveLot godoc
// @Summary      Recibir lote
// @Tags         lots
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ReceiveLotRequest  true  "lot_code, item_id, quantity, fechas"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *InventoryHandler) ReceiveLot(c *fiber.Ctx) error {
	var in dto.ReceiveLotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.ReceiveLot(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RegisterMovement godoc
// @Summary      Registrar movimiento sobre un lote
// @Tags         lots
// @Accept       json
// @Produce      json
// @Param        id    path      string                       true  "ID del lote"
// @Param        body  body      dto.RegisterMovementRequest  true  "delta_qty, reason, ref"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.RegisterMovement(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Auditoría de movimientos de un lote
// @Tags         lots
// @Produce      json
// @Param        id      path      string  true   "ID del lote"
// @Param        limit   query     int     false  "máximo 200"
// @Param        offset  query     int     false  "desplazamiento"
// @Success      200     {object}  dto.MovementListResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	out, err := h.ledger.ListMovements(c.Context(), c.Params("id"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListMovementsByRef godoc
// @Summary      Movimientos por referencia (ej. número de orden)
// @Tags         lots
// @Produce      json
// @Param        ref  query     string  true  "referencia"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) ListMovementsByRef(c *fiber.Ctx) error {
	out, err := h.ledger.ListMovementsByRef(c.Context(), c.Query("ref"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetItemAvailability godoc
// @Summary      Disponibilidad de un ítem por lote (solo consulta)
// @Tags         items
// @Produce      json
// @Param        id   path      string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemAvailabilityDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/availability [get]
func (h *InventoryHandler) GetItemAvailability(c *fiber.Ctx) error {
	out, err := h.availability.GetItemAvailability(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
