package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/allocation-engine/internal/application/allocation"
	"github.com/jhoicas/allocation-engine/internal/application/inventory"
	"github.com/jhoicas/allocation-engine/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Allocator     *allocation.Allocator
	ConfirmOrder  *allocation.ConfirmOrderUseCase
	CommitRelease *allocation.CommitReleaseUseCase
	Lifecycle     *allocation.LifecycleUseCase
	Ledger        *inventory.RegisterMovementUseCase
	Availability  *inventory.AvailabilityUseCase
	Logger        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", RequestLogger(log))

	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.ConfirmOrder, deps.CommitRelease, deps.Lifecycle)
	orders.Post("/:id/confirm", orderHandler.Confirm)
	orders.Post("/:id/commit", orderHandler.Commit)
	orders.Post("/:id/release", orderHandler.Release)
	orders.Post("/:id/cancel", orderHandler.Cancel)
	orders.Post("/:id/ship", orderHandler.Ship)
	orders.Post("/:id/close", orderHandler.Close)

	allocationHandler := NewAllocationHandler(deps.Allocator)
	api.Post("/allocations", allocationHandler.AllocateLine)

	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Availability)
	lots := api.Group("/lots")
	lots.Post("/", inventoryHandler.ReceiveLot)
	lots.Post("/:id/movements", inventoryHandler.RegisterMovement)
	lots.Get("/:id/movements", inventoryHandler.ListMovements)
	api.Get("/movements", inventoryHandler.ListMovementsByRef)
	api.Get("/items/:id/availability", inventoryHandler.GetItemAvailability)
}
