package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/inventory"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

// Allocator reserva lotes FIFO contra la demanda de una línea de orden.
// Solo escribe reservas PROVISIONAL; nunca toca OnHandQty.
type Allocator struct {
	exec executor
}

// NewAllocator construye el asignador.
func NewAllocator(txRunner TxRunner, opts Options) *Allocator {
	return &Allocator{exec: newExecutor(txRunner, "allocator", opts)}
}

// AllocateLine reserva hasta requestedQty del ítem para la línea, en su propia transacción.
// La asignación parcial es un resultado válido, no un error.
func (a *Allocator) AllocateLine(ctx context.Context, itemID string, requestedQty decimal.Decimal, orderLineID string) (*dto.AllocateLineResult, error) {
	// Se valida antes de tocar el almacenamiento.
	if err := validateRequest(itemID, requestedQty); err != nil {
		return nil, err
	}
	if orderLineID == "" {
		return nil, fmt.Errorf("%w: order_line_id requerido", domain.ErrInvalidInput)
	}

	var result *dto.AllocateLineResult
	err := a.exec.run(ctx, "allocate_line", func(uow repository.UnitOfWork) error {
		result = nil
		line, err := uow.Orders().GetLine(ctx, orderLineID)
		if err != nil {
			return err
		}
		if line == nil {
			return fmt.Errorf("línea %s: %w", orderLineID, domain.ErrNotFound)
		}
		// Las líneas son inmutables fuera de DRAFT.
		order, err := uow.Orders().GetByIDForUpdate(ctx, line.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("orden %s de la línea %s: %w", line.OrderID, orderLineID, domain.ErrNotFound)
		}
		if order.Status != entity.OrderDraft {
			return fmt.Errorf("%w: orden %s en estado %s, se esperaba %s",
				domain.ErrInvalidTransition, order.Reference, order.Status, entity.OrderDraft)
		}
		if line.ItemID != itemID {
			return fmt.Errorf("%w: la línea %s pide otro ítem", domain.ErrInvalidInput, orderLineID)
		}
		r, err := a.AllocateLineInTx(ctx, uow, itemID, requestedQty, orderLineID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.exec.log.Info().
		Str("item_id", itemID).
		Str("order_line_id", orderLineID).
		Str("requested", result.RequestedQty.String()).
		Str("allocated", result.AllocatedQty.String()).
		Msg("línea asignada")
	a.exec.invalidate(ctx, map[string]struct{}{itemID: {}})
	return result, nil
}

// AllocateLineInTx ejecuta el algoritmo FIFO sobre una unidad de trabajo abierta por el llamador,
// que decide Commit o Rollback.
func (a *Allocator) AllocateLineInTx(ctx context.Context, uow repository.UnitOfWork, itemID string, requestedQty decimal.Decimal, orderLineID string) (*dto.AllocateLineResult, error) {
	if err := validateRequest(itemID, requestedQty); err != nil {
		return nil, err
	}
	item, err := uow.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
	}

	requested := entity.NormalizeQty(requestedQty)
	allocated, details, err := a.reserve(ctx, uow, item.ID, requested, orderLineID)
	if err != nil {
		return nil, err
	}
	return &dto.AllocateLineResult{
		ItemID:       item.ID,
		ItemCode:     item.Code,
		RequestedQty: requested,
		AllocatedQty: allocated,
		Allocations:  details,
	}, nil
}

// reserve bloquea los lotes del ítem, calcula lo disponible neto de reservas vivas
// (leído dentro de la misma transacción) y crea las reservas PROVISIONAL.
func (a *Allocator) reserve(ctx context.Context, uow repository.UnitOfWork, itemID string, requested decimal.Decimal, orderLineID string) (decimal.Decimal, []dto.AllocationDetailDTO, error) {
	lots, err := uow.Lots().ListAvailableByItemForUpdate(ctx, itemID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if len(lots) == 0 {
		return decimal.Zero, []dto.AllocationDetailDTO{}, nil
	}

	ids := make([]string, len(lots))
	for i, l := range lots {
		ids[i] = l.ID
	}
	reserved, err := uow.Allocations().ReservedByLots(ctx, ids)
	if err != nil {
		return decimal.Zero, nil, err
	}

	candidates := make([]inventory.Candidate, len(lots))
	for i, l := range lots {
		candidates[i] = inventory.Candidate{Lot: l, Reserved: reserved[l.ID]}
	}
	allocated, plan := inventory.PlanFIFO(candidates, requested)

	now := a.exec.now()
	details := make([]dto.AllocationDetailDTO, 0, len(plan))
	for _, r := range plan {
		alloc := &entity.Allocation{
			ID:          uuid.New().String(),
			OrderLineID: orderLineID,
			LotID:       r.LotID,
			Qty:         r.Qty,
			Status:      entity.AllocationProvisional,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := uow.Allocations().AddProvisional(ctx, alloc); err != nil {
			return decimal.Zero, nil, err
		}
		details = append(details, dto.AllocationDetailDTO{LotID: r.LotID, LotCode: r.LotCode, Qty: r.Qty})
	}
	return allocated, details, nil
}

func validateRequest(itemID string, requestedQty decimal.Decimal) error {
	if itemID == "" {
		return fmt.Errorf("%w: item_id requerido", domain.ErrInvalidInput)
	}
	if !entity.IsPositiveQty(requestedQty) {
		return fmt.Errorf("%w: la cantidad solicitada debe ser positiva (recibido %s)", domain.ErrInvalidInput, requestedQty)
	}
	return nil
}
