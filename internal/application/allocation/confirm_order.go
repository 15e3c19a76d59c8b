package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

// ConfirmOrderUseCase coordina la asignación de todas las líneas de una orden DRAFT
// y su paso a CONFIRMED cuando todas quedan cubiertas.
type ConfirmOrderUseCase struct {
	exec      executor
	allocator *Allocator
}

// NewConfirmOrderUseCase construye el coordinador de confirmación.
func NewConfirmOrderUseCase(txRunner TxRunner, allocator *Allocator, opts Options) *ConfirmOrderUseCase {
	return &ConfirmOrderUseCase{
		exec:      newExecutor(txRunner, "confirm_order", opts),
		allocator: allocator,
	}
}

// ConfirmOrder asigna cada línea en orden de LineNo dentro de una sola transacción.
// PARTIAL deja la orden en DRAFT con las reservas hechas; no es un error.
func (uc *ConfirmOrderUseCase) ConfirmOrder(ctx context.Context, orderID string) (*dto.ConfirmOrderResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id requerido", domain.ErrInvalidInput)
	}

	var (
		result  *dto.ConfirmOrderResult
		touched map[string]struct{}
	)
	err := uc.exec.run(ctx, "confirm_order", func(uow repository.UnitOfWork) error {
		result, touched = nil, map[string]struct{}{}
		r, err := uc.ConfirmOrderInTx(ctx, uow, orderID, touched)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		uc.exec.log.Error().Err(err).Str("order_id", orderID).Msg("confirmación de orden fallida")
		return nil, err
	}

	uc.exec.log.Info().
		Str("order_id", orderID).
		Str("outcome", result.Status).
		Int("lines", len(result.Lines)).
		Msg("orden procesada")
	uc.exec.invalidate(ctx, touched)
	return result, nil
}

// ConfirmOrderInTx ejecuta la confirmación sobre una unidad de trabajo abierta por el llamador.
// touched, si no es nil, recibe los ítems cuya disponibilidad cambió.
func (uc *ConfirmOrderUseCase) ConfirmOrderInTx(ctx context.Context, uow repository.UnitOfWork, orderID string, touched map[string]struct{}) (*dto.ConfirmOrderResult, error) {
	order, err := uow.Orders().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("orden %s: %w", orderID, domain.ErrNotFound)
	}
	if order.Status != entity.OrderDraft {
		return nil, fmt.Errorf("%w: orden %s en estado %s, se esperaba %s",
			domain.ErrInvalidTransition, order.Reference, order.Status, entity.OrderDraft)
	}
	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("%w: orden %s sin líneas", domain.ErrInvalidInput, order.Reference)
	}

	// Un intento PARTIAL previo deja reservas vivas; solo se pide lo pendiente.
	existing, err := uow.Allocations().ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	held := map[string]decimal.Decimal{}
	for _, a := range existing {
		if a.IsProvisional() {
			held[a.OrderLineID] = held[a.OrderLineID].Add(a.Qty)
		}
	}

	lines := make([]dto.LineResultDTO, 0, len(order.Lines))
	missing := decimal.Zero
	for _, line := range order.Lines {
		requested := entity.NormalizeQty(line.Qty)
		if !entity.IsPositiveQty(requested) {
			return nil, fmt.Errorf("%w: línea %d con cantidad %s", domain.ErrInvalidInput, line.LineNo, line.Qty)
		}
		item, err := uow.Items().GetByID(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("ítem %s de la línea %d: %w", line.ItemID, line.LineNo, domain.ErrNotFound)
		}

		allocated := held[line.ID]
		if outstanding := requested.Sub(allocated); outstanding.IsPositive() {
			got, _, err := uc.allocator.reserve(ctx, uow, item.ID, outstanding, line.ID)
			if err != nil {
				return nil, err
			}
			allocated = allocated.Add(got)
			if got.IsPositive() && touched != nil {
				touched[item.ID] = struct{}{}
			}
		}

		shortfall := requested.Sub(allocated)
		if shortfall.IsNegative() {
			shortfall = decimal.Zero
		}
		missing = missing.Add(shortfall)
		lines = append(lines, dto.LineResultDTO{
			LineID:       line.ID,
			LineNo:       line.LineNo,
			ItemID:       item.ID,
			ItemCode:     item.Code,
			RequestedQty: requested,
			AllocatedQty: allocated,
			ShortfallQty: shortfall,
			Allocations:  []dto.AllocationDetailDTO{},
		})
	}

	// Detalle por lote con las filas ya fusionadas por (línea, lote).
	current, err := uow.Allocations().ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	byLine := make(map[string]int, len(lines))
	for i, l := range lines {
		byLine[l.LineID] = i
	}
	for _, a := range current {
		if !a.IsProvisional() {
			continue
		}
		if i, ok := byLine[a.OrderLineID]; ok {
			lines[i].Allocations = append(lines[i].Allocations, dto.AllocationDetailDTO{LotID: a.LotID, LotCode: a.LotCode, Qty: a.Qty})
		}
	}

	result := &dto.ConfirmOrderResult{OrderID: order.ID, Status: dto.OutcomePartial, Lines: lines}
	if missing.IsPositive() {
		uc.exec.log.Warn().
			Str("order_id", order.ID).
			Str("reference", order.Reference).
			Str("shortfall", missing.String()).
			Msg("asignación parcial, la orden sigue en DRAFT")
		return result, nil
	}

	now := uc.exec.now()
	if err := order.Apply(entity.EventConfirm, now); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTransition, err)
	}
	if err := uow.Orders().UpdateStatus(ctx, order.ID, order.Status); err != nil {
		return nil, err
	}
	// Registro de auditoría: no modifica OnHandQty, eso ocurre en CommitAllocations.
	for _, a := range current {
		if !a.IsProvisional() {
			continue
		}
		mov := &entity.InventoryMovement{
			ID:        uuid.New().String(),
			LotID:     a.LotID,
			DeltaQty:  a.Qty.Neg(),
			Reason:    entity.MovementIssue,
			Ref:       order.Reference,
			CreatedAt: now,
		}
		if err := uow.Movements().Create(ctx, mov); err != nil {
			return nil, err
		}
		if touched != nil && a.ItemID != "" {
			touched[a.ItemID] = struct{}{}
		}
	}
	result.Status = dto.OutcomeConfirmed
	return result, nil
}
