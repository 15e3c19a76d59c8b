package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

// LifecycleUseCase transiciones de la orden que no asignan stock: cancelar, despachar y cerrar.
type LifecycleUseCase struct {
	exec executor
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(txRunner TxRunner, opts Options) *LifecycleUseCase {
	return &LifecycleUseCase{exec: newExecutor(txRunner, "order_lifecycle", opts)}
}

// CancelOrder libera las reservas PROVISIONAL y deja la orden en CANCELLED en una transacción.
// Si la orden estaba CONFIRMED, cada reserva liberada se compensa con un ADJUST +qty.
func (uc *LifecycleUseCase) CancelOrder(ctx context.Context, orderID string) (*dto.ReleaseResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id requerido", domain.ErrInvalidInput)
	}

	var (
		count   int
		touched map[string]struct{}
	)
	err := uc.exec.run(ctx, "cancel_order", func(uow repository.UnitOfWork) error {
		count, touched = 0, map[string]struct{}{}
		order, err := loadForTransition(ctx, uow, orderID)
		if err != nil {
			return err
		}
		prior := order.Status
		now := uc.exec.now()
		if err := order.Apply(entity.EventCancel, now); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidTransition, err)
		}

		released, err := releaseInTx(ctx, uow, orderID)
		if err != nil {
			return err
		}
		for _, a := range released {
			touched[a.ItemID] = struct{}{}
			if prior != entity.OrderConfirmed {
				continue
			}
			mov := &entity.InventoryMovement{
				ID:        uuid.New().String(),
				LotID:     a.LotID,
				DeltaQty:  a.Qty,
				Reason:    entity.MovementAdjust,
				Ref:       order.Reference,
				CreatedAt: now,
			}
			if err := uow.Movements().Create(ctx, mov); err != nil {
				return err
			}
		}
		if err := uow.Orders().UpdateStatus(ctx, order.ID, order.Status); err != nil {
			return err
		}
		count = len(released)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.exec.log.Info().Str("order_id", orderID).Int("released", count).Msg("orden cancelada")
	uc.exec.invalidate(ctx, touched)
	return &dto.ReleaseResult{OrderID: orderID, ReleasedCount: count}, nil
}

// ShipOrder PICKED -> SHIPPED.
func (uc *LifecycleUseCase) ShipOrder(ctx context.Context, orderID string) (*dto.OrderStatusResponse, error) {
	return uc.transition(ctx, orderID, entity.EventShip)
}

// CloseOrder SHIPPED -> CLOSED.
func (uc *LifecycleUseCase) CloseOrder(ctx context.Context, orderID string) (*dto.OrderStatusResponse, error) {
	return uc.transition(ctx, orderID, entity.EventClose)
}

func (uc *LifecycleUseCase) transition(ctx context.Context, orderID string, ev entity.OrderEvent) (*dto.OrderStatusResponse, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id requerido", domain.ErrInvalidInput)
	}
	var status entity.OrderStatus
	err := uc.exec.run(ctx, string(ev)+"_order", func(uow repository.UnitOfWork) error {
		order, err := loadForTransition(ctx, uow, orderID)
		if err != nil {
			return err
		}
		if err := order.Apply(ev, uc.exec.now()); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidTransition, err)
		}
		status = order.Status
		return uow.Orders().UpdateStatus(ctx, order.ID, order.Status)
	})
	if err != nil {
		return nil, err
	}
	uc.exec.log.Info().Str("order_id", orderID).Str("status", string(status)).Msg("estado de orden actualizado")
	return &dto.OrderStatusResponse{OrderID: orderID, Status: string(status)}, nil
}

func loadForTransition(ctx context.Context, uow repository.UnitOfWork, orderID string) (*entity.Order, error) {
	order, err := uow.Orders().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("orden %s: %w", orderID, domain.ErrNotFound)
	}
	return order, nil
}
