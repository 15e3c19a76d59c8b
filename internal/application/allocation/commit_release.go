package allocation

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

// CommitReleaseUseCase consume o libera las reservas de una orden.
type CommitReleaseUseCase struct {
	exec executor
}

// NewCommitReleaseUseCase construye el caso de uso.
func NewCommitReleaseUseCase(txRunner TxRunner, opts Options) *CommitReleaseUseCase {
	return &CommitReleaseUseCase{exec: newExecutor(txRunner, "commit_release", opts)}
}

// CommitAllocations pasa las reservas PROVISIONAL a COMMITTED, descuenta OnHandQty de cada lote
// y mueve la orden de CONFIRMED a PICKED. Repetirlo sobre una orden ya despachada devuelve 0.
func (uc *CommitReleaseUseCase) CommitAllocations(ctx context.Context, orderID string) (*dto.CommitResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id requerido", domain.ErrInvalidInput)
	}

	var (
		count   int
		touched map[string]struct{}
	)
	err := uc.exec.run(ctx, "commit_allocations", func(uow repository.UnitOfWork) error {
		count, touched = 0, map[string]struct{}{}
		n, err := uc.CommitAllocationsInTx(ctx, uow, orderID, touched)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.exec.log.Info().Str("order_id", orderID).Int("committed", count).Msg("reservas consumidas")
	uc.exec.invalidate(ctx, touched)
	return &dto.CommitResult{OrderID: orderID, CommittedCount: count}, nil
}

// CommitAllocationsInTx ejecuta el consumo sobre una unidad de trabajo abierta por el llamador.
func (uc *CommitReleaseUseCase) CommitAllocationsInTx(ctx context.Context, uow repository.UnitOfWork, orderID string, touched map[string]struct{}) (int, error) {
	order, err := uow.Orders().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order == nil {
		return 0, fmt.Errorf("orden %s: %w", orderID, domain.ErrNotFound)
	}
	switch order.Status {
	case entity.OrderConfirmed:
	case entity.OrderPicked, entity.OrderShipped, entity.OrderClosed:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: orden %s en estado %s, se esperaba %s",
			domain.ErrInvalidTransition, order.Reference, order.Status, entity.OrderConfirmed)
	}

	allocs, err := uow.Allocations().ListByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	pending := make([]*entity.Allocation, 0, len(allocs))
	for _, a := range allocs {
		if a.IsProvisional() {
			pending = append(pending, a)
		}
	}

	// Bloqueo de lotes en orden de ID, el mismo que usa la asignación.
	lotIDs := make([]string, 0, len(pending))
	seen := map[string]bool{}
	for _, a := range pending {
		if !seen[a.LotID] {
			seen[a.LotID] = true
			lotIDs = append(lotIDs, a.LotID)
		}
	}
	sort.Strings(lotIDs)
	onHand := make(map[string]decimal.Decimal, len(lotIDs))
	codes := make(map[string]string, len(lotIDs))
	for _, id := range lotIDs {
		lot, err := uow.Lots().GetByIDForUpdate(ctx, id)
		if err != nil {
			return 0, err
		}
		if lot == nil {
			return 0, fmt.Errorf("lote %s reservado pero inexistente: %w", id, domain.ErrConsistency)
		}
		onHand[id] = lot.OnHandQty
		codes[id] = lot.LotCode
		if touched != nil {
			touched[lot.ItemID] = struct{}{}
		}
	}

	for _, a := range pending {
		next := onHand[a.LotID].Sub(a.Qty)
		if next.IsNegative() {
			uc.exec.log.Error().
				Str("order_id", orderID).
				Str("lot_code", codes[a.LotID]).
				Str("on_hand", onHand[a.LotID].String()).
				Str("qty", a.Qty.String()).
				Msg("CONSISTENCIA: el consumo dejaría el lote en negativo")
			return 0, fmt.Errorf("lote %s quedaría en %s: %w", codes[a.LotID], next, domain.ErrConsistency)
		}
		onHand[a.LotID] = next
		if err := uow.Allocations().MarkCommitted(ctx, a.ID); err != nil {
			return 0, err
		}
	}
	for _, id := range lotIDs {
		if err := uow.Lots().UpdateOnHand(ctx, id, onHand[id]); err != nil {
			return 0, err
		}
	}

	if err := order.Apply(entity.EventPick, uc.exec.now()); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidTransition, err)
	}
	if err := uow.Orders().UpdateStatus(ctx, order.ID, order.Status); err != nil {
		return 0, err
	}
	return len(pending), nil
}

// ReleaseAllocations borra las reservas PROVISIONAL de la orden; las COMMITTED no se tocan.
// Es idempotente: la segunda llamada devuelve 0. Una orden CONFIRMED se libera con CancelOrder.
func (uc *CommitReleaseUseCase) ReleaseAllocations(ctx context.Context, orderID string) (*dto.ReleaseResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id requerido", domain.ErrInvalidInput)
	}

	var (
		count   int
		touched map[string]struct{}
	)
	err := uc.exec.run(ctx, "release_allocations", func(uow repository.UnitOfWork) error {
		count, touched = 0, map[string]struct{}{}
		order, err := uow.Orders().GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("orden %s: %w", orderID, domain.ErrNotFound)
		}
		if order.Status == entity.OrderConfirmed {
			return fmt.Errorf("%w: la orden %s está CONFIRMED, use cancelar", domain.ErrInvalidTransition, order.Reference)
		}
		released, err := releaseInTx(ctx, uow, orderID)
		if err != nil {
			return err
		}
		for _, a := range released {
			touched[a.ItemID] = struct{}{}
		}
		count = len(released)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.exec.log.Info().Str("order_id", orderID).Int("released", count).Msg("reservas liberadas")
	uc.exec.invalidate(ctx, touched)
	return &dto.ReleaseResult{OrderID: orderID, ReleasedCount: count}, nil
}

// releaseInTx borra las reservas PROVISIONAL y devuelve las que borró.
func releaseInTx(ctx context.Context, uow repository.UnitOfWork, orderID string) ([]*entity.Allocation, error) {
	allocs, err := uow.Allocations().ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	released := make([]*entity.Allocation, 0, len(allocs))
	for _, a := range allocs {
		if a.IsProvisional() {
			released = append(released, a)
		}
	}
	n, err := uow.Allocations().DeleteProvisionalByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if n != len(released) {
		return nil, fmt.Errorf("se esperaban %d reservas por liberar y se borraron %d: %w", len(released), n, domain.ErrConsistency)
	}
	return released, nil
}
