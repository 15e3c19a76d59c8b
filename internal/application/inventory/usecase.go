package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
	"github.com/jhoicas/allocation-engine/pkg/logger"
)

// RegisterMovementUseCase mantiene el libro de lotes: recepción de lotes y movimientos
// con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type RegisterMovementUseCase struct {
	txRunner    TxRunner
	log         *logger.Logger
	maxRetries  uint64
	baseDelay   time.Duration
	invalidator *AvailabilityUseCase
}

// NewRegisterMovementUseCase construye el caso de uso. availability puede ser nil.
func NewRegisterMovementUseCase(txRunner TxRunner, log *logger.Logger, maxRetries uint64, baseDelay time.Duration, availability *AvailabilityUseCase) *RegisterMovementUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if baseDelay <= 0 {
		baseDelay = 50 * time.Millisecond
	}
	return &RegisterMovementUseCase{
		txRunner:    txRunner,
		log:         log.Component("lot_ledger"),
		maxRetries:  maxRetries,
		baseDelay:   baseDelay,
		invalidator: availability,
	}
}

// run reintenta la transacción completa solo ante domain.ErrTransient.
func (uc *RegisterMovementUseCase) run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	backoff := retry.WithMaxRetries(uc.maxRetries, retry.NewExponential(uc.baseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := uc.txRunner.Run(ctx, fn)
		if domain.IsRetryable(err) {
			uc.log.Warn().Err(err).Msg("error transitorio, se reintenta")
			return retry.RetryableError(err)
		}
		return err
	})
}

// ReceiveLot crea un lote y, si la cantidad inicial es positiva, su movimiento RECEIVE.
func (uc *RegisterMovementUseCase) ReceiveLot(ctx context.Context, in dto.ReceiveLotRequest) (*dto.LotResponse, error) {
	in.LotCode = strings.TrimSpace(in.LotCode)
	if in.LotCode == "" || in.ItemID == "" {
		return nil, fmt.Errorf("%w: lot_code e item_id son requeridos", domain.ErrInvalidInput)
	}
	qty := entity.NormalizeQty(in.Quantity)
	if qty.IsNegative() {
		return nil, fmt.Errorf("%w: la cantidad inicial no puede ser negativa", domain.ErrInvalidInput)
	}
	if in.ProductionDate != nil && in.ExpiryDate != nil && in.ExpiryDate.Before(*in.ProductionDate) {
		return nil, fmt.Errorf("%w: el vencimiento es anterior a la producción", domain.ErrInvalidInput)
	}

	var lot *entity.Lot
	err := uc.run(ctx, func(uow repository.UnitOfWork) error {
		lot = nil
		item, err := uow.Items().GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", in.ItemID, domain.ErrNotFound)
		}
		now := time.Now()
		l := &entity.Lot{
			ID:             uuid.New().String(),
			LotCode:        in.LotCode,
			ItemID:         item.ID,
			OnHandQty:      qty,
			ProductionDate: in.ProductionDate,
			ExpiryDate:     in.ExpiryDate,
			Location:       in.Location,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := uow.Lots().Create(ctx, l); err != nil {
			return err
		}
		if qty.IsPositive() {
			ref := in.Ref
			if ref == "" {
				ref = l.LotCode
			}
			mov := &entity.InventoryMovement{
				ID:        uuid.New().String(),
				LotID:     l.ID,
				DeltaQty:  qty,
				Reason:    entity.MovementReceive,
				Ref:       ref,
				CreatedAt: now,
			}
			if err := uow.Movements().Create(ctx, mov); err != nil {
				return err
			}
		}
		lot = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("lot_code", lot.LotCode).Str("item_id", lot.ItemID).Str("qty", qty.String()).Msg("lote recibido")
	uc.invalidate(ctx, lot.ItemID)
	return toLotResponse(lot), nil
}

// RegisterMovement aplica un delta sobre un lote bloqueado. Rechaza un resultado negativo
// (ErrInvalidInput) o inferior a las reservas PROVISIONAL vivas del lote (ErrConflict).
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, lotID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	if lotID == "" {
		return nil, fmt.Errorf("%w: lot_id requerido", domain.ErrInvalidInput)
	}
	reason, err := entity.ParseMovementReason(strings.ToUpper(strings.TrimSpace(in.Reason)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	delta := entity.NormalizeQty(in.DeltaQty)
	if delta.IsZero() {
		return nil, fmt.Errorf("%w: delta_qty no puede ser cero", domain.ErrInvalidInput)
	}

	var (
		mov    *entity.InventoryMovement
		itemID string
	)
	err = uc.run(ctx, func(uow repository.UnitOfWork) error {
		mov = nil
		lot, err := uow.Lots().GetByIDForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return fmt.Errorf("lote %s: %w", lotID, domain.ErrNotFound)
		}
		next := lot.OnHandQty.Add(delta)
		if next.IsNegative() {
			return fmt.Errorf("%w: el lote %s quedaría en %s", domain.ErrInvalidInput, lot.LotCode, next)
		}
		if delta.IsNegative() {
			reserved, err := uow.Allocations().ReservedByLots(ctx, []string{lot.ID})
			if err != nil {
				return err
			}
			if held := reserved[lot.ID]; next.LessThan(held) {
				return fmt.Errorf("%w: el lote %s tiene %s reservado y quedaría en %s", domain.ErrConflict, lot.LotCode, held, next)
			}
		}
		if err := uow.Lots().UpdateOnHand(ctx, lot.ID, next); err != nil {
			return err
		}
		m := &entity.InventoryMovement{
			ID:        uuid.New().String(),
			LotID:     lot.ID,
			DeltaQty:  delta,
			Reason:    reason,
			Ref:       strings.TrimSpace(in.Ref),
			CreatedAt: time.Now(),
		}
		if err := uow.Movements().Create(ctx, m); err != nil {
			return err
		}
		mov, itemID = m, lot.ItemID
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("lot_id", lotID).Str("reason", string(reason)).Str("delta", delta.String()).Msg("movimiento registrado")
	uc.invalidate(ctx, itemID)
	return toMovementResponse(mov), nil
}

// ListMovements devuelve la auditoría del lote, el movimiento más reciente primero.
func (uc *RegisterMovementUseCase) ListMovements(ctx context.Context, lotID string, page dto.PageRequest) (*dto.MovementListResponse, error) {
	page.DefaultPage()
	var out *dto.MovementListResponse
	err := uc.run(ctx, func(uow repository.UnitOfWork) error {
		lot, err := uow.Lots().GetByID(ctx, lotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return fmt.Errorf("lote %s: %w", lotID, domain.ErrNotFound)
		}
		movs, err := uow.Movements().ListByLot(ctx, lotID, page.Limit, page.Offset)
		if err != nil {
			return err
		}
		items := make([]dto.MovementResponse, 0, len(movs))
		for _, m := range movs {
			items = append(items, *toMovementResponse(m))
		}
		out = &dto.MovementListResponse{
			Items: items,
			Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListMovementsByRef devuelve los movimientos con esa referencia en orden cronológico.
func (uc *RegisterMovementUseCase) ListMovementsByRef(ctx context.Context, ref string) ([]dto.MovementResponse, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: ref requerida", domain.ErrInvalidInput)
	}
	var out []dto.MovementResponse
	err := uc.run(ctx, func(uow repository.UnitOfWork) error {
		movs, err := uow.Movements().ListByRef(ctx, ref)
		if err != nil {
			return err
		}
		out = make([]dto.MovementResponse, 0, len(movs))
		for _, m := range movs {
			out = append(out, *toMovementResponse(m))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *RegisterMovementUseCase) invalidate(ctx context.Context, itemID string) {
	if uc.invalidator != nil && itemID != "" {
		uc.invalidator.InvalidateItems(ctx, []string{itemID})
	}
}

func toLotResponse(l *entity.Lot) *dto.LotResponse {
	return &dto.LotResponse{
		ID:             l.ID,
		LotCode:        l.LotCode,
		ItemID:         l.ItemID,
		OnHandQty:      l.OnHandQty,
		ProductionDate: l.ProductionDate,
		ExpiryDate:     l.ExpiryDate,
		Location:       l.Location,
		CreatedAt:      l.CreatedAt,
	}
}

func toMovementResponse(m *entity.InventoryMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:        m.ID,
		LotID:     m.LotID,
		DeltaQty:  m.DeltaQty,
		Reason:    string(m.Reason),
		Ref:       m.Ref,
		CreatedAt: m.CreatedAt,
	}
}
