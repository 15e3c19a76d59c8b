package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
	"github.com/jhoicas/allocation-engine/pkg/logger"
)

const availabilityKeyPrefix = "availability:item:"

// AvailabilityUseCase modelo de lectura de disponibilidad por ítem, cacheado para consulta.
// El asignador nunca lo usa para decidir.
type AvailabilityUseCase struct {
	txRunner TxRunner
	cache    Cache
	ttl      time.Duration
	log      *logger.Logger
}

// NewAvailabilityUseCase construye el caso de uso. cache puede ser nil (sin caché).
func NewAvailabilityUseCase(txRunner TxRunner, cache Cache, ttl time.Duration, log *logger.Logger) *AvailabilityUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AvailabilityUseCase{
		txRunner: txRunner,
		cache:    cache,
		ttl:      ttl,
		log:      log.Component("availability"),
	}
}

func availabilityKey(itemID string) string { return availabilityKeyPrefix + itemID }

// GetItemAvailability devuelve en mano, reservado y disponible del ítem y de cada lote en orden FIFO.
func (uc *AvailabilityUseCase) GetItemAvailability(ctx context.Context, itemID string) (*dto.ItemAvailabilityDTO, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: item_id requerido", domain.ErrInvalidInput)
	}
	if cached, ok := uc.fromCache(ctx, itemID); ok {
		return cached, nil
	}

	var out *dto.ItemAvailabilityDTO
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		out = nil
		item, err := uow.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
		}
		lots, err := uow.Lots().ListByItem(ctx, itemID)
		if err != nil {
			return err
		}
		ids := make([]string, len(lots))
		for i, l := range lots {
			ids[i] = l.ID
		}
		reserved, err := uow.Allocations().ReservedByLots(ctx, ids)
		if err != nil {
			return err
		}
		out = buildAvailability(item, lots, reserved)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.toCache(ctx, out)
	return out, nil
}

// InvalidateItems descarta la disponibilidad cacheada de los ítems. Los fallos solo se registran.
func (uc *AvailabilityUseCase) InvalidateItems(ctx context.Context, itemIDs []string) {
	if uc.cache == nil || len(itemIDs) == 0 {
		return
	}
	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = availabilityKey(id)
	}
	if err := uc.cache.Delete(ctx, keys...); err != nil {
		uc.log.Warn().Err(err).Strs("item_ids", itemIDs).Msg("no se pudo invalidar la caché de disponibilidad")
	}
}

func (uc *AvailabilityUseCase) fromCache(ctx context.Context, itemID string) (*dto.ItemAvailabilityDTO, bool) {
	if uc.cache == nil {
		return nil, false
	}
	raw, ok, err := uc.cache.Get(ctx, availabilityKey(itemID))
	if err != nil {
		uc.log.Warn().Err(err).Str("item_id", itemID).Msg("lectura de caché fallida")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var out dto.ItemAvailabilityDTO
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		uc.log.Warn().Err(err).Str("item_id", itemID).Msg("entrada de caché corrupta")
		return nil, false
	}
	return &out, true
}

func (uc *AvailabilityUseCase) toCache(ctx context.Context, v *dto.ItemAvailabilityDTO) {
	if uc.cache == nil || uc.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, availabilityKey(v.ItemID), string(raw), uc.ttl); err != nil {
		uc.log.Warn().Err(err).Str("item_id", v.ItemID).Msg("escritura de caché fallida")
	}
}

// buildAvailability asume lots ya en orden FIFO.
func buildAvailability(item *entity.Item, lots []*entity.Lot, reserved map[string]decimal.Decimal) *dto.ItemAvailabilityDTO {
	out := &dto.ItemAvailabilityDTO{
		ItemID:       item.ID,
		ItemCode:     item.Code,
		OnHandQty:    decimal.Zero,
		ReservedQty:  decimal.Zero,
		AvailableQty: decimal.Zero,
		Lots:         make([]dto.LotAvailabilityDTO, 0, len(lots)),
	}
	for _, l := range lots {
		held := reserved[l.ID]
		avail := l.OnHandQty.Sub(held)
		if avail.IsNegative() {
			avail = decimal.Zero
		}
		out.Lots = append(out.Lots, dto.LotAvailabilityDTO{
			LotID:          l.ID,
			LotCode:        l.LotCode,
			ProductionDate: l.ProductionDate,
			ExpiryDate:     l.ExpiryDate,
			OnHandQty:      l.OnHandQty,
			ReservedQty:    held,
			AvailableQty:   avail,
		})
		out.OnHandQty = out.OnHandQty.Add(l.OnHandQty)
		out.ReservedQty = out.ReservedQty.Add(held)
		out.AvailableQty = out.AvailableQty.Add(avail)
	}
	return out
}
