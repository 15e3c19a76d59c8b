package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/domain/entity"
)

// LotRepository define el puerto del libro de lotes (Lot Ledger).
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	// GetByID devuelve nil, nil si el lote no existe.
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	// GetByIDForUpdate igual que GetByID pero bloquea la fila (SELECT FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	// ListByItem lista todos los lotes del ítem en orden FIFO.
	ListByItem(ctx context.Context, itemID string) ([]*entity.Lot, error)
	// ListAvailableByItemForUpdate lista y bloquea los lotes del ítem con OnHandQty > 0.
	// El orden de bloqueo es por ID; el orden FIFO lo decide el dominio.
	ListAvailableByItemForUpdate(ctx context.Context, itemID string) ([]*entity.Lot, error)
	// UpdateOnHand fija la cantidad en mano. Solo la usan movimientos confirmados.
	UpdateOnHand(ctx context.Context, lotID string, qty decimal.Decimal) error
}
