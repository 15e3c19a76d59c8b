package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/domain/entity"
)

// AllocationRepository define el puerto del almacén de reservas.
type AllocationRepository interface {
	// AddProvisional crea una reserva PROVISIONAL o, si ya existe una PROVISIONAL para
	// (OrderLineID, LotID), le suma la cantidad. Devuelve ErrConflict si la existente está COMMITTED.
	AddProvisional(ctx context.Context, a *entity.Allocation) error
	// ReservedByLots suma de reservas PROVISIONAL por lote (lotes sin reservas no aparecen).
	ReservedByLots(ctx context.Context, lotIDs []string) (map[string]decimal.Decimal, error)
	// ListByOrder lista las reservas de todas las líneas de la orden, por número de línea y FIFO del lote.
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Allocation, error)
	MarkCommitted(ctx context.Context, id string) error
	// DeleteProvisionalByOrder borra solo las reservas PROVISIONAL y devuelve cuántas borró.
	DeleteProvisionalByOrder(ctx context.Context, orderID string) (int, error)
}
