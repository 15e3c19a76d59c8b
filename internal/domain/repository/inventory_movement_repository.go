package repository

import (
	"context"

	"github.com/jhoicas/allocation-engine/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para movimientos (solo inserción).
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	ListByLot(ctx context.Context, lotID string, limit, offset int) ([]*entity.InventoryMovement, error)
	ListByRef(ctx context.Context, ref string) ([]*entity.InventoryMovement, error)
}
