package repository

import (
	"context"

	"github.com/jhoicas/allocation-engine/internal/domain/entity"
)

// OrderRepository puerto hacia las órdenes de venta (colaborador externo: aquí solo se
// leen y se cambia el estado; Create existe para cargas iniciales).
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	// GetByID devuelve la orden con sus líneas ordenadas por LineNo, o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetByIDForUpdate igual que GetByID bloqueando la fila de la orden.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Order, error)
	// GetLine devuelve nil, nil si la línea no existe.
	GetLine(ctx context.Context, lineID string) (*entity.OrderLine, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) error
}
