package repository

import (
	"context"

	"github.com/jhoicas/allocation-engine/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para el maestro de ítems.
// Para la asignación solo se lee; Create existe para cargas iniciales.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	// GetByID devuelve nil, nil si el ítem no existe.
	GetByID(ctx context.Context, id string) (*entity.Item, error)
}
