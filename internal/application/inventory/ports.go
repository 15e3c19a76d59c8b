package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando la unidad de trabajo
// atada a esa tx. Garantiza atomicidad del libro de lotes.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error
}

// Cache almacén clave/valor para el modelo de lectura de disponibilidad.
// Get devuelve ok=false cuando la clave no existe.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
