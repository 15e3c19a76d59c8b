package allocation

import (
	"context"
	"time"

	"github.com/jhoicas/allocation-engine/internal/domain/repository"
	"github.com/jhoicas/allocation-engine/pkg/logger"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando la unidad de trabajo
// atada a esa tx. Commit si fn devuelve nil, Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error
}

// AvailabilityInvalidator recibe los ítems cuya disponibilidad cambió tras un commit
// (caché del modelo de lectura). Nunca participa en la decisión de asignar.
type AvailabilityInvalidator interface {
	InvalidateItems(ctx context.Context, itemIDs []string)
}

// Options dependencias opcionales comunes a los casos de uso de asignación.
type Options struct {
	Logger         *logger.Logger
	MaxRetries     uint64        // reintentos ante domain.ErrTransient
	RetryBaseDelay time.Duration // base del backoff exponencial
	Invalidator    AvailabilityInvalidator
	Clock          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 50 * time.Millisecond
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
