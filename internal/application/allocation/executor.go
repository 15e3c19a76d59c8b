package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
	"github.com/jhoicas/allocation-engine/pkg/logger"
)

// executor corre cada operación completa en una transacción nueva y la repite
// solo ante errores transitorios (bloqueos, deadlocks, serialización).
type executor struct {
	tx          TxRunner
	log         *logger.Logger
	maxRetries  uint64
	baseDelay   time.Duration
	invalidator AvailabilityInvalidator
	now         func() time.Time
}

func newExecutor(tx TxRunner, component string, opts Options) executor {
	opts = opts.withDefaults()
	return executor{
		tx:          tx,
		log:         opts.Logger.Component(component),
		maxRetries:  opts.MaxRetries,
		baseDelay:   opts.RetryBaseDelay,
		invalidator: opts.Invalidator,
		now:         opts.Clock,
	}
}

// run ejecuta fn con reintentos. fn debe reiniciar cualquier resultado capturado,
// porque puede invocarse más de una vez.
func (e executor) run(ctx context.Context, op string, fn func(uow repository.UnitOfWork) error) error {
	backoff := retry.WithMaxRetries(e.maxRetries, retry.NewExponential(e.baseDelay))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := e.tx.Run(ctx, fn)
		if err != nil && domain.IsRetryable(err) {
			e.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("error transitorio, se reintenta en una transacción nueva")
			return retry.RetryableError(err)
		}
		return err
	})
}

// invalidate avisa al modelo de lectura; sus fallos no afectan la operación ya confirmada.
func (e executor) invalidate(ctx context.Context, itemIDs map[string]struct{}) {
	if e.invalidator == nil || len(itemIDs) == 0 {
		return
	}
	ids := make([]string, 0, len(itemIDs))
	for id := range itemIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	e.invalidator.InvalidateItems(ctx, ids)
}
