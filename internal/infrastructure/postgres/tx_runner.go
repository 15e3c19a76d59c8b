package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/allocation-engine/internal/application/allocation"
	"github.com/jhoicas/allocation-engine/internal/application/inventory"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

var (
	_ allocation.TxRunner = (*TxRunner)(nil)
	_ inventory.TxRunner  = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL SERIALIZABLE
// con espera de bloqueos acotada por lock_timeout.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con la unidad de trabajo atada a la tx y hace Commit o Rollback.
// Los errores de PostgreSQL se devuelven clasificados como errores de dominio.
func (r *TxRunner) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return classifyError(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		// SET no admite parámetros enlazados.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return classifyError(fmt.Errorf("set lock_timeout: %w", err))
		}
	}

	if err := fn(newUnitOfWork(tx)); err != nil {
		return classifyError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// unitOfWork repositorios atados a la misma transacción.
type unitOfWork struct {
	q Querier
}

func newUnitOfWork(q Querier) *unitOfWork { return &unitOfWork{q: q} }

func (u *unitOfWork) Items() repository.ItemRepository             { return NewItemRepository(u.q) }
func (u *unitOfWork) Lots() repository.LotRepository               { return NewLotRepository(u.q) }
func (u *unitOfWork) Allocations() repository.AllocationRepository { return NewAllocationRepository(u.q) }
func (u *unitOfWork) Orders() repository.OrderRepository           { return NewOrderRepository(u.q) }
func (u *unitOfWork) Movements() repository.InventoryMovementRepository {
	return NewInventoryMovementRepository(u.q)
}
