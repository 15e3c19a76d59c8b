package allocation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/allocation-engine/internal/application/allocation"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
	"github.com/jhoicas/allocation-engine/internal/infrastructure/memory"
)

// ─── Fixture ─────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memory.Store
	allocator *allocation.Allocator
	confirm   *allocation.ConfirmOrderUseCase
	commitRel *allocation.CommitReleaseUseCase
	lifecycle *allocation.LifecycleUseCase
	spy       *invalidatorSpy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(2 * time.Second)
	return newFixtureWith(t, store, store)
}

func newFixtureWith(t *testing.T, store *memory.Store, tx allocation.TxRunner) *fixture {
	t.Helper()
	spy := &invalidatorSpy{}
	opts := allocation.Options{MaxRetries: 3, RetryBaseDelay: time.Millisecond, Invalidator: spy}
	alloc := allocation.NewAllocator(tx, opts)
	return &fixture{
		store:     store,
		allocator: alloc,
		confirm:   allocation.NewConfirmOrderUseCase(tx, alloc, opts),
		commitRel: allocation.NewCommitReleaseUseCase(tx, opts),
		lifecycle: allocation.NewLifecycleUseCase(tx, opts),
		spy:       spy,
	}
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) *time.Time {
	t := time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (f *fixture) seed(t *testing.T, fn func(ctx context.Context, uow repository.UnitOfWork) error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Run(ctx, func(uow repository.UnitOfWork) error { return fn(ctx, uow) }))
}

func (f *fixture) item(t *testing.T, id string) {
	f.seed(t, func(ctx context.Context, uow repository.UnitOfWork) error {
		return uow.Items().Create(ctx, &entity.Item{ID: id, Code: "SKU-" + id, Name: id, Type: entity.ItemTypeFinishedGood})
	})
}

func (f *fixture) lot(t *testing.T, id, itemID, onHand string, prod *time.Time) {
	f.seed(t, func(ctx context.Context, uow repository.UnitOfWork) error {
		return uow.Lots().Create(ctx, &entity.Lot{
			ID:             id,
			LotCode:        "LOT-" + id,
			ItemID:         itemID,
			OnHandQty:      qty(onHand),
			ProductionDate: prod,
			CreatedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		})
	})
}

// order crea una orden DRAFT; lines alterna itemID, cantidad.
func (f *fixture) order(t *testing.T, id string, lines ...string) {
	require.Zero(t, len(lines)%2)
	o := &entity.Order{ID: id, Reference: "SO-" + id, Status: entity.OrderDraft}
	for i := 0; i < len(lines); i += 2 {
		o.Lines = append(o.Lines, entity.OrderLine{
			ID:     fmt.Sprintf("%s-L%d", id, i/2+1),
			LineNo: i/2 + 1,
			ItemID: lines[i],
			Qty:    qty(lines[i+1]),
			UOM:    "UN",
		})
	}
	f.seed(t, func(ctx context.Context, uow repository.UnitOfWork) error {
		return uow.Orders().Create(ctx, o)
	})
}

func (f *fixture) provisionalOn(lotID string) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range f.store.Allocations() {
		if a.LotID == lotID && a.Status == entity.AllocationProvisional {
			sum = sum.Add(a.Qty)
		}
	}
	return sum
}

// ─── Dobles ──────────────────────────────────────────────────────────────────

type invalidatorSpy struct {
	mu    sync.Mutex
	items []string
}

func (s *invalidatorSpy) InvalidateItems(_ context.Context, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, ids...)
}

func (s *invalidatorSpy) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.items...)
}

// flakyTx devuelve ErrTransient en los primeros failures intentos.
type flakyTx struct {
	inner    allocation.TxRunner
	failures int
	calls    int
}

func (f *flakyTx) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("%w: deadlock detectado", domain.ErrTransient)
	}
	return f.inner.Run(ctx, fn)
}

// brokenMovementsTx falla al escribir movimientos, a mitad de la transacción.
type brokenMovementsTx struct{ store *memory.Store }

func (b brokenMovementsTx) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return b.store.Run(ctx, func(uow repository.UnitOfWork) error {
		return fn(brokenUoW{uow})
	})
}

type brokenUoW struct{ repository.UnitOfWork }

func (u brokenUoW) Movements() repository.InventoryMovementRepository {
	return brokenMovements{u.UnitOfWork.Movements()}
}

type brokenMovements struct{ repository.InventoryMovementRepository }

func (brokenMovements) Create(context.Context, *entity.InventoryMovement) error {
	return fmt.Errorf("escritura del libro de movimientos: disco lleno")
}

func memoryStore() *memory.Store { return memory.NewStore(2 * time.Second) }
