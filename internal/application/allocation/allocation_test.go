package allocation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/allocation-engine/internal/application/dto"
	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
)

// ─── AllocateLine ────────────────────────────────────────────────────────────

func TestAllocateLine_RespetaFIFOPorFechaDeProduccion(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "new", "A", "10", day(20))
	f.lot(t, "old", "A", "5", day(2))
	f.order(t, "1", "A", "8")

	res, err := f.allocator.AllocateLine(context.Background(), "A", qty("8"), "1-L1")

	require.NoError(t, err)
	assert.True(t, res.AllocatedQty.Equal(qty("8")))
	require.Len(t, res.Allocations, 2)
	assert.Equal(t, "LOT-old", res.Allocations[0].LotCode)
	assert.True(t, res.Allocations[0].Qty.Equal(qty("5")))
	assert.Equal(t, "LOT-new", res.Allocations[1].LotCode)
	assert.True(t, res.Allocations[1].Qty.Equal(qty("3")))
	assert.True(t, f.store.Lot("old").OnHandQty.Equal(qty("5")), "la reserva no toca el stock físico")
	assert.Equal(t, []string{"A"}, f.spy.seen())
}

func TestAllocateLine_CantidadInvalidaNoEscribeNada(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "10", day(1))
	f.order(t, "1", "A", "5")

	for _, q := range []string{"0", "-1", "0.0001"} {
		_, err := f.allocator.AllocateLine(context.Background(), "A", qty(q), "1-L1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad %s", q)
	}
	assert.Empty(t, f.store.Allocations())
}

func TestAllocateLine_ItemInexistente(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.order(t, "1", "A", "5")

	_, err := f.allocator.AllocateLine(context.Background(), "A", qty("1"), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.allocator.AllocateLine(context.Background(), "B", qty("1"), "1-L1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "la línea pide otro ítem")
}

func TestAllocateLine_RechazaLineasDeOrdenesFueraDeDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "20", day(1))
	f.order(t, "1", "A", "5")
	f.order(t, "2", "A", "8")

	_, err := f.confirm.ConfirmOrder(ctx, "1")
	require.NoError(t, err)
	_, err = f.allocator.AllocateLine(ctx, "A", qty("7"), "1-L1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "orden CONFIRMED")
	assert.True(t, f.provisionalOn("l1").Equal(qty("5")), "la reserva confirmada no crece")

	res, err := f.commitRel.CommitAllocations(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CommittedCount)
	assert.True(t, f.store.Lot("l1").OnHandQty.Equal(qty("15")), "solo sale lo pedido por la línea")

	_, err = f.lifecycle.CancelOrder(ctx, "2")
	require.NoError(t, err)
	_, err = f.allocator.AllocateLine(ctx, "A", qty("8"), "2-L1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "orden CANCELLED")
	assert.True(t, f.provisionalOn("l1").IsZero(), "no quedan reservas huérfanas")
}

func TestAllocateLine_SinStockDevuelveCero(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "0", day(1))
	f.order(t, "1", "A", "5")

	res, err := f.allocator.AllocateLine(context.Background(), "A", qty("5"), "1-L1")

	require.NoError(t, err)
	assert.True(t, res.AllocatedQty.IsZero())
	assert.Empty(t, res.Allocations)
}

func TestAllocateLine_ConcurrenciaNuncaSobrevende(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "10", day(1))
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		f.order(t, id, "A", "3")
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total = decimal.Zero
	)
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		wg.Add(1)
		go func(line string) {
			defer wg.Done()
			res, err := f.allocator.AllocateLine(context.Background(), "A", qty("3"), line)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			total = total.Add(res.AllocatedQty)
			mu.Unlock()
		}(id + "-L1")
	}
	wg.Wait()

	assert.True(t, total.Equal(qty("10")), "total asignado %s", total)
	assert.True(t, f.provisionalOn("l1").LessThanOrEqual(f.store.Lot("l1").OnHandQty))
}

// ─── ConfirmOrder ────────────────────────────────────────────────────────────

func TestConfirmOrder_AsignacionCompletaConfirmaYEmiteISSUE(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.item(t, "B")
	f.lot(t, "a1", "A", "4", day(1))
	f.lot(t, "a2", "A", "10", day(5))
	f.lot(t, "b1", "B", "3", day(1))
	f.order(t, "1", "A", "6", "B", "3")

	res, err := f.confirm.ConfirmOrder(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeConfirmed, res.Status)
	assert.True(t, res.FullyAllocated())
	require.Len(t, res.Lines, 2)
	assert.Equal(t, 1, res.Lines[0].LineNo)
	assert.Equal(t, "SKU-A", res.Lines[0].ItemCode)
	assert.True(t, res.Lines[0].ShortfallQty.IsZero())
	require.Len(t, res.Lines[0].Allocations, 2)
	assert.Equal(t, "LOT-a1", res.Lines[0].Allocations[0].LotCode)
	assert.Equal(t, entity.OrderConfirmed, f.store.Order("1").Status)

	movs := f.store.Movements()
	require.Len(t, movs, 3, "un ISSUE por reserva")
	sum := decimal.Zero
	for _, m := range movs {
		assert.Equal(t, entity.MovementIssue, m.Reason)
		assert.Equal(t, "SO-1", m.Ref)
		assert.True(t, m.DeltaQty.IsNegative())
		sum = sum.Add(m.DeltaQty)
	}
	assert.True(t, sum.Equal(qty("-9")))
	assert.True(t, f.store.Lot("a1").OnHandQty.Equal(qty("4")), "confirmar no descuenta stock")
	assert.ElementsMatch(t, []string{"A", "B"}, f.spy.seen())
}

func TestConfirmOrder_ParcialDejaDRAFTConFaltante(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "8", day(1))
	f.order(t, "1", "A", "10")

	res, err := f.confirm.ConfirmOrder(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, dto.OutcomePartial, res.Status)
	assert.True(t, res.Lines[0].AllocatedQty.Equal(qty("8")))
	assert.True(t, res.Lines[0].ShortfallQty.Equal(qty("2")))
	assert.Equal(t, entity.OrderDraft, f.store.Order("1").Status)
	assert.Empty(t, f.store.Movements())
}

func TestConfirmOrder_ReintentoTrasParcialNoDuplicaReservas(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "8", day(1))
	f.order(t, "1", "A", "10")

	_, err := f.confirm.ConfirmOrder(context.Background(), "1")
	require.NoError(t, err)
	res, err := f.confirm.ConfirmOrder(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomePartial, res.Status)
	assert.True(t, f.provisionalOn("l1").Equal(qty("8")))

	f.lot(t, "l2", "A", "5", day(2))
	res, err = f.confirm.ConfirmOrder(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeConfirmed, res.Status)
	require.Len(t, res.Lines[0].Allocations, 2)
	assert.True(t, res.Lines[0].Allocations[1].Qty.Equal(qty("2")))
	assert.Len(t, f.store.Allocations(), 2)
}

func TestConfirmOrder_DosOrdenesCompitenPorElMismoLote(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "10", day(1))
	f.order(t, "1", "A", "8")
	f.order(t, "2", "A", "8")

	r1, err := f.confirm.ConfirmOrder(context.Background(), "1")
	require.NoError(t, err)
	r2, err := f.confirm.ConfirmOrder(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, dto.OutcomeConfirmed, r1.Status)
	assert.Equal(t, dto.OutcomePartial, r2.Status)
	assert.True(t, r2.Lines[0].AllocatedQty.Equal(qty("2")))
	assert.True(t, f.provisionalOn("l1").Equal(qty("10")))
}

func TestConfirmOrder_Errores(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "10", day(1))
	f.order(t, "1", "A", "2")
	f.order(t, "vacia")

	_, err := f.confirm.ConfirmOrder(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.confirm.ConfirmOrder(context.Background(), "vacia")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.confirm.ConfirmOrder(context.Background(), "1")
	require.NoError(t, err)
	_, err = f.confirm.ConfirmOrder(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "solo se confirma desde DRAFT")
}

func TestConfirmOrder_FalloAMitadRevierteTodo(t *testing.T) {
	store := memoryStore()
	f := newFixtureWith(t, store, brokenMovementsTx{store: store})
	f.item(t, "A")
	f.lot(t, "l1", "A", "10", day(1))
	f.order(t, "1", "A", "4")

	_, err := f.confirm.ConfirmOrder(context.Background(), "1")

	require.Error(t, err)
	assert.Empty(t, f.store.Allocations(), "las reservas hechas antes del fallo se descartan")
	assert.Equal(t, entity.OrderDraft, f.store.Order("1").Status)
	assert.Empty(t, f.spy.seen())
}

func TestConfirmOrder_ReintentaErrorTransitorio(t *testing.T) {
	store := memoryStore()
	flaky := &flakyTx{inner: store, failures: 2}
	f := newFixtureWith(t, store, flaky)
	f.item(t, "A")
	f.lot(t, "l1", "A", "10", day(1))
	f.order(t, "1", "A", "4")

	res, err := f.confirm.ConfirmOrder(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeConfirmed, res.Status)
	assert.Equal(t, 3, flaky.calls)
	assert.Len(t, f.store.Allocations(), 1)
}

func TestConfirmOrder_AgotaReintentos(t *testing.T) {
	store := memoryStore()
	flaky := &flakyTx{inner: store, failures: 10}
	f := newFixtureWith(t, store, flaky)
	f.item(t, "A")
	f.order(t, "1", "A", "4")

	_, err := f.confirm.ConfirmOrder(context.Background(), "1")

	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, 4, flaky.calls, "intento inicial más tres reintentos")
}

func TestConfirmOrder_EsDeterminista(t *testing.T) {
	run := func() []string {
		f := newFixture(t)
		f.item(t, "A")
		f.lot(t, "z", "A", "3", nil)
		f.lot(t, "y", "A", "3", day(4))
		f.lot(t, "x", "A", "3", day(4))
		f.order(t, "1", "A", "7")
		res, err := f.confirm.ConfirmOrder(context.Background(), "1")
		require.NoError(t, err)
		var out []string
		for _, a := range res.Lines[0].Allocations {
			out = append(out, a.LotCode+":"+a.Qty.String())
		}
		return out
	}
	first := run()
	assert.Equal(t, []string{"LOT-x:3", "LOT-y:3", "LOT-z:1"}, first, "lotes sin fecha van al final")
	assert.Equal(t, first, run())
}
