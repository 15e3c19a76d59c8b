package allocation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
)

func TestCancelOrder_DesdeConfirmedCompensaConADJUST(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "3", day(1))
	f.lot(t, "l2", "A", "3", day(2))
	f.order(t, "1", "A", "5")
	_, err := f.confirm.ConfirmOrder(context.Background(), "1")
	require.NoError(t, err)

	res, err := f.lifecycle.CancelOrder(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, 2, res.ReleasedCount)
	assert.Equal(t, entity.OrderCancelled, f.store.Order("1").Status)
	assert.Empty(t, f.store.Allocations())

	var issued, adjusted int
	for _, m := range f.store.Movements() {
		switch m.Reason {
		case entity.MovementIssue:
			issued++
		case entity.MovementAdjust:
			adjusted++
			assert.True(t, m.DeltaQty.IsPositive())
			assert.Equal(t, "SO-1", m.Ref)
		}
	}
	assert.Equal(t, 2, issued)
	assert.Equal(t, 2, adjusted)
}

func TestCancelOrder_DesdeDraftSinMovimientos(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "3", day(1))
	f.order(t, "1", "A", "5")
	_, err := f.confirm.ConfirmOrder(context.Background(), "1")
	require.NoError(t, err)

	res, err := f.lifecycle.CancelOrder(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, 1, res.ReleasedCount)
	assert.Empty(t, f.store.Movements())

	_, err = f.lifecycle.CancelOrder(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "CANCELLED es terminal")
}

func TestLifecycle_DespachoYCierre(t *testing.T) {
	f := newFixture(t)
	f.item(t, "A")
	f.lot(t, "l1", "A", "5", day(1))
	f.order(t, "1", "A", "5")
	ctx := context.Background()

	_, err := f.lifecycle.ShipOrder(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.confirm.ConfirmOrder(ctx, "1")
	require.NoError(t, err)
	_, err = f.commitRel.CommitAllocations(ctx, "1")
	require.NoError(t, err)

	shipped, err := f.lifecycle.ShipOrder(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.OrderShipped), shipped.Status)

	_, err = f.lifecycle.CancelOrder(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se cancela una orden despachada")

	closed, err := f.lifecycle.CloseOrder(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.OrderClosed), closed.Status)

	_, err = f.lifecycle.CloseOrder(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
