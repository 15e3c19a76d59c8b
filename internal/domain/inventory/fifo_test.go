package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/inventory"
)

func day(d int) *time.Time {
	t := time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func lot(id string, qty int64, prod *time.Time, createdMin int) *entity.Lot {
	return &entity.Lot{
		ID:             id,
		LotCode:        "L-" + id,
		OnHandQty:      decimal.NewFromInt(qty),
		ProductionDate: prod,
		CreatedAt:      time.Date(2026, 2, 1, 0, createdMin, 0, 0, time.UTC),
	}
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPlanFIFO_DemandaCubiertaPorElLoteMasAntiguo(t *testing.T) {
	candidates := []inventory.Candidate{
		{Lot: lot("c", 10, day(3), 0)},
		{Lot: lot("a", 10, day(1), 0)},
		{Lot: lot("b", 10, day(2), 0)},
	}

	allocated, res := inventory.PlanFIFO(candidates, qty("7"))

	assert.True(t, allocated.Equal(qty("7")))
	require.Len(t, res, 1, "solo debe tocarse el lote más antiguo")
	assert.Equal(t, "a", res[0].LotID)
	assert.Equal(t, "L-a", res[0].LotCode)
}

func TestPlanFIFO_ReparteEntreLotesEnOrden(t *testing.T) {
	candidates := []inventory.Candidate{
		{Lot: lot("b", 5, day(2), 0)},
		{Lot: lot("a", 4, day(1), 0), Reserved: qty("1")},
		{Lot: lot("c", 10, day(3), 0)},
	}

	allocated, res := inventory.PlanFIFO(candidates, qty("10"))

	assert.True(t, allocated.Equal(qty("10")))
	require.Len(t, res, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{res[0].LotID, res[1].LotID, res[2].LotID})
	assert.True(t, res[0].Qty.Equal(qty("3")), "lote a: 4 en mano menos 1 reservado")
	assert.True(t, res[1].Qty.Equal(qty("5")))
	assert.True(t, res[2].Qty.Equal(qty("2")))
}

func TestPlanFIFO_AsignacionParcial(t *testing.T) {
	allocated, res := inventory.PlanFIFO([]inventory.Candidate{{Lot: lot("a", 8, day(1), 0)}}, qty("10"))

	assert.True(t, allocated.Equal(qty("8")), "8 de 10: la asignación parcial no es un error")
	require.Len(t, res, 1)
	assert.True(t, res[0].Qty.Equal(qty("8")))
}

func TestPlanFIFO_OmiteLotesSinDisponible(t *testing.T) {
	candidates := []inventory.Candidate{
		{Lot: lot("a", 5, day(1), 0), Reserved: qty("5")},
		{Lot: lot("b", 5, day(2), 0), Reserved: qty("6")},
		{Lot: lot("c", 5, day(3), 0)},
	}

	allocated, res := inventory.PlanFIFO(candidates, qty("2"))

	assert.True(t, allocated.Equal(qty("2")))
	require.Len(t, res, 1)
	assert.Equal(t, "c", res[0].LotID)
}

func TestPlanFIFO_SinFechaDeProduccionVaAlFinal(t *testing.T) {
	candidates := []inventory.Candidate{
		{Lot: lot("sin-fecha", 5, nil, 0)},
		{Lot: lot("con-fecha", 5, day(20), 30)},
	}

	_, res := inventory.PlanFIFO(candidates, qty("6"))

	require.Len(t, res, 2)
	assert.Equal(t, "con-fecha", res[0].LotID)
	assert.Equal(t, "sin-fecha", res[1].LotID)
}

func TestPlanFIFO_DesempatePorFechaDeCreacion(t *testing.T) {
	candidates := []inventory.Candidate{
		{Lot: lot("nuevo", 5, day(1), 10)},
		{Lot: lot("viejo", 5, day(1), 5)},
	}

	_, res := inventory.PlanFIFO(candidates, qty("1"))

	require.Len(t, res, 1)
	assert.Equal(t, "viejo", res[0].LotID)
}

func TestPlanFIFO_EscalaDecimal(t *testing.T) {
	candidates := []inventory.Candidate{
		{Lot: &entity.Lot{ID: "a", OnHandQty: qty("0.1"), ProductionDate: day(1)}},
		{Lot: &entity.Lot{ID: "b", OnHandQty: qty("0.2"), ProductionDate: day(2)}},
	}

	allocated, res := inventory.PlanFIFO(candidates, qty("0.3"))

	assert.Equal(t, "0.3", allocated.String(), "sin deriva de coma flotante")
	require.Len(t, res, 2)
}

func TestPlanFIFO_NoModificaLosCandidatos(t *testing.T) {
	candidates := []inventory.Candidate{
		{Lot: lot("b", 1, day(2), 0)},
		{Lot: lot("a", 1, day(1), 0)},
	}
	inventory.PlanFIFO(candidates, qty("2"))
	assert.Equal(t, "b", candidates[0].Lot.ID)
}

func TestSortLots(t *testing.T) {
	lots := []*entity.Lot{lot("z", 1, nil, 0), lot("y", 1, day(2), 0), lot("x", 1, day(1), 0)}
	inventory.SortLots(lots)
	assert.Equal(t, "x", lots[0].ID)
	assert.Equal(t, "y", lots[1].ID)
	assert.Equal(t, "z", lots[2].ID)
}
