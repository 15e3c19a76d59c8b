package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/domain/entity"
)

// Candidate lote candidato junto con lo que ya tiene reservado (suma de asignaciones PROVISIONAL).
type Candidate struct {
	Lot      *entity.Lot
	Reserved decimal.Decimal
}

// Available cantidad libre del lote: OnHand - Reserved.
func (c Candidate) Available() decimal.Decimal {
	return c.Lot.OnHandQty.Sub(c.Reserved)
}

// Reservation cantidad a reservar de un lote concreto.
type Reservation struct {
	LotID   string
	LotCode string
	Qty     decimal.Decimal
}

// LotLess política FIFO: fecha de producción ascendente (sin fecha al final),
// luego fecha de creación y por último ID para un orden total.
func LotLess(a, b *entity.Lot) bool {
	switch {
	case a.ProductionDate != nil && b.ProductionDate == nil:
		return true
	case a.ProductionDate == nil && b.ProductionDate != nil:
		return false
	case a.ProductionDate != nil && !a.ProductionDate.Equal(*b.ProductionDate):
		return a.ProductionDate.Before(*b.ProductionDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SortLots ordena los lotes in-place según LotLess.
func SortLots(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool { return LotLess(lots[i], lots[j]) })
}

// PlanFIFO reparte la demanda de forma voraz desde el lote más antiguo.
// No modifica candidates. Devuelve el total reservado (puede ser menor que demand)
// y una reserva por cada lote tocado, en orden FIFO.
func PlanFIFO(candidates []Candidate, demand decimal.Decimal) (decimal.Decimal, []Reservation) {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool { return LotLess(ordered[i].Lot, ordered[j].Lot) })

	remaining := entity.NormalizeQty(demand)
	var reservations []Reservation
	for _, c := range ordered {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}
		available := entity.NormalizeQty(c.Available())
		if !available.GreaterThan(decimal.Zero) {
			continue
		}
		qty := decimal.Min(remaining, available)
		reservations = append(reservations, Reservation{LotID: c.Lot.ID, LotCode: c.Lot.LotCode, Qty: qty})
		remaining = remaining.Sub(qty)
	}
	return entity.NormalizeQty(demand).Sub(remaining), reservations
}
