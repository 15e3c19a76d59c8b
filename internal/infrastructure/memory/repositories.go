package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/inventory"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

var (
	_ repository.ItemRepository              = (*itemRepo)(nil)
	_ repository.LotRepository               = (*lotRepo)(nil)
	_ repository.AllocationRepository        = (*allocationRepo)(nil)
	_ repository.OrderRepository             = (*orderRepo)(nil)
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
)

func (s *state) linesOf(orderID string) []entity.OrderLine {
	var out []entity.OrderLine
	for _, l := range s.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out
}

// ─── items ───────────────────────────────────────────────────────────────────

type itemRepo struct{ st *state }

func (r *itemRepo) Create(_ context.Context, item *entity.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	for _, it := range r.st.items {
		if it.ID == item.ID || it.Code == item.Code {
			return fmt.Errorf("ítem %s: %w", item.Code, domain.ErrDuplicate)
		}
	}
	r.st.items[item.ID] = *item
	return nil
}

func (r *itemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	it, ok := r.st.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

// ─── lots ────────────────────────────────────────────────────────────────────

type lotRepo struct{ st *state }

func (r *lotRepo) Create(_ context.Context, lot *entity.Lot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	for _, l := range r.st.lots {
		if l.ID == lot.ID || l.LotCode == lot.LotCode {
			return fmt.Errorf("lote %s: %w", lot.LotCode, domain.ErrDuplicate)
		}
	}
	if lot.OnHandQty.IsNegative() {
		return fmt.Errorf("lote %s con cantidad negativa: %w", lot.LotCode, domain.ErrConsistency)
	}
	r.st.lots[lot.ID] = *lot
	return nil
}

func (r *lotRepo) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	l, ok := r.st.lots[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// GetByIDForUpdate no necesita bloqueo adicional: la transacción ya es exclusiva.
func (r *lotRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r *lotRepo) ListByItem(_ context.Context, itemID string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.st.lots {
		if l.ItemID == itemID {
			l := l
			out = append(out, &l)
		}
	}
	inventory.SortLots(out)
	return out, nil
}

func (r *lotRepo) ListAvailableByItemForUpdate(_ context.Context, itemID string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.st.lots {
		if l.ItemID == itemID && l.OnHandQty.GreaterThan(decimal.Zero) {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *lotRepo) UpdateOnHand(_ context.Context, lotID string, qty decimal.Decimal) error {
	l, ok := r.st.lots[lotID]
	if !ok {
		return fmt.Errorf("lote %s: %w", lotID, domain.ErrNotFound)
	}
	// Equivalente al CHECK (on_hand_qty >= 0) de la tabla.
	if qty.IsNegative() {
		return fmt.Errorf("lote %s quedaría en %s: %w", l.LotCode, qty, domain.ErrConsistency)
	}
	l.OnHandQty = qty
	l.UpdatedAt = time.Now()
	r.st.lots[lotID] = l
	return nil
}

// ─── allocations ─────────────────────────────────────────────────────────────

type allocationRepo struct{ st *state }

func (r *allocationRepo) AddProvisional(_ context.Context, a *entity.Allocation) error {
	if !a.Qty.GreaterThan(decimal.Zero) {
		return fmt.Errorf("asignación con cantidad %s: %w", a.Qty, domain.ErrConsistency)
	}
	for id, cur := range r.st.allocations {
		if cur.OrderLineID != a.OrderLineID || cur.LotID != a.LotID {
			continue
		}
		if cur.Status != entity.AllocationProvisional {
			return fmt.Errorf("línea %s ya tiene el lote %s comprometido: %w", a.OrderLineID, a.LotID, domain.ErrConflict)
		}
		cur.Qty = cur.Qty.Add(a.Qty)
		cur.UpdatedAt = a.CreatedAt
		r.st.allocations[id] = cur
		a.ID = cur.ID
		return nil
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Status = entity.AllocationProvisional
	stored := *a
	stored.LotCode, stored.ItemID = "", ""
	r.st.allocations[a.ID] = stored
	return nil
}

func (r *allocationRepo) ReservedByLots(_ context.Context, lotIDs []string) (map[string]decimal.Decimal, error) {
	wanted := make(map[string]bool, len(lotIDs))
	for _, id := range lotIDs {
		wanted[id] = true
	}
	out := map[string]decimal.Decimal{}
	for _, a := range r.st.allocations {
		if a.Status == entity.AllocationProvisional && wanted[a.LotID] {
			out[a.LotID] = out[a.LotID].Add(a.Qty)
		}
	}
	return out, nil
}

func (r *allocationRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.Allocation, error) {
	lineNo := map[string]int{}
	for _, l := range r.st.linesOf(orderID) {
		lineNo[l.ID] = l.LineNo
	}
	var out []*entity.Allocation
	for _, a := range r.st.allocations {
		if _, ok := lineNo[a.OrderLineID]; !ok {
			continue
		}
		a := a
		lot := r.st.lots[a.LotID]
		a.LotCode, a.ItemID = lot.LotCode, lot.ItemID
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if lineNo[out[i].OrderLineID] != lineNo[out[j].OrderLineID] {
			return lineNo[out[i].OrderLineID] < lineNo[out[j].OrderLineID]
		}
		li, lj := r.st.lots[out[i].LotID], r.st.lots[out[j].LotID]
		return inventory.LotLess(&li, &lj)
	})
	return out, nil
}

func (r *allocationRepo) MarkCommitted(_ context.Context, id string) error {
	a, ok := r.st.allocations[id]
	if !ok {
		return fmt.Errorf("asignación %s: %w", id, domain.ErrNotFound)
	}
	if err := a.Commit(time.Now()); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrConflict)
	}
	r.st.allocations[id] = a
	return nil
}

func (r *allocationRepo) DeleteProvisionalByOrder(_ context.Context, orderID string) (int, error) {
	lines := map[string]bool{}
	for _, l := range r.st.linesOf(orderID) {
		lines[l.ID] = true
	}
	n := 0
	for id, a := range r.st.allocations {
		if lines[a.OrderLineID] && a.Status == entity.AllocationProvisional {
			delete(r.st.allocations, id)
			n++
		}
	}
	return n, nil
}

// ─── orders ──────────────────────────────────────────────────────────────────

type orderRepo struct{ st *state }

func (r *orderRepo) Create(_ context.Context, order *entity.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for _, o := range r.st.orders {
		if o.ID == order.ID || o.Reference == order.Reference {
			return fmt.Errorf("orden %s: %w", order.Reference, domain.ErrDuplicate)
		}
	}
	for i := range order.Lines {
		l := &order.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.OrderID = order.ID
		r.st.lines[l.ID] = *l
	}
	stored := *order
	stored.Lines = nil
	r.st.orders[order.ID] = stored
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, nil
	}
	o.Lines = r.st.linesOf(id)
	return &o, nil
}

func (r *orderRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) GetLine(_ context.Context, lineID string) (*entity.OrderLine, error) {
	l, ok := r.st.lines[lineID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id string, status entity.OrderStatus) error {
	o, ok := r.st.orders[id]
	if !ok {
		return fmt.Errorf("orden %s: %w", id, domain.ErrNotFound)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	r.st.orders[id] = o
	return nil
}

// ─── movements ───────────────────────────────────────────────────────────────

type movementRepo struct{ st *state }

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if _, ok := r.st.lots[m.LotID]; !ok {
		return fmt.Errorf("movimiento sobre lote %s: %w", m.LotID, domain.ErrNotFound)
	}
	r.st.movements = append(r.st.movements, *m)
	return nil
}

// ListByLot devuelve los movimientos del lote, el más reciente primero.
func (r *movementRepo) ListByLot(_ context.Context, lotID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		if r.st.movements[i].LotID == lotID {
			m := r.st.movements[i]
			out = append(out, &m)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *movementRepo) ListByRef(_ context.Context, ref string) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	for _, m := range r.st.movements {
		if m.Ref == ref {
			m := m
			out = append(out, &m)
		}
	}
	return out, nil
}
