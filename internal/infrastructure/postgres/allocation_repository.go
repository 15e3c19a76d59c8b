package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo implementación sobre PostgreSQL de las reservas de lote.
type AllocationRepo struct {
	q Querier
}

// NewAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

// AddProvisional inserta la reserva o suma la cantidad a la PROVISIONAL existente de (línea, lote).
// Si la existente está COMMITTED el upsert no devuelve fila y se reporta ErrConflict.
func (r *AllocationRepo) AddProvisional(ctx context.Context, a *entity.Allocation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO allocations (id, order_line_id, lot_id, qty, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'PROVISIONAL', $5, $5)
		ON CONFLICT (order_line_id, lot_id) DO UPDATE
		SET qty = allocations.qty + EXCLUDED.qty, updated_at = EXCLUDED.updated_at
		WHERE allocations.status = 'PROVISIONAL'
		RETURNING id`
	var id string
	err := r.q.QueryRow(ctx, query, a.ID, a.OrderLineID, a.LotID, a.Qty, a.CreatedAt).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("línea %s ya tiene el lote %s comprometido: %w", a.OrderLineID, a.LotID, domain.ErrConflict)
		}
		return fmt.Errorf("add provisional allocation: %w", err)
	}
	a.ID = id
	a.Status = entity.AllocationProvisional
	return nil
}

// ReservedByLots suma de reservas PROVISIONAL por lote.
func (r *AllocationRepo) ReservedByLots(ctx context.Context, lotIDs []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(lotIDs))
	if len(lotIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT lot_id, SUM(qty)
		FROM allocations
		WHERE status = 'PROVISIONAL' AND lot_id = ANY($1)
		GROUP BY lot_id`
	rows, err := r.q.Query(ctx, query, lotIDs)
	if err != nil {
		return nil, fmt.Errorf("reserved by lots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			lotID string
			sum   decimal.Decimal
		)
		if err := rows.Scan(&lotID, &sum); err != nil {
			return nil, fmt.Errorf("scan reserved: %w", err)
		}
		out[lotID] = sum
	}
	return out, rows.Err()
}

// ListByOrder lista las reservas de la orden por número de línea y FIFO del lote.
func (r *AllocationRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Allocation, error) {
	query := `
		SELECT a.id, a.order_line_id, a.lot_id, a.qty, a.status, a.created_at, a.updated_at, t.lot_code, t.item_id
		FROM allocations a
		JOIN sales_order_lines l ON l.id = a.order_line_id
		JOIN lots t ON t.id = a.lot_id
		WHERE l.order_id = $1
		ORDER BY l.line_no, t.production_date ASC NULLS LAST, t.created_at ASC, t.id ASC`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()
	var out []*entity.Allocation
	for rows.Next() {
		var (
			a      entity.Allocation
			status string
		)
		if err := rows.Scan(&a.ID, &a.OrderLineID, &a.LotID, &a.Qty, &status, &a.CreatedAt, &a.UpdatedAt, &a.LotCode, &a.ItemID); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		if a.Status, err = entity.ParseAllocationStatus(status); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// MarkCommitted pasa una reserva PROVISIONAL a COMMITTED.
func (r *AllocationRepo) MarkCommitted(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE allocations SET status = 'COMMITTED', updated_at = NOW() WHERE id = $1 AND status = 'PROVISIONAL'`, id)
	if err != nil {
		return fmt.Errorf("commit allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("asignación %s no está PROVISIONAL: %w", id, domain.ErrConflict)
	}
	return nil
}

// DeleteProvisionalByOrder borra las reservas PROVISIONAL de todas las líneas de la orden.
func (r *AllocationRepo) DeleteProvisionalByOrder(ctx context.Context, orderID string) (int, error) {
	query := `
		DELETE FROM allocations a
		USING sales_order_lines l
		WHERE l.id = a.order_line_id AND l.order_id = $1 AND a.status = 'PROVISIONAL'`
	tag, err := r.q.Exec(ctx, query, orderID)
	if err != nil {
		return 0, fmt.Errorf("release allocations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
