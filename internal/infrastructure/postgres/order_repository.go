package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación sobre PostgreSQL de órdenes de venta y sus líneas.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste la orden y sus líneas; debe llamarse dentro de una transacción.
func (r *OrderRepo) Create(ctx context.Context, order *entity.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO sales_orders (id, reference, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		order.ID, order.Reference, string(order.Status), order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("orden %s: %w", order.Reference, domain.ErrDuplicate)
		}
		return fmt.Errorf("create order: %w", err)
	}
	for i := range order.Lines {
		l := &order.Lines[i]
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.OrderID = order.ID
		_, err := r.q.Exec(ctx,
			`INSERT INTO sales_order_lines (id, order_id, line_no, item_id, qty, uom) VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, l.OrderID, l.LineNo, l.ItemID, l.Qty, l.UOM,
		)
		if err != nil {
			return fmt.Errorf("create order line %d: %w", l.LineNo, err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT id, reference, status, created_at, updated_at FROM sales_orders WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene la orden bloqueando su fila; las líneas no se bloquean.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT id, reference, status, created_at, updated_at FROM sales_orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	var (
		o      entity.Order
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&o.ID, &o.Reference, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o.Status, err = entity.ParseOrderStatus(status); err != nil {
		return nil, err
	}

	rows, err := r.q.Query(ctx,
		`SELECT id, order_id, line_no, item_id, qty, uom FROM sales_order_lines WHERE order_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNo, &l.ItemID, &l.Qty, &l.UOM); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetLine obtiene una línea de orden.
func (r *OrderRepo) GetLine(ctx context.Context, lineID string) (*entity.OrderLine, error) {
	var l entity.OrderLine
	err := r.q.QueryRow(ctx,
		`SELECT id, order_id, line_no, item_id, qty, uom FROM sales_order_lines WHERE id = $1`, lineID,
	).Scan(&l.ID, &l.OrderID, &l.LineNo, &l.ItemID, &l.Qty, &l.UOM)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order line: %w", err)
	}
	return &l, nil
}

// UpdateStatus persiste el estado de la orden.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) error {
	tag, err := r.q.Exec(ctx, `UPDATE sales_orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("orden %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
