package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// La tabla rechaza UPDATE y DELETE mediante trigger.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

const movementColumns = `id, lot_id, delta_qty, reason, ref, created_at`

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `INSERT INTO inventory_movements (` + movementColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, m.ID, m.LotID, m.DeltaQty, string(m.Reason), m.Ref, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// ListByLot lista los movimientos del lote, el más reciente primero.
func (r *InventoryMovementRepo) ListByLot(ctx context.Context, lotID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE lot_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, lotID, limit, offset)
}

// ListByRef lista los movimientos con la referencia dada en orden cronológico.
func (r *InventoryMovementRepo) ListByRef(ctx context.Context, ref string) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE ref = $1 ORDER BY created_at, id`
	return r.list(ctx, query, ref)
}

func (r *InventoryMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var out []*entity.InventoryMovement
	for rows.Next() {
		var (
			m      entity.InventoryMovement
			reason string
		)
		if err := rows.Scan(&m.ID, &m.LotID, &m.DeltaQty, &reason, &m.Ref, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if m.Reason, err = entity.ParseMovementReason(reason); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
