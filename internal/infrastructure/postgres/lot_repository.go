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

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación sobre PostgreSQL del libro de lotes.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, lot_code, item_id, on_hand_qty, production_date, expiry_date, location, created_at, updated_at`

// fifoOrder orden de consumo: producción más antigua primero, sin fecha al final.
const fifoOrder = `production_date ASC NULLS LAST, created_at ASC, id ASC`

// Create persiste un lote.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	query := `INSERT INTO lots (` + lotColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.LotCode, lot.ItemID, lot.OnHandQty, lot.ProductionDate, lot.ExpiryDate,
		lot.Location, lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s: %w", lot.LotCode, domain.ErrDuplicate)
		}
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene el lote bloqueando la fila (SELECT FOR UPDATE).
func (r *LotRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id)
}

func (r *LotRepo) getOne(ctx context.Context, query, id string) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

// ListByItem lista los lotes del ítem en orden FIFO.
func (r *LotRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE item_id = $1 ORDER BY ` + fifoOrder
	return r.list(ctx, query, itemID)
}

// ListAvailableByItemForUpdate bloquea los lotes con stock del ítem en orden de ID,
// el mismo orden en toda operación que bloquee varios lotes.
func (r *LotRepo) ListAvailableByItemForUpdate(ctx context.Context, itemID string) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE item_id = $1 AND on_hand_qty > 0 ORDER BY id FOR UPDATE`
	return r.list(ctx, query, itemID)
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	var out []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateOnHand fija la cantidad en mano; el CHECK on_hand_qty >= 0 rechaza negativos.
func (r *LotRepo) UpdateOnHand(ctx context.Context, lotID string, qty decimal.Decimal) error {
	if qty.IsNegative() {
		return fmt.Errorf("lote %s quedaría en %s: %w", lotID, qty, domain.ErrConsistency)
	}
	tag, err := r.q.Exec(ctx, `UPDATE lots SET on_hand_qty = $2, updated_at = NOW() WHERE id = $1`, lotID, qty)
	if err != nil {
		return fmt.Errorf("update lot on hand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", lotID, domain.ErrNotFound)
	}
	return nil
}

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var (
		l        entity.Lot
		location *string
	)
	err := row.Scan(&l.ID, &l.LotCode, &l.ItemID, &l.OnHandQty, &l.ProductionDate, &l.ExpiryDate,
		&location, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if location != nil {
		l.Location = *location
	}
	return &l, nil
}
