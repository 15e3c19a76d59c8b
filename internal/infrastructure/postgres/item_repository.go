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

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación sobre PostgreSQL del maestro de ítems.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste un ítem.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `INSERT INTO items (id, code, name, type, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, item.ID, item.Code, item.Name, string(item.Type), item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ítem %s: %w", item.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem por ID.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	query := `SELECT id, code, name, type, created_at FROM items WHERE id = $1`
	var (
		it  entity.Item
		typ string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&it.ID, &it.Code, &it.Name, &typ, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	if it.Type, err = entity.ParseItemType(typ); err != nil {
		return nil, fmt.Errorf("item %s: %w", id, err)
	}
	return &it, nil
}
