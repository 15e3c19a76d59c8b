package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/allocation-engine/internal/domain"
	"github.com/jhoicas/allocation-engine/internal/domain/entity"
	"github.com/jhoicas/allocation-engine/internal/domain/repository"
)

// state es el contenido completo del almacén; cada transacción trabaja sobre una copia.
type state struct {
	items       map[string]entity.Item
	lots        map[string]entity.Lot
	allocations map[string]entity.Allocation
	orders      map[string]entity.Order // sin líneas
	lines       map[string]entity.OrderLine
	movements   []entity.InventoryMovement
}

func newState() *state {
	return &state{
		items:       map[string]entity.Item{},
		lots:        map[string]entity.Lot{},
		allocations: map[string]entity.Allocation{},
		orders:      map[string]entity.Order{},
		lines:       map[string]entity.OrderLine{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.allocations {
		c.allocations[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	c.movements = append([]entity.InventoryMovement(nil), s.movements...)
	return c
}

// Store almacén en memoria con semántica transaccional serializable:
// una sola transacción a la vez, Commit reemplaza el estado, Rollback lo descarta.
type Store struct {
	sem         chan struct{}
	lockTimeout time.Duration
	data        *state
}

// NewStore construye un almacén vacío. lockTimeout acota la espera por el bloqueo global;
// agotarla devuelve domain.ErrTransient.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Store{
		sem:         make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		data:        newState(),
	}
}

// Run ejecuta fn dentro de una transacción. Si fn devuelve error, nada de lo escrito persiste.
func (s *Store) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	work := s.data.clone()
	if err := fn(&unitOfWork{st: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: tiempo de espera de bloqueo agotado (%s)", domain.ErrTransient, s.lockTimeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrTransient, ctx.Err())
	}
}

func (s *Store) release() { <-s.sem }

// snapshot lee el estado confirmado bajo el bloqueo global (helpers de inspección).
// Entra en pánico si el bloqueo no se obtiene dentro de lockTimeout.
func (s *Store) snapshot() *state {
	if err := s.acquire(context.Background()); err != nil {
		panic(fmt.Sprintf("memory: inspección sin bloqueo: %v", err))
	}
	defer s.release()
	return s.data.clone()
}

// Lot devuelve el lote confirmado o nil.
func (s *Store) Lot(id string) *entity.Lot {
	l, ok := s.snapshot().lots[id]
	if !ok {
		return nil
	}
	return &l
}

// Order devuelve la orden confirmada (con líneas) o nil.
func (s *Store) Order(id string) *entity.Order {
	st := s.snapshot()
	o, ok := st.orders[id]
	if !ok {
		return nil
	}
	o.Lines = st.linesOf(id)
	return &o
}

// Allocations devuelve todas las reservas confirmadas.
func (s *Store) Allocations() []entity.Allocation {
	st := s.snapshot()
	out := make([]entity.Allocation, 0, len(st.allocations))
	for _, a := range st.allocations {
		out = append(out, a)
	}
	return out
}

// Movements devuelve el libro de movimientos en orden de inserción.
func (s *Store) Movements() []entity.InventoryMovement {
	return s.snapshot().movements
}

type unitOfWork struct {
	st *state
}

func (u *unitOfWork) Items() repository.ItemRepository                  { return &itemRepo{st: u.st} }
func (u *unitOfWork) Lots() repository.LotRepository                    { return &lotRepo{st: u.st} }
func (u *unitOfWork) Allocations() repository.AllocationRepository      { return &allocationRepo{st: u.st} }
func (u *unitOfWork) Orders() repository.OrderRepository                { return &orderRepo{st: u.st} }
func (u *unitOfWork) Movements() repository.InventoryMovementRepository { return &movementRepo{st: u.st} }
