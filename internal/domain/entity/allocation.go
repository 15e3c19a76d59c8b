package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationStatus estado de una reserva de lote.
type AllocationStatus string

const (
	// AllocationProvisional reserva lógica: aún no descuenta el stock físico del lote.
	AllocationProvisional AllocationStatus = "PROVISIONAL"
	// AllocationCommitted reserva consumida: la cantidad ya se descontó de OnHandQty.
	AllocationCommitted AllocationStatus = "COMMITTED"
)

// ParseAllocationStatus valida un estado leído de almacenamiento.
func ParseAllocationStatus(s string) (AllocationStatus, error) {
	switch st := AllocationStatus(s); st {
	case AllocationProvisional, AllocationCommitted:
		return st, nil
	}
	return "", fmt.Errorf("estado de asignación desconocido %q", s)
}

// Allocation vincula una línea de orden (demanda) con un lote (oferta) por una cantidad.
// Clave lógica: (OrderLineID, LotID).
type Allocation struct {
	ID          string
	OrderLineID string
	LotID       string
	Qty         decimal.Decimal
	Status      AllocationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Proyecciones de solo lectura llenadas por los repositorios al listar.
	LotCode string
	ItemID  string
}

// IsProvisional indica si la reserva todavía puede liberarse.
func (a *Allocation) IsProvisional() bool {
	return a.Status == AllocationProvisional
}

// Commit pasa la reserva de PROVISIONAL a COMMITTED.
func (a *Allocation) Commit(now time.Time) error {
	if a.Status != AllocationProvisional {
		return fmt.Errorf("asignación %s en estado %s no se puede confirmar", a.ID, a.Status)
	}
	a.Status = AllocationCommitted
	a.UpdatedAt = now
	return nil
}
