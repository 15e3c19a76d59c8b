package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementReason motivo de un movimiento de inventario.
type MovementReason string

// Motivos de movimiento.
const (
	MovementReceive MovementReason = "RECEIVE" // entrada
	MovementIssue   MovementReason = "ISSUE"   // salida por orden de venta
	MovementAdjust  MovementReason = "ADJUST"  // ajuste
	MovementConsume MovementReason = "CONSUME" // consumo en producción
	MovementProduce MovementReason = "PRODUCE" // producción
)

// ParseMovementReason valida un motivo recibido como texto.
func ParseMovementReason(s string) (MovementReason, error) {
	switch r := MovementReason(s); r {
	case MovementReceive, MovementIssue, MovementAdjust, MovementConsume, MovementProduce:
		return r, nil
	}
	return "", fmt.Errorf("motivo de movimiento desconocido %q", s)
}

// InventoryMovement registro de auditoría inmutable: delta de cantidad sobre un lote.
// Nunca se actualiza ni se borra.
type InventoryMovement struct {
	ID        string
	LotID     string
	DeltaQty  decimal.Decimal // positivo entrada, negativo salida
	Reason    MovementReason
	Ref       string // ej. referencia de la orden
	CreatedAt time.Time
}
