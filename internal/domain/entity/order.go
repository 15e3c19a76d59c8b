package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado de una orden de venta.
type OrderStatus string

// Estados de la orden. CLOSED y CANCELLED son terminales.
const (
	OrderDraft     OrderStatus = "DRAFT"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPicked    OrderStatus = "PICKED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderClosed    OrderStatus = "CLOSED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// OrderEvent acción del ciclo de vida que provoca una transición.
type OrderEvent string

// Eventos del ciclo de vida.
const (
	EventConfirm OrderEvent = "confirm"
	EventPick    OrderEvent = "pick"
	EventShip    OrderEvent = "ship"
	EventClose   OrderEvent = "close"
	EventCancel  OrderEvent = "cancel"
)

// orderTransitions tabla cerrada de transiciones válidas: estado -> evento -> estado destino.
var orderTransitions = map[OrderStatus]map[OrderEvent]OrderStatus{
	OrderDraft: {
		EventConfirm: OrderConfirmed,
		EventCancel:  OrderCancelled,
	},
	OrderConfirmed: {
		EventPick:   OrderPicked,
		EventCancel: OrderCancelled,
	},
	OrderPicked: {
		EventShip:   OrderShipped,
		EventCancel: OrderCancelled,
	},
	OrderShipped: {
		EventClose: OrderClosed,
	},
	OrderClosed:    {},
	OrderCancelled: {},
}

// ParseOrderStatus valida un estado leído de almacenamiento.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderTransitions[st]; !ok {
		return "", fmt.Errorf("estado de orden desconocido %q", s)
	}
	return st, nil
}

// Next devuelve el estado destino del evento o ok=false si la transición no existe.
func (s OrderStatus) Next(ev OrderEvent) (OrderStatus, bool) {
	to, ok := orderTransitions[s][ev]
	return to, ok
}

// IsTerminal indica si el estado no admite más transiciones.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// OrderLine unidad de demanda de una orden.
type OrderLine struct {
	ID      string
	OrderID string
	LineNo  int // orden determinista de procesamiento
	ItemID  string
	Qty     decimal.Decimal
	UOM     string
}

// Order agrega las líneas de una orden de venta.
type Order struct {
	ID        string
	Reference string // número visible, ej. SO-2026-001; se usa como ref en movimientos
	Status    OrderStatus
	Lines     []OrderLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Apply aplica el evento sobre la orden o devuelve error si la transición no está permitida.
// El error no envuelve errores de dominio; el caso de uso decide cómo clasificarlo.
func (o *Order) Apply(ev OrderEvent, now time.Time) error {
	to, ok := o.Status.Next(ev)
	if !ok {
		return fmt.Errorf("orden %s: %s no permitido desde %s", o.Reference, ev, o.Status)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}
