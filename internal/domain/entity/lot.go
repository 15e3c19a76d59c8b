package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot es un lote trazable de un único ítem.
// OnHandQty solo cambia con movimientos confirmados y nunca es negativo.
type Lot struct {
	ID             string
	LotCode        string // único
	ItemID         string
	OnHandQty      decimal.Decimal
	ProductionDate *time.Time // nil = prioridad FIFO más baja
	ExpiryDate     *time.Time
	Location       string
	CreatedAt      time.Time // desempate FIFO
	UpdatedAt      time.Time
}
