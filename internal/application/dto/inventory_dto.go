package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveLotRequest body para POST /api/lots.
type ReceiveLotRequest struct {
	LotCode        string          `json:"lot_code"`
	ItemID         string          `json:"item_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	ProductionDate *time.Time      `json:"production_date,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	Location       string          `json:"location,omitempty"`
	Ref            string          `json:"ref,omitempty"`
}

// LotResponse representación de un lote.
type LotResponse struct {
	ID             string          `json:"id"`
	LotCode        string          `json:"lot_code"`
	ItemID         string          `json:"item_id"`
	OnHandQty      decimal.Decimal `json:"on_hand_qty"`
	ProductionDate *time.Time      `json:"production_date,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	Location       string          `json:"location,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// RegisterMovementRequest body para POST /api/lots/:id/movements.
type RegisterMovementRequest struct {
	DeltaQty decimal.Decimal `json:"delta_qty"`
	Reason   string          `json:"reason"` // RECEIVE, ISSUE, ADJUST, CONSUME, PRODUCE
	Ref      string          `json:"ref,omitempty"`
}

// MovementResponse representación de un movimiento de inventario.
type MovementResponse struct {
	ID        string          `json:"id"`
	LotID     string          `json:"lot_id"`
	DeltaQty  decimal.Decimal `json:"delta_qty"`
	Reason    string          `json:"reason"`
	Ref       string          `json:"ref,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// LotAvailabilityDTO disponibilidad de un lote (orden FIFO).
type LotAvailabilityDTO struct {
	LotID          string          `json:"lot_id"`
	LotCode        string          `json:"lot_code"`
	ProductionDate *time.Time      `json:"production_date,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	OnHandQty      decimal.Decimal `json:"on_hand_qty"`
	ReservedQty    decimal.Decimal `json:"reserved_qty"`
	AvailableQty   decimal.Decimal `json:"available_qty"`
}

// ItemAvailabilityDTO disponibilidad agregada de un ítem. Solo para consulta.
type ItemAvailabilityDTO struct {
	ItemID       string               `json:"item_id"`
	ItemCode     string               `json:"item_code"`
	OnHandQty    decimal.Decimal      `json:"on_hand_qty"`
	ReservedQty  decimal.Decimal      `json:"reserved_qty"`
	AvailableQty decimal.Decimal      `json:"available_qty"`
	Lots         []LotAvailabilityDTO `json:"lots"`
}

// MovementListResponse página de movimientos de un lote.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
