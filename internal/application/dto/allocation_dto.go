package dto

import "github.com/shopspring/decimal"

// Resultado de ConfirmOrder.
const (
	OutcomeConfirmed = "CONFIRMED" // todas las líneas cubiertas; la orden pasó a CONFIRMED
	OutcomePartial   = "PARTIAL"   // faltante en alguna línea; la orden sigue en DRAFT
)

// AllocationDetailDTO cantidad reservada de un lote concreto.
type AllocationDetailDTO struct {
	LotID   string          `json:"lot_id"`
	LotCode string          `json:"lot_code"`
	Qty     decimal.Decimal `json:"qty"`
}

// LineResultDTO resultado de asignación de una línea de orden.
type LineResultDTO struct {
	LineID       string                `json:"line_id"`
	LineNo       int                   `json:"line_no"`
	ItemID       string                `json:"item_id"`
	ItemCode     string                `json:"item_code"`
	RequestedQty decimal.Decimal       `json:"requested_qty"`
	AllocatedQty decimal.Decimal       `json:"allocated_qty"`
	ShortfallQty decimal.Decimal       `json:"shortfall_qty"` // 0 si la línea quedó cubierta
	Allocations  []AllocationDetailDTO `json:"allocations"`
}

// ConfirmOrderResult respuesta de POST /api/orders/:id/confirm.
type ConfirmOrderResult struct {
	OrderID string          `json:"order_id"`
	Status  string          `json:"status"` // OutcomeConfirmed | OutcomePartial
	Lines   []LineResultDTO `json:"lines"`
}

// FullyAllocated indica si todas las líneas quedaron cubiertas.
func (r *ConfirmOrderResult) FullyAllocated() bool {
	return r.Status == OutcomeConfirmed
}

// AllocateLineRequest body para POST /api/allocations.
type AllocateLineRequest struct {
	ItemID      string          `json:"item_id"`
	OrderLineID string          `json:"order_line_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AllocateLineResult resultado de AllocateLine (la asignación parcial no es error).
type AllocateLineResult struct {
	ItemID       string                `json:"item_id"`
	ItemCode     string                `json:"item_code"`
	RequestedQty decimal.Decimal       `json:"requested_qty"`
	AllocatedQty decimal.Decimal       `json:"allocated_qty"`
	Allocations  []AllocationDetailDTO `json:"allocations"`
}

// CommitResult respuesta de CommitAllocations.
type CommitResult struct {
	OrderID        string `json:"order_id"`
	CommittedCount int    `json:"committed_count"`
}

// ReleaseResult respuesta de ReleaseAllocations y CancelOrder.
type ReleaseResult struct {
	OrderID       string `json:"order_id"`
	ReleasedCount int    `json:"released_count"`
}

// OrderStatusResponse estado de la orden tras una transición.
type OrderStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
