package entity

import "github.com/shopspring/decimal"

// QuantityScale es la precisión (decimales) de todas las cantidades de lotes, líneas y asignaciones.
const QuantityScale int32 = 3

// NormalizeQty redondea una cantidad a QuantityScale decimales.
func NormalizeQty(q decimal.Decimal) decimal.Decimal {
	return q.Round(QuantityScale)
}

// IsPositiveQty indica si la cantidad, ya normalizada a la escala, es mayor que cero.
func IsPositiveQty(q decimal.Decimal) bool {
	return NormalizeQty(q).GreaterThan(decimal.Zero)
}
