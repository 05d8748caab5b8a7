package inventory

import "github.com/shopspring/decimal"

var idealFactor = decimal.NewFromFloat(1.5)

// NeedsReorder true si la cantidad está en o bajo el nivel de reorden (0 = sin umbral).
func NeedsReorder(qty, reorderLevel decimal.Decimal) bool {
	return reorderLevel.IsPositive() && qty.LessThanOrEqual(reorderLevel)
}

// SuggestedOrderQty cantidad sugerida para volver al stock ideal.
// Ideal = maxStockLevel si está definido; si no, reorderLevel * 1.5.
func SuggestedOrderQty(qty, reorderLevel, maxStockLevel decimal.Decimal) (ideal, suggested decimal.Decimal) {
	ideal = maxStockLevel
	if !ideal.IsPositive() {
		ideal = reorderLevel.Mul(idealFactor)
	}
	suggested = ideal.Sub(qty)
	if suggested.IsNegative() {
		suggested = decimal.Zero
	}
	return ideal, suggested
}
