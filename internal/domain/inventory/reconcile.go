package inventory

import "github.com/shopspring/decimal"

// Snapshot datos mínimos de un movimiento para verificar la cadena de saldos.
type Snapshot struct {
	ID          string
	Quantity    decimal.Decimal
	PreviousQty decimal.Decimal
	NewQty      decimal.Decimal
}

// ChainBreak describe un movimiento que rompe la cadena previousQty/newQty.
type ChainBreak struct {
	MovementID string
	Reason     string
	Expected   decimal.Decimal
	Actual     decimal.Decimal
}

// Reconciliation resultado de comparar una fila de stock con su historial.
type Reconciliation struct {
	StockQuantity decimal.Decimal
	MovementSum   decimal.Decimal
	Movements     int
	Breaks        []ChainBreak
}

// Consistent true si stockQuantity == Σ movimientos y la cadena no tiene cortes.
func (r Reconciliation) Consistent() bool {
	return r.StockQuantity.Equal(r.MovementSum) && len(r.Breaks) == 0
}

// Reconcile verifica el invariante de conciliación y la cadena causal.
// movements debe venir en orden de creación (el más antiguo primero).
func Reconcile(stockQuantity decimal.Decimal, movements []Snapshot) Reconciliation {
	r := Reconciliation{StockQuantity: stockQuantity, MovementSum: decimal.Zero, Movements: len(movements)}
	running := decimal.Zero
	for i, m := range movements {
		r.MovementSum = r.MovementSum.Add(m.Quantity)
		if !m.PreviousQty.Add(m.Quantity).Equal(m.NewQty) {
			r.Breaks = append(r.Breaks, ChainBreak{
				MovementID: m.ID, Reason: "new_qty != previous_qty + quantity",
				Expected: m.PreviousQty.Add(m.Quantity), Actual: m.NewQty,
			})
		}
		if i > 0 && !m.PreviousQty.Equal(running) {
			r.Breaks = append(r.Breaks, ChainBreak{
				MovementID: m.ID, Reason: "previous_qty != new_qty del movimiento anterior",
				Expected: running, Actual: m.PreviousQty,
			})
		}
		if i == 0 && !m.PreviousQty.IsZero() {
			r.Breaks = append(r.Breaks, ChainBreak{
				MovementID: m.ID, Reason: "el primer movimiento no parte de cero",
				Expected: decimal.Zero, Actual: m.PreviousQty,
			})
		}
		running = m.NewQty
	}
	return r
}
