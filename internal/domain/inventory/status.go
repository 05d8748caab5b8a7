package inventory

import "github.com/shopspring/decimal"

// PurchaseOrderStatus estado de una orden de compra.
type PurchaseOrderStatus string

const (
	PODraft             PurchaseOrderStatus = "DRAFT"
	POPending           PurchaseOrderStatus = "PENDING"
	POPartiallyReceived PurchaseOrderStatus = "PARTIALLY_RECEIVED"
	POReceived          PurchaseOrderStatus = "RECEIVED"
	POCompleted         PurchaseOrderStatus = "COMPLETED"
	POCancelled         PurchaseOrderStatus = "CANCELLED"
)

func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PODraft, POPending, POPartiallyReceived, POReceived, POCompleted, POCancelled:
		return true
	}
	return false
}

// CanReceive true si se pueden registrar recepciones en este estado.
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == POPending || s == POPartiallyReceived
}

// CanTransitionTo transiciones manuales permitidas. Las de recepción se derivan con DerivePurchaseOrderStatus.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PODraft:
		return target == POPending || target == POCancelled
	case POPending:
		return target == POCancelled
	case POReceived:
		return target == POCompleted
	case POPartiallyReceived, POCompleted, POCancelled:
		return false
	}
	return false
}

// LineProgress cantidades de una línea de orden de compra.
type LineProgress struct {
	Ordered  decimal.Decimal
	Received decimal.Decimal
}

// DerivePurchaseOrderStatus calcula el estado tras una recepción, solo a partir de las líneas.
// RECEIVED si todas están completas, PARTIALLY_RECEIVED si alguna recibió algo,
// y el estado actual en otro caso. Es idempotente.
func DerivePurchaseOrderStatus(current PurchaseOrderStatus, lines []LineProgress) PurchaseOrderStatus {
	if !current.CanReceive() || len(lines) == 0 {
		return current
	}
	all, some := true, false
	for _, l := range lines {
		if l.Received.IsPositive() {
			some = true
		}
		if l.Received.LessThan(l.Ordered) {
			all = false
		}
	}
	switch {
	case all:
		return POReceived
	case some:
		return POPartiallyReceived
	default:
		return current
	}
}

// ReturnStatus estado de una devolución (a proveedor o de cliente).
type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "PENDING"
	ReturnConfirmed ReturnStatus = "CONFIRMED"
	ReturnRejected  ReturnStatus = "REJECTED"
)

func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnPending, ReturnConfirmed, ReturnRejected:
		return true
	}
	return false
}

// CanTransitionTo PENDING -> CONFIRMED | REJECTED; ambos terminales.
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnPending:
		return target == ReturnConfirmed || target == ReturnRejected
	case ReturnConfirmed, ReturnRejected:
		return false
	}
	return false
}

// ReturnType qué espera la sucursal a cambio de una devolución a proveedor.
type ReturnType string

const (
	ReturnRefund      ReturnType = "REFUND"
	ReturnReplacement ReturnType = "REPLACEMENT"
)

func (t ReturnType) IsValid() bool {
	return t == ReturnRefund || t == ReturnReplacement
}

// RestockPolicy decisión explícita al confirmar una devolución de cliente.
type RestockPolicy string

const (
	// Restock la mercancía es revendible y vuelve al stock de la sucursal.
	Restock RestockPolicy = "RESTOCK"
	// NoRestock mercancía dañada: no vuelve al stock.
	NoRestock RestockPolicy = "NO_RESTOCK"
)

func (p RestockPolicy) IsValid() bool {
	return p == Restock || p == NoRestock
}

// RefundSource documento al que pertenece un reembolso.
type RefundSource string

const (
	RefundFromPurchaseReturn RefundSource = "PURCHASE_RETURN"
	RefundFromSalesReturn    RefundSource = "SALES_RETURN"
)
