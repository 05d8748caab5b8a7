package inventory

import "fmt"

// MovementType tipo cerrado de movimiento de stock.
type MovementType string

const (
	MovementPurchase     MovementType = "PURCHASE"
	MovementSale         MovementType = "SALE"
	MovementAdjustment   MovementType = "ADJUSTMENT"
	MovementTransfer     MovementType = "TRANSFER"
	MovementServiceUse   MovementType = "SERVICE_USE"
	MovementReturn       MovementType = "RETURN"
	MovementDamage       MovementType = "DAMAGE"
	MovementOpeningStock MovementType = "OPENING_STOCK"
)

// Direction indica el signo permitido del delta para un tipo de movimiento.
type Direction int

const (
	DirectionInbound  Direction = 1  // solo positivo
	DirectionOutbound Direction = -1 // solo negativo
	DirectionEither   Direction = 0  // cualquiera de los dos
)

// ParseMovementType valida un string externo (BD, JSON) contra el enum.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("tipo de movimiento desconocido: %q", s)
	}
	return t, nil
}

func (t MovementType) IsValid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment, MovementTransfer,
		MovementServiceUse, MovementReturn, MovementDamage, MovementOpeningStock:
		return true
	}
	return false
}

// Direction devuelve el signo que debe tener el delta de este tipo.
func (t MovementType) Direction() Direction {
	switch t {
	case MovementPurchase, MovementOpeningStock:
		return DirectionInbound
	case MovementSale, MovementServiceUse, MovementDamage:
		return DirectionOutbound
	case MovementAdjustment, MovementTransfer, MovementReturn:
		return DirectionEither
	}
	return DirectionEither
}

func (t MovementType) String() string { return string(t) }

// ManualMovementType subconjunto de tipos que la pantalla de ajuste manual puede usar.
type ManualMovementType string

const (
	ManualAdjustment ManualMovementType = ManualMovementType(MovementAdjustment)
	ManualDamage     ManualMovementType = ManualMovementType(MovementDamage)
)

func (m ManualMovementType) IsValid() bool {
	return m == ManualAdjustment || m == ManualDamage
}

// MovementType convierte al enum general.
func (m ManualMovementType) MovementType() MovementType { return MovementType(m) }

// ReferenceType documento que originó un movimiento. Es informativo: no hay FK.
type ReferenceType string

const (
	ReferenceNone           ReferenceType = ""
	ReferencePurchaseOrder  ReferenceType = "PURCHASE_ORDER"
	ReferenceInvoice        ReferenceType = "INVOICE"
	ReferenceService        ReferenceType = "SERVICE"
	ReferenceAdjustment     ReferenceType = "ADJUSTMENT"
	ReferencePurchaseReturn ReferenceType = "PURCHASE_RETURN"
	ReferenceSalesReturn    ReferenceType = "SALES_RETURN"
	ReferenceTransfer       ReferenceType = "TRANSFER"
	ReferenceOpening        ReferenceType = "OPENING"
)

func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceNone, ReferencePurchaseOrder, ReferenceInvoice, ReferenceService, ReferenceAdjustment,
		ReferencePurchaseReturn, ReferenceSalesReturn, ReferenceTransfer, ReferenceOpening:
		return true
	}
	return false
}
