package inventory

import (
	"errors"

	"github.com/shopspring/decimal"
)

// NegativePolicy decide qué pasa si el movimiento deja el stock bajo cero.
type NegativePolicy int

const (
	// Strict bloquea cualquier resultado negativo (ventas, consumo, devoluciones a proveedor).
	Strict NegativePolicy = iota
	// AllowNegative deja pasar el movimiento y marca el resultado (ajuste manual con autorización).
	AllowNegative
)

var (
	errZeroDelta = errors.New("delta cero")
	errWrongSign = errors.New("signo de delta no permitido para el tipo")
	errBelowZero = errors.New("el stock quedaría negativo")
)

// Outcome resultado de aplicar un delta sobre la cantidad actual.
type Outcome struct {
	PreviousQty decimal.Decimal
	Delta       decimal.Decimal
	NewQty      decimal.Decimal
	// Negative true si NewQty < 0 (solo posible con AllowNegative).
	Negative bool
}

// Apply es la única aritmética de cantidades del sistema: newQty = current + delta.
// Valida el delta contra la dirección del tipo y la política de negativos.
func Apply(current, delta decimal.Decimal, t MovementType, policy NegativePolicy) (Outcome, error) {
	if err := CheckDelta(delta, t); err != nil {
		return Outcome{}, err
	}
	newQty := current.Add(delta)
	out := Outcome{PreviousQty: current, Delta: delta, NewQty: newQty, Negative: newQty.IsNegative()}
	if out.Negative && policy == Strict {
		return Outcome{}, errBelowZero
	}
	return out, nil
}

// CheckDelta valida delta != 0 y el signo según el tipo. Se usa antes de abrir la transacción.
func CheckDelta(delta decimal.Decimal, t MovementType) error {
	if delta.IsZero() {
		return errZeroDelta
	}
	switch t.Direction() {
	case DirectionInbound:
		if delta.IsNegative() {
			return errWrongSign
		}
	case DirectionOutbound:
		if delta.IsPositive() {
			return errWrongSign
		}
	case DirectionEither:
	}
	return nil
}

// IsBelowZero reporta si el error de Apply es por stock insuficiente.
func IsBelowZero(err error) bool { return errors.Is(err, errBelowZero) }

// IsDeltaError reporta si el error de Apply/CheckDelta es por un delta mal formado.
func IsDeltaError(err error) bool {
	return errors.Is(err, errZeroDelta) || errors.Is(err, errWrongSign)
}
