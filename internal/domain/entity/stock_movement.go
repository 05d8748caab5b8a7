package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// StockMovement registro inmutable de un cambio de cantidad. Nunca se actualiza ni se borra;
// las correcciones son movimientos nuevos que compensan.
type StockMovement struct {
	ID                string
	BranchInventoryID string
	MovementType      inventory.MovementType
	Quantity          decimal.Decimal // delta con signo efectivamente aplicado
	PreviousQty       decimal.Decimal
	NewQty            decimal.Decimal
	ReferenceType     inventory.ReferenceType
	ReferenceID       string
	Notes             string
	UserID            string
	CreatedAt         time.Time
}
