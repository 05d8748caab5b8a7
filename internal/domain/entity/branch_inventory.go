package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BranchInventory es el stock actual de un ítem en una sucursal (una fila por par ítem+sucursal).
// StockQuantity solo cambia a través del ledger; siempre es igual a la suma de sus StockMovement.
type BranchInventory struct {
	ID                string
	CompanyID         string
	ItemID            string
	BranchID          string
	StockQuantity     decimal.Decimal
	MinStockLevel     decimal.Decimal // umbrales informativos
	MaxStockLevel     decimal.Decimal
	ReorderLevel      decimal.Decimal
	LastPurchasePrice *decimal.Decimal // caché de la última compra
	LastPurchaseDate  *time.Time
	SupplierID        string // proveedor preferido (informativo)
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StockThresholds umbrales configurables de una fila de stock.
type StockThresholds struct {
	MinStockLevel decimal.Decimal
	MaxStockLevel decimal.Decimal
	ReorderLevel  decimal.Decimal
}
