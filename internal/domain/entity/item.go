package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un repuesto o producto del catálogo de la empresa (compartido por todas las sucursales).
// PurchasePrice y SalesPrice son solo valores por defecto; el precio real va en cada documento.
type Item struct {
	ID            string
	CompanyID     string
	ItemCode      string // único por empresa; se genera si no viene
	ItemName      string
	Description   string
	BrandID       string
	ModelID       string
	CategoryID    string
	Unit          string // unidad de medida (pcs, set, mtr)
	GSTRate       decimal.Decimal
	TaxType       string // INCLUSIVE, EXCLUSIVE
	PurchasePrice decimal.Decimal
	SalesPrice    decimal.Decimal
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
