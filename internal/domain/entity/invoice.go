package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice cabecera de factura del punto de venta. Este servicio solo la lee
// (límites de devolución y sucursal de reingreso).
type Invoice struct {
	ID            string
	CompanyID     string
	BranchID      string
	CustomerID    string
	InvoiceNumber string
	Date          time.Time
	GrandTotal    decimal.Decimal
	CreatedAt     time.Time
	Items         []InvoiceItem
}

// InvoiceItem línea de factura. Total incluye impuestos y descuentos de la línea.
type InvoiceItem struct {
	ID        string
	InvoiceID string
	ItemID    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	GSTRate   decimal.Decimal
	Total     decimal.Decimal
}
