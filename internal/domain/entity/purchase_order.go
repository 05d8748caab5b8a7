package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// PurchaseOrder orden de compra a un proveedor para una sucursal.
// Status se deriva de las líneas al recibir; nunca se fija a mano a RECEIVED/PARTIALLY_RECEIVED.
type PurchaseOrder struct {
	ID           string
	CompanyID    string
	BranchID     string
	SupplierID   string
	OrderNumber  string
	Status       inventory.PurchaseOrderStatus
	OrderDate    time.Time
	ExpectedDate *time.Time
	DeliveryDate *time.Time
	Notes        string
	TotalAmount  decimal.Decimal
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []PurchaseOrderItem
}

// PurchaseOrderItem línea de la orden. ReceivedQty es acumulado y nunca decrece;
// ReturnedQty está acotado por ReceivedQty.
type PurchaseOrderItem struct {
	ID              string
	PurchaseOrderID string
	ItemID          string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	ReceivedQty     decimal.Decimal
	ReturnedQty     decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Returnable cantidad recibida que aún se puede devolver al proveedor.
func (i PurchaseOrderItem) Returnable() decimal.Decimal {
	return i.ReceivedQty.Sub(i.ReturnedQty)
}

// Pending cantidad ordenada aún no recibida.
func (i PurchaseOrderItem) Pending() decimal.Decimal {
	return i.Quantity.Sub(i.ReceivedQty)
}
