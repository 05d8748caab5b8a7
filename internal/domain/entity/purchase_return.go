package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// PurchaseItemReturn devolución a proveedor de una línea recibida.
// StockDeducted garantiza que el stock se descuenta una sola vez, al confirmar.
type PurchaseItemReturn struct {
	ID                  string
	CompanyID           string
	PurchaseOrderID     string
	PurchaseOrderItemID string
	ItemID              string
	BranchID            string
	ReturnQty           decimal.Decimal
	ReturnReason        string
	ReturnType          inventory.ReturnType
	ReturnStatus        inventory.ReturnStatus
	StockDeducted       bool
	RefundAmount        decimal.Decimal
	RefundedAmount      decimal.Decimal
	ReplacementPOID     string
	CreatedBy           string
	ConfirmedBy         string
	ConfirmedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RefundTransaction dinero efectivamente devuelto. Puede haber varias por devolución (pagos parciales).
type RefundTransaction struct {
	ID            string
	CompanyID     string
	SourceType    inventory.RefundSource
	SourceID      string
	Amount        decimal.Decimal
	PaymentMethod string
	Reference     string
	Notes         string
	ProcessedBy   string
	CreatedAt     time.Time
}
