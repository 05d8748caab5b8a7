package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// SalesReturn devolución de un cliente contra una factura.
type SalesReturn struct {
	ID                string
	CompanyID         string
	InvoiceID         string
	BranchID          string
	ReturnNumber      string
	Reason            string
	ReturnStatus      inventory.ReturnStatus
	IsFullReturn      bool
	Restocked         bool
	TotalReturnAmount decimal.Decimal
	RefundedAmount    decimal.Decimal
	RefundProcessed   bool
	CreatedBy         string
	ConfirmedBy       string
	ConfirmedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Items             []SalesReturnItem
}

// SalesReturnItem línea devuelta; ReturnQuantity acotada por lo facturado menos devoluciones previas.
type SalesReturnItem struct {
	ID             string
	SalesReturnID  string
	InvoiceItemID  string
	ItemID         string
	ReturnQuantity decimal.Decimal
	Amount         decimal.Decimal
}
