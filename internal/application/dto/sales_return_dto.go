package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// SalesReturnLineRequest cantidad devuelta de una línea de factura.
type SalesReturnLineRequest struct {
	InvoiceItemID string          `json:"invoice_item_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// CreateSalesReturnRequest body para POST /api/sales-returns.
type CreateSalesReturnRequest struct {
	InvoiceID    string                   `json:"invoice_id" validate:"required"`
	Reason       string                   `json:"reason" validate:"required,max=500"`
	IsFullReturn bool                     `json:"is_full_return"`
	Items        []SalesReturnLineRequest `json:"items" validate:"omitempty,dive"`
}

// ConfirmSalesReturnRequest la política de reingreso es obligatoria.
type ConfirmSalesReturnRequest struct {
	Restock string `json:"restock" validate:"required,oneof=RESTOCK NO_RESTOCK"`
}

// SalesReturnItemResponse línea devuelta.
type SalesReturnItemResponse struct {
	ID             string          `json:"id"`
	InvoiceItemID  string          `json:"invoice_item_id"`
	ItemID         string          `json:"item_id"`
	ReturnQuantity decimal.Decimal `json:"return_quantity"`
	Amount         decimal.Decimal `json:"amount"`
}

// SalesReturnResponse salida de una devolución de cliente.
type SalesReturnResponse struct {
	ID                string                    `json:"id"`
	InvoiceID         string                    `json:"invoice_id"`
	BranchID          string                    `json:"branch_id"`
	ReturnNumber      string                    `json:"return_number"`
	Reason            string                    `json:"reason"`
	ReturnStatus      string                    `json:"return_status"`
	IsFullReturn      bool                      `json:"is_full_return"`
	Restocked         bool                      `json:"restocked"`
	TotalReturnAmount decimal.Decimal           `json:"total_return_amount"`
	RefundedAmount    decimal.Decimal           `json:"refunded_amount"`
	RefundProcessed   bool                      `json:"refund_processed"`
	CreatedBy         string                    `json:"created_by"`
	ConfirmedBy       string                    `json:"confirmed_by,omitempty"`
	ConfirmedAt       *time.Time                `json:"confirmed_at,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	Items             []SalesReturnItemResponse `json:"items"`
}

// ToSalesReturnResponse mapea la devolución con sus líneas.
func ToSalesReturnResponse(r *entity.SalesReturn) SalesReturnResponse {
	out := SalesReturnResponse{
		ID:                r.ID,
		InvoiceID:         r.InvoiceID,
		BranchID:          r.BranchID,
		ReturnNumber:      r.ReturnNumber,
		Reason:            r.Reason,
		ReturnStatus:      string(r.ReturnStatus),
		IsFullReturn:      r.IsFullReturn,
		Restocked:         r.Restocked,
		TotalReturnAmount: r.TotalReturnAmount,
		RefundedAmount:    r.RefundedAmount,
		RefundProcessed:   r.RefundProcessed,
		CreatedBy:         r.CreatedBy,
		ConfirmedBy:       r.ConfirmedBy,
		ConfirmedAt:       r.ConfirmedAt,
		CreatedAt:         r.CreatedAt,
		Items:             make([]SalesReturnItemResponse, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, SalesReturnItemResponse{
			ID:             it.ID,
			InvoiceItemID:  it.InvoiceItemID,
			ItemID:         it.ItemID,
			ReturnQuantity: it.ReturnQuantity,
			Amount:         it.Amount,
		})
	}
	return out
}
