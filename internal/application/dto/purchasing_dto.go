package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// PurchaseOrderLineRequest línea de una orden nueva.
type PurchaseOrderLineRequest struct {
	ItemID    string          `json:"item_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseOrderRequest body para POST /api/purchase-orders.
type CreatePurchaseOrderRequest struct {
	BranchID     string                     `json:"branch_id" validate:"required"`
	SupplierID   string                     `json:"supplier_id" validate:"required"`
	OrderNumber  string                     `json:"order_number" validate:"omitempty,max=50"`
	OrderDate    *time.Time                 `json:"order_date"`
	ExpectedDate *time.Time                 `json:"expected_date"`
	Notes        string                     `json:"notes" validate:"omitempty,max=1000"`
	Items        []PurchaseOrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

// ReceiptLineRequest cantidad recibida de un ítem de la orden.
type ReceiptLineRequest struct {
	ItemID      string           `json:"item_id" validate:"required"`
	ReceivedQty decimal.Decimal  `json:"received_qty"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

// ReceiveItemsRequest body para POST /api/purchase-orders/:id/receipts.
type ReceiveItemsRequest struct {
	Items        []ReceiptLineRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryDate *time.Time           `json:"delivery_date"`
	Notes        string               `json:"notes" validate:"omitempty,max=1000"`
}

// PurchaseOrderItemResponse línea de la orden.
type PurchaseOrderItemResponse struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ReceivedQty decimal.Decimal `json:"received_qty"`
	ReturnedQty decimal.Decimal `json:"returned_qty"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID           string                      `json:"id"`
	CompanyID    string                      `json:"company_id"`
	BranchID     string                      `json:"branch_id"`
	SupplierID   string                      `json:"supplier_id"`
	OrderNumber  string                      `json:"order_number"`
	Status       string                      `json:"status"`
	OrderDate    time.Time                   `json:"order_date"`
	ExpectedDate *time.Time                  `json:"expected_date,omitempty"`
	DeliveryDate *time.Time                  `json:"delivery_date,omitempty"`
	Notes        string                      `json:"notes,omitempty"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	CreatedBy    string                      `json:"created_by"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	Items        []PurchaseOrderItemResponse `json:"items"`
}

// ReceiveItemsResponse orden actualizada y movimientos registrados.
type ReceiveItemsResponse struct {
	Order     PurchaseOrderResponse   `json:"order"`
	Movements []StockMovementResponse `json:"movements"`
}

// CreatePurchaseReturnRequest body para POST /api/purchase-returns.
type CreatePurchaseReturnRequest struct {
	PurchaseOrderID     string           `json:"purchase_order_id" validate:"required"`
	PurchaseOrderItemID string           `json:"purchase_order_item_id" validate:"required"`
	ReturnQty           decimal.Decimal  `json:"return_qty"`
	ReturnReason        string           `json:"return_reason" validate:"required,max=500"`
	ReturnType          string           `json:"return_type" validate:"required,oneof=REFUND REPLACEMENT"`
	RefundAmount        *decimal.Decimal `json:"refund_amount"`
}

// ConfirmPurchaseReturnRequest body opcional para POST /api/purchase-returns/:id/confirm.
type ConfirmPurchaseReturnRequest struct {
	ReplacementPOID string `json:"replacement_po_id"`
}

// RefundRequest body para registrar un reembolso (proveedor o cliente).
type RefundRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" validate:"required,max=30"`
	Reference     string          `json:"reference" validate:"omitempty,max=100"`
	Notes         string          `json:"notes" validate:"omitempty,max=500"`
}

// PurchaseReturnResponse salida de una devolución a proveedor.
type PurchaseReturnResponse struct {
	ID                  string          `json:"id"`
	PurchaseOrderID     string          `json:"purchase_order_id"`
	PurchaseOrderItemID string          `json:"purchase_order_item_id"`
	ItemID              string          `json:"item_id"`
	BranchID            string          `json:"branch_id"`
	ReturnQty           decimal.Decimal `json:"return_qty"`
	ReturnReason        string          `json:"return_reason"`
	ReturnType          string          `json:"return_type"`
	ReturnStatus        string          `json:"return_status"`
	StockDeducted       bool            `json:"stock_deducted"`
	RefundAmount        decimal.Decimal `json:"refund_amount"`
	RefundedAmount      decimal.Decimal `json:"refunded_amount"`
	ReplacementPOID     string          `json:"replacement_po_id,omitempty"`
	CreatedBy           string          `json:"created_by"`
	ConfirmedBy         string          `json:"confirmed_by,omitempty"`
	ConfirmedAt         *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// RefundResponse salida de una transacción de reembolso.
type RefundResponse struct {
	ID            string          `json:"id"`
	SourceType    string          `json:"source_type"`
	SourceID      string          `json:"source_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ProcessedBy   string          `json:"processed_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPurchaseOrderResponse mapea la orden con sus líneas.
func ToPurchaseOrderResponse(po *entity.PurchaseOrder) PurchaseOrderResponse {
	out := PurchaseOrderResponse{
		ID:           po.ID,
		CompanyID:    po.CompanyID,
		BranchID:     po.BranchID,
		SupplierID:   po.SupplierID,
		OrderNumber:  po.OrderNumber,
		Status:       string(po.Status),
		OrderDate:    po.OrderDate,
		ExpectedDate: po.ExpectedDate,
		DeliveryDate: po.DeliveryDate,
		Notes:        po.Notes,
		TotalAmount:  po.TotalAmount,
		CreatedBy:    po.CreatedBy,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
		Items:        make([]PurchaseOrderItemResponse, 0, len(po.Items)),
	}
	for _, l := range po.Items {
		out.Items = append(out.Items, PurchaseOrderItemResponse{
			ID:          l.ID,
			ItemID:      l.ItemID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			ReceivedQty: l.ReceivedQty,
			ReturnedQty: l.ReturnedQty,
		})
	}
	return out
}

// ToPurchaseReturnResponse mapea la devolución a proveedor.
func ToPurchaseReturnResponse(r *entity.PurchaseItemReturn) PurchaseReturnResponse {
	return PurchaseReturnResponse{
		ID:                  r.ID,
		PurchaseOrderID:     r.PurchaseOrderID,
		PurchaseOrderItemID: r.PurchaseOrderItemID,
		ItemID:              r.ItemID,
		BranchID:            r.BranchID,
		ReturnQty:           r.ReturnQty,
		ReturnReason:        r.ReturnReason,
		ReturnType:          string(r.ReturnType),
		ReturnStatus:        string(r.ReturnStatus),
		StockDeducted:       r.StockDeducted,
		RefundAmount:        r.RefundAmount,
		RefundedAmount:      r.RefundedAmount,
		ReplacementPOID:     r.ReplacementPOID,
		CreatedBy:           r.CreatedBy,
		ConfirmedBy:         r.ConfirmedBy,
		ConfirmedAt:         r.ConfirmedAt,
		CreatedAt:           r.CreatedAt,
	}
}

// ToRefundResponse mapea una transacción de reembolso.
func ToRefundResponse(t *entity.RefundTransaction) RefundResponse {
	return RefundResponse{
		ID:            t.ID,
		SourceType:    string(t.SourceType),
		SourceID:      t.SourceID,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Reference:     t.Reference,
		Notes:         t.Notes,
		ProcessedBy:   t.ProcessedBy,
		CreatedAt:     t.CreatedAt,
	}
}
