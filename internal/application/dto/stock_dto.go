package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// AddItemToBranchRequest body para POST /api/branch-inventory.
type AddItemToBranchRequest struct {
	ItemID          string          `json:"item_id" validate:"required"`
	BranchID        string          `json:"branch_id" validate:"required"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	MinStockLevel   decimal.Decimal `json:"min_stock_level"`
	MaxStockLevel   decimal.Decimal `json:"max_stock_level"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
	SupplierID      string          `json:"supplier_id"`
	Notes           string          `json:"notes" validate:"omitempty,max=500"`
}

// UpdateThresholdsRequest body para PATCH /api/branch-inventory/:id/thresholds.
type UpdateThresholdsRequest struct {
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	MaxStockLevel decimal.Decimal `json:"max_stock_level"`
	ReorderLevel  decimal.Decimal `json:"reorder_level"`
	SupplierID    string          `json:"supplier_id"`
}

// AdjustStockRequest body para POST /api/branch-inventory/:id/adjustments.
// Quantity con signo; Type ADJUSTMENT o DAMAGE (DAMAGE solo negativo).
type AdjustStockRequest struct {
	Quantity      decimal.Decimal `json:"quantity"`
	Type          string          `json:"type" validate:"required,oneof=ADJUSTMENT DAMAGE"`
	Notes         string          `json:"notes" validate:"required,min=3,max=500"`
	ReferenceID   string          `json:"reference_id"`
	AllowNegative bool            `json:"allow_negative"`
}

// ConsumeRequest body para POST /api/branch-inventory/:id/consume. Quantity positiva.
type ConsumeRequest struct {
	Purpose     string          `json:"purpose" validate:"required,oneof=SERVICE SALE"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReferenceID string          `json:"reference_id" validate:"required"`
	Notes       string          `json:"notes" validate:"omitempty,max=500"`
}

// ServiceReturnRequest body para POST /api/branch-inventory/:id/service-returns.
type ServiceReturnRequest struct {
	Quantity    decimal.Decimal `json:"quantity"`
	ReferenceID string          `json:"reference_id" validate:"required"`
	Notes       string          `json:"notes" validate:"omitempty,max=500"`
}

// TransferRequest body para POST /api/branch-inventory/transfers.
type TransferRequest struct {
	ItemID       string          `json:"item_id" validate:"required"`
	FromBranchID string          `json:"from_branch_id" validate:"required"`
	ToBranchID   string          `json:"to_branch_id" validate:"required,nefield=FromBranchID"`
	Quantity     decimal.Decimal `json:"quantity"`
	Notes        string          `json:"notes" validate:"omitempty,max=500"`
}

// BranchInventoryResponse salida de una fila de stock.
type BranchInventoryResponse struct {
	ID                string           `json:"id"`
	CompanyID         string           `json:"company_id"`
	ItemID            string           `json:"item_id"`
	BranchID          string           `json:"branch_id"`
	StockQuantity     decimal.Decimal  `json:"stock_quantity"`
	MinStockLevel     decimal.Decimal  `json:"min_stock_level"`
	MaxStockLevel     decimal.Decimal  `json:"max_stock_level"`
	ReorderLevel      decimal.Decimal  `json:"reorder_level"`
	LastPurchasePrice *decimal.Decimal `json:"last_purchase_price,omitempty"`
	LastPurchaseDate  *time.Time       `json:"last_purchase_date,omitempty"`
	SupplierID        string           `json:"supplier_id,omitempty"`
	IsActive          bool             `json:"is_active"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// BranchInventoryListResponse lista paginada de filas de stock.
type BranchInventoryListResponse struct {
	Items []BranchInventoryResponse `json:"items"`
	Page  PageResponse              `json:"page"`
}

// StockMovementResponse salida de un movimiento del ledger.
type StockMovementResponse struct {
	ID                string          `json:"id"`
	BranchInventoryID string          `json:"branch_inventory_id"`
	MovementType      string          `json:"movement_type"`
	Quantity          decimal.Decimal `json:"quantity"`
	PreviousQty       decimal.Decimal `json:"previous_qty"`
	NewQty            decimal.Decimal `json:"new_qty"`
	ReferenceType     string          `json:"reference_type,omitempty"`
	ReferenceID       string          `json:"reference_id,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	UserID            string          `json:"user_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// MovementListResponse historial paginado.
type MovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// AdjustStockResponse resultado de un ajuste manual; Warning si el stock quedó negativo.
type AdjustStockResponse struct {
	Movement      StockMovementResponse `json:"movement"`
	StockQuantity decimal.Decimal       `json:"stock_quantity"`
	Warning       string                `json:"warning,omitempty"`
}

// TransferResponse par de movimientos de un traslado.
type TransferResponse struct {
	TransferID string                `json:"transfer_id"`
	Out        StockMovementResponse `json:"out"`
	In         StockMovementResponse `json:"in"`
}

// ChainBreakResponse movimiento que rompe la cadena de saldos.
type ChainBreakResponse struct {
	MovementID string          `json:"movement_id"`
	Reason     string          `json:"reason"`
	Expected   decimal.Decimal `json:"expected"`
	Actual     decimal.Decimal `json:"actual"`
}

// ReconciliationResponse resultado de GET .../reconciliation.
type ReconciliationResponse struct {
	BranchInventoryID string               `json:"branch_inventory_id"`
	StockQuantity     decimal.Decimal      `json:"stock_quantity"`
	MovementSum       decimal.Decimal      `json:"movement_sum"`
	Movements         int                  `json:"movements"`
	Consistent        bool                 `json:"consistent"`
	Breaks            []ChainBreakResponse `json:"breaks"`
}

// LowStockResponse sugerencia de reposición para una fila en o bajo su punto de reorden.
type LowStockResponse struct {
	BranchInventoryID  string          `json:"branch_inventory_id"`
	BranchID           string          `json:"branch_id"`
	ItemID             string          `json:"item_id"`
	ItemCode           string          `json:"item_code"`
	ItemName           string          `json:"item_name"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	ReorderLevel       decimal.Decimal `json:"reorder_level"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Priority           int             `json:"priority"`
}

// ToBranchInventoryResponse mapea la entidad a la respuesta.
func ToBranchInventoryResponse(b *entity.BranchInventory) BranchInventoryResponse {
	return BranchInventoryResponse{
		ID:                b.ID,
		CompanyID:         b.CompanyID,
		ItemID:            b.ItemID,
		BranchID:          b.BranchID,
		StockQuantity:     b.StockQuantity,
		MinStockLevel:     b.MinStockLevel,
		MaxStockLevel:     b.MaxStockLevel,
		ReorderLevel:      b.ReorderLevel,
		LastPurchasePrice: b.LastPurchasePrice,
		LastPurchaseDate:  b.LastPurchaseDate,
		SupplierID:        b.SupplierID,
		IsActive:          b.IsActive,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// ToStockMovementResponse mapea un movimiento a la respuesta.
func ToStockMovementResponse(m *entity.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:                m.ID,
		BranchInventoryID: m.BranchInventoryID,
		MovementType:      m.MovementType.String(),
		Quantity:          m.Quantity,
		PreviousQty:       m.PreviousQty,
		NewQty:            m.NewQty,
		ReferenceType:     string(m.ReferenceType),
		ReferenceID:       m.ReferenceID,
		Notes:             m.Notes,
		UserID:            m.UserID,
		CreatedAt:         m.CreatedAt,
	}
}

// ToStockMovementResponses mapea una lista de movimientos.
func ToStockMovementResponses(ms []*entity.StockMovement) []StockMovementResponse {
	out := make([]StockMovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToStockMovementResponse(m))
	}
	return out
}

// ToReconciliationResponse mapea el resultado de conciliación.
func ToReconciliationResponse(id string, r *inventory.Reconciliation) ReconciliationResponse {
	out := ReconciliationResponse{
		BranchInventoryID: id,
		StockQuantity:     r.StockQuantity,
		MovementSum:       r.MovementSum,
		Movements:         r.Movements,
		Consistent:        r.Consistent(),
		Breaks:            make([]ChainBreakResponse, 0, len(r.Breaks)),
	}
	for _, b := range r.Breaks {
		out.Breaks = append(out.Breaks, ChainBreakResponse{MovementID: b.MovementID, Reason: b.Reason, Expected: b.Expected, Actual: b.Actual})
	}
	return out
}
