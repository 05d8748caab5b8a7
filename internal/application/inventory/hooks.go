package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// Operaciones del ledger que corren dentro de la transacción de otro caso de uso
// (recepción de compras, devoluciones). No abren ni cierran transacción y no registran métricas:
// el caller llama a Observe con los movimientos cuando su transacción termina.

// ReceiptPosting entrada de mercancía recibida de una orden de compra.
type ReceiptPosting struct {
	BranchInventoryID string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	PurchaseOrderID   string
	ReceivedAt        time.Time
	Notes             string
}

// ReceiveInTx registra un PURCHASE positivo y actualiza el último precio y fecha de compra.
// La fila debe estar activa.
func (l *Ledger) ReceiveInTx(ctx context.Context, repos repository.TxRepos, caller entity.Caller, in ReceiptPosting) (*entity.StockMovement, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.InvalidDelta("branch_inventory", in.BranchInventoryID, in.Quantity, "la cantidad recibida debe ser positiva")
	}
	p, err := l.post(ctx, repos, movementRequest{
		operation:         "receive",
		branchInventoryID: in.BranchInventoryID,
		movementType:      inventory.MovementPurchase,
		delta:             in.Quantity,
		policy:            inventory.Strict,
		referenceType:     inventory.ReferencePurchaseOrder,
		referenceID:       in.PurchaseOrderID,
		notes:             in.Notes,
		caller:            caller,
		requireActive:     true,
	})
	if err != nil {
		return nil, err
	}
	if err := repos.Stock.UpdatePurchaseInfo(ctx, in.BranchInventoryID, in.UnitPrice, in.ReceivedAt); err != nil {
		return nil, err
	}
	return p.movement, nil
}

// DeductPurchaseReturnInTx descuenta lo devuelto al proveedor (RETURN negativo, estricto).
func (l *Ledger) DeductPurchaseReturnInTx(
	ctx context.Context,
	repos repository.TxRepos,
	caller entity.Caller,
	branchInventoryID string,
	qty decimal.Decimal,
	returnID, notes string,
) (*entity.StockMovement, error) {
	if !qty.IsPositive() {
		return nil, domain.InvalidDelta("branch_inventory", branchInventoryID, qty, "la cantidad devuelta debe ser positiva")
	}
	p, err := l.post(ctx, repos, movementRequest{
		operation:         "purchase_return",
		branchInventoryID: branchInventoryID,
		movementType:      inventory.MovementReturn,
		delta:             qty.Neg(),
		policy:            inventory.Strict,
		referenceType:     inventory.ReferencePurchaseReturn,
		referenceID:       returnID,
		notes:             notes,
		caller:            caller,
	})
	if err != nil {
		return nil, err
	}
	return p.movement, nil
}

// RestockSalesReturnInTx reingresa mercancía revendible devuelta por un cliente (RETURN positivo).
func (l *Ledger) RestockSalesReturnInTx(
	ctx context.Context,
	repos repository.TxRepos,
	caller entity.Caller,
	branchInventoryID string,
	qty decimal.Decimal,
	returnID, notes string,
) (*entity.StockMovement, error) {
	if !qty.IsPositive() {
		return nil, domain.InvalidDelta("branch_inventory", branchInventoryID, qty, "la cantidad devuelta debe ser positiva")
	}
	p, err := l.post(ctx, repos, movementRequest{
		operation:         "sales_return",
		branchInventoryID: branchInventoryID,
		movementType:      inventory.MovementReturn,
		delta:             qty,
		policy:            inventory.Strict,
		referenceType:     inventory.ReferenceSalesReturn,
		referenceID:       returnID,
		notes:             notes,
		caller:            caller,
	})
	if err != nil {
		return nil, err
	}
	return p.movement, nil
}

// EnsureRowInTx devuelve la fila del par ítem+sucursal, creándola activa y sin umbrales si no existe.
func (l *Ledger) EnsureRowInTx(ctx context.Context, repos repository.TxRepos, caller entity.Caller, itemID, branchID, supplierID string) (*entity.BranchInventory, error) {
	row, err := repos.Stock.GetByItemAndBranch(ctx, itemID, branchID)
	switch {
	case err == nil:
		if row.CompanyID != caller.CompanyID {
			return nil, domain.NotFound("branch_inventory", row.ID)
		}
		return row, nil
	case !domain.IsNotFound(err):
		return nil, err
	}
	row = newRow(caller.CompanyID, itemID, branchID, entity.StockThresholds{}, supplierID)
	if err := repos.Stock.Create(ctx, row); err != nil {
		return nil, err
	}
	l.log.Info().Str("item_id", itemID).Str("branch_id", branchID).Msg("fila de stock creada en recepción")
	return row, nil
}

// Observe registra métricas y log de una operación que usó los hooks *InTx, tras su commit o rollback.
func (l *Ledger) Observe(operation string, movements []*entity.StockMovement, err error) error {
	return l.observe(operation, movements, err)
}
