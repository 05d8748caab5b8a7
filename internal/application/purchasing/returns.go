package purchasing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// CreatePurchaseReturnInput devolución de una línea recibida.
type CreatePurchaseReturnInput struct {
	PurchaseOrderID     string
	PurchaseOrderItemID string
	ReturnQty           decimal.Decimal
	ReturnReason        string
	ReturnType          inventory.ReturnType
	// RefundAmount opcional; por defecto qty * precio de la línea en REFUND y 0 en REPLACEMENT.
	RefundAmount *decimal.Decimal
}

// ConfirmPurchaseReturnInput datos opcionales al confirmar.
type ConfirmPurchaseReturnInput struct {
	ReplacementPOID string // solo REPLACEMENT
}

// RefundInput pago (total o parcial) de un reembolso.
type RefundInput struct {
	Amount        decimal.Decimal
	PaymentMethod string
	Reference     string
	Notes         string
}

// CreatePurchaseReturn registra la devolución en PENDING. No toca el stock: se descuenta al confirmar.
func (s *Service) CreatePurchaseReturn(ctx context.Context, caller entity.Caller, in CreatePurchaseReturnInput) (*entity.PurchaseItemReturn, error) {
	if in.PurchaseOrderID == "" || in.PurchaseOrderItemID == "" {
		return nil, domain.Invalid("purchase_order_id y purchase_order_item_id son obligatorios")
	}
	if !in.ReturnQty.IsPositive() {
		return nil, domain.InvalidDelta("purchase_return", "", in.ReturnQty, "la cantidad devuelta debe ser positiva")
	}
	if !in.ReturnType.IsValid() {
		return nil, domain.Invalid("return_type debe ser REFUND o REPLACEMENT")
	}
	if strings.TrimSpace(in.ReturnReason) == "" {
		return nil, domain.Invalid("return_reason es obligatorio")
	}
	if in.RefundAmount != nil && in.RefundAmount.IsNegative() {
		return nil, domain.Invalid("refund_amount no puede ser negativo")
	}

	var ret *entity.PurchaseItemReturn
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		po, line, err := lockOrderLine(ctx, repos, caller, in.PurchaseOrderID, in.PurchaseOrderItemID)
		if err != nil {
			return err
		}
		if in.ReturnQty.GreaterThan(line.Returnable()) {
			return domain.ExceedsReceived(line.ID, line.ItemID, in.ReturnQty, line.Returnable())
		}

		refund := decimal.Zero
		switch {
		case in.RefundAmount != nil:
			refund = *in.RefundAmount
		case in.ReturnType == inventory.ReturnRefund:
			refund = in.ReturnQty.Mul(line.UnitPrice)
		}
		now := time.Now()
		ret = &entity.PurchaseItemReturn{
			ID:                  uuid.New().String(),
			CompanyID:           caller.CompanyID,
			PurchaseOrderID:     po.ID,
			PurchaseOrderItemID: line.ID,
			ItemID:              line.ItemID,
			BranchID:            po.BranchID,
			ReturnQty:           in.ReturnQty,
			ReturnReason:        in.ReturnReason,
			ReturnType:          in.ReturnType,
			ReturnStatus:        inventory.ReturnPending,
			RefundAmount:        refund,
			RefundedAmount:      decimal.Zero,
			CreatedBy:           caller.UserID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		return repos.PurchaseReturns.Create(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// GetPurchaseReturn devuelve una devolución a proveedor.
func (s *Service) GetPurchaseReturn(ctx context.Context, caller entity.Caller, id string) (*entity.PurchaseItemReturn, error) {
	ret, err := s.repos.PurchaseReturns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("purchase_return", id)
	}
	return ret, nil
}

// ConfirmPurchaseReturn descuenta el stock (RETURN negativo) y suma returned_qty en la línea.
// Es idempotente: si stock_deducted ya está en true no hace nada y devuelve la devolución.
// El tope recibido - devuelto se vuelve a comprobar con la línea bloqueada.
func (s *Service) ConfirmPurchaseReturn(ctx context.Context, caller entity.Caller, id string, in ConfirmPurchaseReturnInput) (*entity.PurchaseItemReturn, error) {
	const op = "purchase_return"
	var (
		ret  *entity.PurchaseItemReturn
		movs []*entity.StockMovement
	)
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		if ret, err = lockPurchaseReturn(ctx, repos, caller, id); err != nil {
			return err
		}
		if ret.StockDeducted {
			return nil
		}
		if !ret.ReturnStatus.CanTransitionTo(inventory.ReturnConfirmed) {
			return domain.InvalidTransition("purchase_return", id, string(ret.ReturnStatus), string(inventory.ReturnConfirmed))
		}
		if in.ReplacementPOID != "" {
			if ret.ReturnType != inventory.ReturnReplacement {
				return domain.Invalid("replacement_po_id solo aplica a devoluciones REPLACEMENT")
			}
			repl, err := repos.PurchaseOrders.GetByID(ctx, in.ReplacementPOID)
			if err != nil {
				return err
			}
			if repl.CompanyID != caller.CompanyID {
				return domain.NotFound("purchase_order", in.ReplacementPOID)
			}
			ret.ReplacementPOID = repl.ID
		}

		_, line, err := lockOrderLine(ctx, repos, caller, ret.PurchaseOrderID, ret.PurchaseOrderItemID)
		if err != nil {
			return err
		}
		if ret.ReturnQty.GreaterThan(line.Returnable()) {
			return domain.ExceedsReceived(line.ID, line.ItemID, ret.ReturnQty, line.Returnable())
		}
		row, err := repos.Stock.GetByItemAndBranch(ctx, ret.ItemID, ret.BranchID)
		if err != nil {
			return err
		}
		mov, err := s.ledger.DeductPurchaseReturnInTx(ctx, repos, caller, row.ID, ret.ReturnQty, ret.ID, ret.ReturnReason)
		if err != nil {
			return err
		}
		movs = append(movs, mov)
		if err := repos.PurchaseOrders.UpdateItemReturned(ctx, line.ID, line.ReturnedQty.Add(ret.ReturnQty)); err != nil {
			return err
		}

		now := time.Now()
		ret.StockDeducted = true
		ret.ReturnStatus = inventory.ReturnConfirmed
		ret.ConfirmedBy = caller.UserID
		ret.ConfirmedAt = &now
		ret.UpdatedAt = now
		return repos.PurchaseReturns.Update(ctx, ret)
	})
	if err != nil {
		return nil, s.ledger.Observe(op, nil, err)
	}
	if len(movs) == 0 {
		s.log.Debug().Str("purchase_return_id", id).Msg("devolución ya confirmada, sin cambios")
	}
	return ret, s.ledger.Observe(op, movs, nil)
}

// RejectPurchaseReturn PENDING -> REJECTED. No toca el stock.
func (s *Service) RejectPurchaseReturn(ctx context.Context, caller entity.Caller, id string) (*entity.PurchaseItemReturn, error) {
	var ret *entity.PurchaseItemReturn
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		if ret, err = lockPurchaseReturn(ctx, repos, caller, id); err != nil {
			return err
		}
		if !ret.ReturnStatus.CanTransitionTo(inventory.ReturnRejected) {
			return domain.InvalidTransition("purchase_return", id, string(ret.ReturnStatus), string(inventory.ReturnRejected))
		}
		ret.ReturnStatus = inventory.ReturnRejected
		ret.UpdatedAt = time.Now()
		return repos.PurchaseReturns.Update(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ProcessPurchaseRefund registra dinero recibido del proveedor. Solo devoluciones REFUND confirmadas;
// la suma de reembolsos no puede superar refund_amount. Nunca toca el stock.
func (s *Service) ProcessPurchaseRefund(ctx context.Context, caller entity.Caller, id string, in RefundInput) (*entity.RefundTransaction, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.Invalid("el monto del reembolso debe ser positivo")
	}
	var refund *entity.RefundTransaction
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		ret, err := lockPurchaseReturn(ctx, repos, caller, id)
		if err != nil {
			return err
		}
		if ret.ReturnStatus != inventory.ReturnConfirmed {
			return domain.InvalidTransition("purchase_return", id, string(ret.ReturnStatus), string(inventory.ReturnConfirmed))
		}
		if ret.ReturnType != inventory.ReturnRefund {
			return domain.Conflict("purchase_return", id, "las devoluciones REPLACEMENT no generan reembolso")
		}
		remaining := ret.RefundAmount.Sub(ret.RefundedAmount)
		if in.Amount.GreaterThan(remaining) {
			return domain.ExceedsRefundable("purchase_return", id, in.Amount, remaining)
		}
		refund = newRefund(caller, inventory.RefundFromPurchaseReturn, id, in)
		if err := repos.Refunds.Create(ctx, refund); err != nil {
			return err
		}
		ret.RefundedAmount = ret.RefundedAmount.Add(in.Amount)
		ret.UpdatedAt = refund.CreatedAt
		return repos.PurchaseReturns.Update(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// ListPurchaseRefunds reembolsos registrados de una devolución.
func (s *Service) ListPurchaseRefunds(ctx context.Context, caller entity.Caller, id string) ([]*entity.RefundTransaction, error) {
	if _, err := s.GetPurchaseReturn(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.repos.Refunds.ListBySource(ctx, inventory.RefundFromPurchaseReturn, id)
}

func newRefund(caller entity.Caller, source inventory.RefundSource, sourceID string, in RefundInput) *entity.RefundTransaction {
	return &entity.RefundTransaction{
		ID:            uuid.New().String(),
		CompanyID:     caller.CompanyID,
		SourceType:    source,
		SourceID:      sourceID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		Notes:         in.Notes,
		ProcessedBy:   caller.UserID,
		CreatedAt:     time.Now(),
	}
}

func lockPurchaseReturn(ctx context.Context, repos repository.TxRepos, caller entity.Caller, id string) (*entity.PurchaseItemReturn, error) {
	ret, err := repos.PurchaseReturns.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("purchase_return", id)
	}
	return ret, nil
}

// lockOrderLine bloquea cabecera y línea, en ese orden.
func lockOrderLine(ctx context.Context, repos repository.TxRepos, caller entity.Caller, poID, lineID string) (*entity.PurchaseOrder, *entity.PurchaseOrderItem, error) {
	po, err := repos.PurchaseOrders.GetForUpdate(ctx, poID)
	if err != nil {
		return nil, nil, err
	}
	if po.CompanyID != caller.CompanyID {
		return nil, nil, domain.NotFound("purchase_order", poID)
	}
	line, err := repos.PurchaseOrders.GetItemForUpdate(ctx, lineID)
	if err != nil {
		return nil, nil, err
	}
	if line.PurchaseOrderID != po.ID {
		return nil, nil, domain.NotFound("purchase_order_item", lineID)
	}
	return po, line, nil
}
