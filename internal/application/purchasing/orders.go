package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// OrderLineInput línea de una orden nueva.
type OrderLineInput struct {
	ItemID    string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateOrderInput orden de compra nueva (queda en DRAFT).
type CreateOrderInput struct {
	BranchID     string
	SupplierID   string
	OrderNumber  string // opcional; se genera si viene vacío
	OrderDate    time.Time
	ExpectedDate *time.Time
	Notes        string
	Lines        []OrderLineInput
}

// CreateOrder valida sucursal e ítems y guarda la orden en DRAFT.
func (s *Service) CreateOrder(ctx context.Context, caller entity.Caller, in CreateOrderInput) (*entity.PurchaseOrder, error) {
	if in.BranchID == "" || in.SupplierID == "" {
		return nil, domain.Invalid("branch_id y supplier_id son obligatorios")
	}
	if len(in.Lines) == 0 {
		return nil, domain.Invalid("la orden debe tener al menos una línea")
	}
	seen := make(map[string]bool, len(in.Lines))
	for _, l := range in.Lines {
		if l.ItemID == "" {
			return nil, domain.Invalid("item_id es obligatorio en cada línea")
		}
		if seen[l.ItemID] {
			return nil, domain.Invalid("ítem repetido en la orden: " + l.ItemID)
		}
		seen[l.ItemID] = true
		if !l.Quantity.IsPositive() {
			return nil, domain.InvalidDelta("purchase_order_item", l.ItemID, l.Quantity, "la cantidad ordenada debe ser positiva")
		}
		if l.UnitPrice.IsNegative() {
			return nil, domain.Invalid("unit_price no puede ser negativo")
		}
	}

	now := time.Now()
	po := &entity.PurchaseOrder{
		ID:           uuid.New().String(),
		CompanyID:    caller.CompanyID,
		BranchID:     in.BranchID,
		SupplierID:   in.SupplierID,
		OrderNumber:  in.OrderNumber,
		Status:       inventory.PODraft,
		OrderDate:    in.OrderDate,
		ExpectedDate: in.ExpectedDate,
		Notes:        in.Notes,
		TotalAmount:  decimal.Zero,
		CreatedBy:    caller.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if po.OrderNumber == "" {
		po.OrderNumber = documentNumber("PO")
	}
	if po.OrderDate.IsZero() {
		po.OrderDate = now
	}

	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		branch, err := repos.Branches.GetByID(ctx, in.BranchID)
		if err != nil {
			return err
		}
		if branch.CompanyID != caller.CompanyID {
			return domain.NotFound("branch", in.BranchID)
		}
		for _, l := range in.Lines {
			item, err := repos.Items.GetByID(ctx, l.ItemID)
			if err != nil {
				return err
			}
			if item.CompanyID != caller.CompanyID {
				return domain.NotFound("item", l.ItemID)
			}
			if !item.IsActive {
				return domain.Inactive("item", l.ItemID)
			}
			po.Items = append(po.Items, entity.PurchaseOrderItem{
				ID:              uuid.New().String(),
				PurchaseOrderID: po.ID,
				ItemID:          l.ItemID,
				Quantity:        l.Quantity,
				UnitPrice:       l.UnitPrice,
				ReceivedQty:     decimal.Zero,
				ReturnedQty:     decimal.Zero,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
			po.TotalAmount = po.TotalAmount.Add(l.Quantity.Mul(l.UnitPrice))
		}
		return repos.PurchaseOrders.Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("purchase_order_id", po.ID).Str("order_number", po.OrderNumber).Msg("orden de compra creada")
	return po, nil
}

// GetOrder devuelve la orden con sus líneas.
func (s *Service) GetOrder(ctx context.Context, caller entity.Caller, id string) (*entity.PurchaseOrder, error) {
	po, err := s.repos.PurchaseOrders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("purchase_order", id)
	}
	return po, nil
}

// SubmitOrder DRAFT -> PENDING: la orden queda lista para recibir.
func (s *Service) SubmitOrder(ctx context.Context, caller entity.Caller, id string) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, caller, id, inventory.POPending, nil)
}

// CancelOrder DRAFT|PENDING -> CANCELLED, solo si no se ha recibido nada.
func (s *Service) CancelOrder(ctx context.Context, caller entity.Caller, id string) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, caller, id, inventory.POCancelled, func(po *entity.PurchaseOrder) error {
		for _, l := range po.Items {
			if l.ReceivedQty.IsPositive() {
				return domain.Conflict("purchase_order", po.ID, "la orden ya tiene recepciones")
			}
		}
		return nil
	})
}

// CompleteOrder RECEIVED -> COMPLETED (cierre administrativo).
func (s *Service) CompleteOrder(ctx context.Context, caller entity.Caller, id string) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, caller, id, inventory.POCompleted, nil)
}

func (s *Service) transition(
	ctx context.Context,
	caller entity.Caller,
	id string,
	target inventory.PurchaseOrderStatus,
	check func(*entity.PurchaseOrder) error,
) (*entity.PurchaseOrder, error) {
	var po *entity.PurchaseOrder
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		if po, err = repos.PurchaseOrders.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if po.CompanyID != caller.CompanyID {
			return domain.NotFound("purchase_order", id)
		}
		if !po.Status.CanTransitionTo(target) {
			return domain.InvalidTransition("purchase_order", id, string(po.Status), string(target))
		}
		if check != nil {
			if err := check(po); err != nil {
				return err
			}
		}
		po.Status = target
		return repos.PurchaseOrders.UpdateStatus(ctx, id, target, nil)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}
