package salesreturn

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledger "github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

// Service devoluciones de clientes contra facturas del punto de venta.
type Service struct {
	txRunner ports.TxRunner
	repos    repository.TxRepos
	ledger   *ledger.Ledger
	log      *logger.Logger
}

// NewService construye el servicio.
func NewService(txRunner ports.TxRunner, repos repository.TxRepos, l *ledger.Ledger, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{txRunner: txRunner, repos: repos, ledger: l, log: log}
}

// LineInput cantidad devuelta de una línea de factura.
type LineInput struct {
	InvoiceItemID string
	Quantity      decimal.Decimal
}

// CreateInput devolución nueva. Con IsFullReturn se devuelven todas las unidades aún no devueltas
// y Lines debe venir vacío.
type CreateInput struct {
	InvoiceID    string
	Reason       string
	IsFullReturn bool
	Lines        []LineInput
}

// ConfirmInput la política de reingreso es obligatoria: no hay valor por defecto.
type ConfirmInput struct {
	Restock inventory.RestockPolicy
}

// RefundInput pago (total o parcial) al cliente.
type RefundInput struct {
	Amount        decimal.Decimal
	PaymentMethod string
	Reference     string
	Notes         string
}

var hundred = decimal.NewFromInt(100)

// lineAmount parte proporcional del total de la línea, redondeada a centavos.
func lineAmount(item entity.InvoiceItem, qty decimal.Decimal) decimal.Decimal {
	return item.Total.Mul(qty).Div(item.Quantity).Round(2)
}

// Create registra la devolución en PENDING. La factura se bloquea para que dos devoluciones
// simultáneas no superen entre ambas lo facturado.
func (s *Service) Create(ctx context.Context, caller entity.Caller, in CreateInput) (*entity.SalesReturn, error) {
	if in.InvoiceID == "" {
		return nil, domain.Invalid("invoice_id es obligatorio")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, domain.Invalid("reason es obligatorio")
	}
	switch {
	case in.IsFullReturn && len(in.Lines) > 0:
		return nil, domain.Invalid("una devolución total no lleva líneas")
	case !in.IsFullReturn && len(in.Lines) == 0:
		return nil, domain.Invalid("la devolución debe tener al menos una línea")
	}
	for _, l := range in.Lines {
		if !l.Quantity.IsPositive() {
			return nil, domain.InvalidDelta("invoice_item", l.InvoiceItemID, l.Quantity, "la cantidad devuelta debe ser positiva")
		}
	}

	var sr *entity.SalesReturn
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		inv, err := repos.Invoices.GetForUpdate(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv.CompanyID != caller.CompanyID {
			return domain.NotFound("invoice", in.InvoiceID)
		}
		prior, err := repos.SalesReturns.SumReturnedByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		byID := make(map[string]entity.InvoiceItem, len(inv.Items))
		remaining := make(map[string]decimal.Decimal, len(inv.Items))
		for _, it := range inv.Items {
			byID[it.ID] = it
			remaining[it.ID] = it.Quantity.Sub(prior[it.ID])
		}

		lines := in.Lines
		if in.IsFullReturn {
			for _, it := range inv.Items {
				if remaining[it.ID].IsPositive() {
					lines = append(lines, LineInput{InvoiceItemID: it.ID, Quantity: remaining[it.ID]})
				}
			}
			if len(lines) == 0 {
				return domain.Conflict("invoice", inv.ID, "todas las unidades de la factura ya fueron devueltas")
			}
		}

		requested := make(map[string]decimal.Decimal, len(lines))
		var order []string
		for _, l := range lines {
			if _, ok := byID[l.InvoiceItemID]; !ok {
				return domain.NotFound("invoice_item", l.InvoiceItemID)
			}
			if _, ok := requested[l.InvoiceItemID]; !ok {
				order = append(order, l.InvoiceItemID)
			}
			requested[l.InvoiceItemID] = requested[l.InvoiceItemID].Add(l.Quantity)
		}

		now := time.Now()
		sr = &entity.SalesReturn{
			ID:                uuid.New().String(),
			CompanyID:         caller.CompanyID,
			InvoiceID:         inv.ID,
			BranchID:          inv.BranchID,
			ReturnNumber:      documentNumber(),
			Reason:            in.Reason,
			ReturnStatus:      inventory.ReturnPending,
			TotalReturnAmount: decimal.Zero,
			RefundedAmount:    decimal.Zero,
			CreatedBy:         caller.UserID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		for _, id := range order {
			it, qty := byID[id], requested[id]
			if qty.GreaterThan(remaining[id]) {
				return domain.ExceedsInvoiced(id, it.ItemID, qty, remaining[id])
			}
			if !it.Quantity.IsPositive() {
				return domain.Conflict("invoice_item", id, "la línea de factura no tiene cantidad")
			}
			amount := lineAmount(it, qty)
			sr.Items = append(sr.Items, entity.SalesReturnItem{
				ID:             uuid.New().String(),
				SalesReturnID:  sr.ID,
				InvoiceItemID:  id,
				ItemID:         it.ItemID,
				ReturnQuantity: qty,
				Amount:         amount,
			})
			sr.TotalReturnAmount = sr.TotalReturnAmount.Add(amount)
			remaining[id] = remaining[id].Sub(qty)
		}
		sr.IsFullReturn = true
		for _, r := range remaining {
			if r.IsPositive() {
				sr.IsFullReturn = false
				break
			}
		}
		return repos.SalesReturns.Create(ctx, sr)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("sales_return_id", sr.ID).Str("invoice_id", sr.InvoiceID).Msg("devolución de cliente creada")
	return sr, nil
}

// Get devuelve una devolución de cliente con sus líneas.
func (s *Service) Get(ctx context.Context, caller entity.Caller, id string) (*entity.SalesReturn, error) {
	sr, err := s.repos.SalesReturns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sr.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("sales_return", id)
	}
	return sr, nil
}

// Confirm confirma la devolución. Con RESTOCK cada línea reingresa al stock de la sucursal de la
// factura (RETURN positivo); con NO_RESTOCK el stock no cambia. Confirmar dos veces no hace nada.
// Una devolución de total 0 queda con refund_processed al confirmarse.
func (s *Service) Confirm(ctx context.Context, caller entity.Caller, id string, in ConfirmInput) (*entity.SalesReturn, error) {
	const op = "sales_return"
	if !in.Restock.IsValid() {
		return nil, domain.Invalid("restock debe ser RESTOCK o NO_RESTOCK")
	}
	var (
		sr   *entity.SalesReturn
		movs []*entity.StockMovement
	)
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		if sr, err = lockReturn(ctx, repos, caller, id); err != nil {
			return err
		}
		if sr.ReturnStatus == inventory.ReturnConfirmed {
			return nil
		}
		if !sr.ReturnStatus.CanTransitionTo(inventory.ReturnConfirmed) {
			return domain.InvalidTransition("sales_return", id, string(sr.ReturnStatus), string(inventory.ReturnConfirmed))
		}

		if in.Restock == inventory.Restock {
			type restock struct {
				row *entity.BranchInventory
				qty decimal.Decimal
			}
			byRow := map[string]*restock{}
			for _, it := range sr.Items {
				row, err := s.ledger.EnsureRowInTx(ctx, repos, caller, it.ItemID, sr.BranchID, "")
				if err != nil {
					return err
				}
				if r, ok := byRow[row.ID]; ok {
					r.qty = r.qty.Add(it.ReturnQuantity)
					continue
				}
				byRow[row.ID] = &restock{row: row, qty: it.ReturnQuantity}
			}
			ids := make([]string, 0, len(byRow))
			for rowID := range byRow {
				ids = append(ids, rowID)
			}
			sort.Strings(ids)
			for _, rowID := range ids {
				mov, err := s.ledger.RestockSalesReturnInTx(ctx, repos, caller, rowID, byRow[rowID].qty, sr.ID, sr.Reason)
				if err != nil {
					return err
				}
				movs = append(movs, mov)
			}
		}

		now := time.Now()
		sr.ReturnStatus = inventory.ReturnConfirmed
		sr.Restocked = in.Restock == inventory.Restock
		if !sr.TotalReturnAmount.IsPositive() {
			sr.RefundProcessed = true
		}
		sr.ConfirmedBy = caller.UserID
		sr.ConfirmedAt = &now
		sr.UpdatedAt = now
		return repos.SalesReturns.Update(ctx, sr)
	})
	if err != nil {
		return nil, s.ledger.Observe(op, nil, err)
	}
	return sr, s.ledger.Observe(op, movs, nil)
}

// Reject PENDING -> REJECTED. Las unidades vuelven a quedar disponibles para devolver.
func (s *Service) Reject(ctx context.Context, caller entity.Caller, id string) (*entity.SalesReturn, error) {
	var sr *entity.SalesReturn
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		if sr, err = lockReturn(ctx, repos, caller, id); err != nil {
			return err
		}
		if !sr.ReturnStatus.CanTransitionTo(inventory.ReturnRejected) {
			return domain.InvalidTransition("sales_return", id, string(sr.ReturnStatus), string(inventory.ReturnRejected))
		}
		sr.ReturnStatus = inventory.ReturnRejected
		sr.UpdatedAt = time.Now()
		return repos.SalesReturns.Update(ctx, sr)
	})
	if err != nil {
		return nil, err
	}
	return sr, nil
}

// ProcessRefund registra dinero devuelto al cliente. refund_processed pasa a true cuando lo
// reembolsado alcanza el total de la devolución.
func (s *Service) ProcessRefund(ctx context.Context, caller entity.Caller, id string, in RefundInput) (*entity.RefundTransaction, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.Invalid("el monto del reembolso debe ser positivo")
	}
	var refund *entity.RefundTransaction
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		sr, err := lockReturn(ctx, repos, caller, id)
		if err != nil {
			return err
		}
		if sr.ReturnStatus != inventory.ReturnConfirmed {
			return domain.InvalidTransition("sales_return", id, string(sr.ReturnStatus), string(inventory.ReturnConfirmed))
		}
		remaining := sr.TotalReturnAmount.Sub(sr.RefundedAmount)
		if in.Amount.GreaterThan(remaining) {
			return domain.ExceedsRefundable("sales_return", id, in.Amount, remaining)
		}
		refund = &entity.RefundTransaction{
			ID:            uuid.New().String(),
			CompanyID:     caller.CompanyID,
			SourceType:    inventory.RefundFromSalesReturn,
			SourceID:      id,
			Amount:        in.Amount,
			PaymentMethod: in.PaymentMethod,
			Reference:     in.Reference,
			Notes:         in.Notes,
			ProcessedBy:   caller.UserID,
			CreatedAt:     time.Now(),
		}
		if err := repos.Refunds.Create(ctx, refund); err != nil {
			return err
		}
		sr.RefundedAmount = sr.RefundedAmount.Add(in.Amount)
		sr.RefundProcessed = sr.RefundedAmount.GreaterThanOrEqual(sr.TotalReturnAmount)
		sr.UpdatedAt = refund.CreatedAt
		return repos.SalesReturns.Update(ctx, sr)
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// ListRefunds reembolsos registrados de una devolución.
func (s *Service) ListRefunds(ctx context.Context, caller entity.Caller, id string) ([]*entity.RefundTransaction, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.repos.Refunds.ListBySource(ctx, inventory.RefundFromSalesReturn, id)
}

func lockReturn(ctx context.Context, repos repository.TxRepos, caller entity.Caller, id string) (*entity.SalesReturn, error) {
	sr, err := repos.SalesReturns.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if sr.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("sales_return", id)
	}
	return sr, nil
}

func documentNumber() string {
	return "SR-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
