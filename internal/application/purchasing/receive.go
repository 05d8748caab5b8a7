package purchasing

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	ledger "github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// ReceiptLine cantidad recibida de un ítem de la orden. UnitPrice opcional (por defecto el de la orden).
type ReceiptLine struct {
	ItemID      string
	ReceivedQty decimal.Decimal
	UnitPrice   *decimal.Decimal
}

// ReceiveItemsInput lote de recepción de una orden.
type ReceiveItemsInput struct {
	Lines        []ReceiptLine
	DeliveryDate *time.Time
	Notes        string
}

// ReceiveResult orden actualizada y movimientos PURCHASE registrados.
type ReceiveResult struct {
	Order     *entity.PurchaseOrder
	Movements []*entity.StockMovement
}

// receipt una línea de la orden con lo que se recibe en este lote.
type receipt struct {
	line      entity.PurchaseOrderItem
	qty       decimal.Decimal
	unitPrice decimal.Decimal
	row       *entity.BranchInventory
}

// ReceiveItems registra la recepción de mercancía de una orden PENDING o PARTIALLY_RECEIVED.
// Primero valida todo el lote (cantidades, ítems de la orden, tope de lo ordenado) y después
// aplica cada línea: entrada PURCHASE, received_qty y último precio. El estado se deriva de las
// líneas al final. Todo en una transacción: si una línea falla no se aplica ninguna.
func (s *Service) ReceiveItems(ctx context.Context, caller entity.Caller, poID string, in ReceiveItemsInput) (*ReceiveResult, error) {
	const op = "receive"
	if len(in.Lines) == 0 {
		return nil, s.ledger.Observe(op, nil, domain.Invalid("la recepción debe tener al menos una línea"))
	}
	for _, l := range in.Lines {
		if !l.ReceivedQty.IsPositive() {
			return nil, s.ledger.Observe(op, nil, domain.InvalidDelta("purchase_order_item", l.ItemID, l.ReceivedQty, "la cantidad recibida debe ser positiva"))
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			return nil, s.ledger.Observe(op, nil, domain.Invalid("unit_price no puede ser negativo"))
		}
	}
	receivedAt := time.Now()
	if in.DeliveryDate != nil {
		receivedAt = *in.DeliveryDate
	}

	res := &ReceiveResult{}
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		po, err := repos.PurchaseOrders.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po.CompanyID != caller.CompanyID {
			return domain.NotFound("purchase_order", poID)
		}
		if !po.Status.CanReceive() {
			return domain.InvalidTransition("purchase_order", poID, string(po.Status), string(inventory.POReceived))
		}

		receipts, err := s.validateReceipt(ctx, repos, po, in.Lines)
		if err != nil {
			return err
		}

		for _, r := range receipts {
			if r.row, err = s.ledger.EnsureRowInTx(ctx, repos, caller, r.line.ItemID, po.BranchID, po.SupplierID); err != nil {
				return err
			}
		}
		// filas de stock en orden ascendente de id
		applyOrder := append([]*receipt(nil), receipts...)
		sort.Slice(applyOrder, func(i, j int) bool { return applyOrder[i].row.ID < applyOrder[j].row.ID })

		for _, r := range applyOrder {
			mov, err := s.ledger.ReceiveInTx(ctx, repos, caller, ledger.ReceiptPosting{
				BranchInventoryID: r.row.ID,
				Quantity:          r.qty,
				UnitPrice:         r.unitPrice,
				PurchaseOrderID:   po.ID,
				ReceivedAt:        receivedAt,
				Notes:             in.Notes,
			})
			if err != nil {
				return err
			}
			res.Movements = append(res.Movements, mov)
			if err := repos.PurchaseOrders.UpdateItemReceived(ctx, r.line.ID, r.line.ReceivedQty.Add(r.qty)); err != nil {
				return err
			}
		}

		// el estado sale solo de las cantidades de las líneas
		received := make(map[string]decimal.Decimal, len(receipts))
		for _, r := range receipts {
			received[r.line.ID] = r.line.ReceivedQty.Add(r.qty)
		}
		progress := make([]inventory.LineProgress, 0, len(po.Items))
		for i := range po.Items {
			if q, ok := received[po.Items[i].ID]; ok {
				po.Items[i].ReceivedQty = q
			}
			progress = append(progress, inventory.LineProgress{Ordered: po.Items[i].Quantity, Received: po.Items[i].ReceivedQty})
		}
		po.Status = inventory.DerivePurchaseOrderStatus(po.Status, progress)
		po.DeliveryDate = &receivedAt
		if err := repos.PurchaseOrders.UpdateStatus(ctx, po.ID, po.Status, &receivedAt); err != nil {
			return err
		}
		res.Order = po
		return nil
	})
	if err != nil {
		return nil, s.ledger.Observe(op, nil, err)
	}
	s.log.Info().
		Str("purchase_order_id", poID).
		Str("status", string(res.Order.Status)).
		Int("lines", len(res.Movements)).
		Msg("recepción registrada")
	return res, s.ledger.Observe(op, res.Movements, nil)
}

// validateReceipt agrupa líneas repetidas del mismo ítem, bloquea cada línea de la orden y
// comprueba que lo acumulado no supere lo ordenado. No escribe nada.
func (s *Service) validateReceipt(ctx context.Context, repos repository.TxRepos, po *entity.PurchaseOrder, lines []ReceiptLine) ([]*receipt, error) {
	byItem := make(map[string]*receipt, len(lines))
	var out []*receipt
	for _, l := range lines {
		if r, ok := byItem[l.ItemID]; ok {
			r.qty = r.qty.Add(l.ReceivedQty)
			if l.UnitPrice != nil {
				r.unitPrice = *l.UnitPrice
			}
			continue
		}
		var line *entity.PurchaseOrderItem
		for i := range po.Items {
			if po.Items[i].ItemID == l.ItemID {
				line = &po.Items[i]
				break
			}
		}
		if line == nil {
			return nil, domain.NotFound("purchase_order_item", l.ItemID)
		}
		r := &receipt{line: *line, qty: l.ReceivedQty, unitPrice: line.UnitPrice}
		if l.UnitPrice != nil {
			r.unitPrice = *l.UnitPrice
		}
		byItem[l.ItemID] = r
		out = append(out, r)
	}

	for _, r := range out {
		locked, err := repos.PurchaseOrders.GetItemForUpdate(ctx, r.line.ID)
		if err != nil {
			return nil, err
		}
		r.line = *locked
		if r.line.ReceivedQty.Add(r.qty).GreaterThan(r.line.Quantity) {
			return nil, domain.OverReceipt(r.line.ID, r.line.ItemID, r.qty, r.line.ReceivedQty, r.line.Quantity)
		}
	}
	return out, nil
}
