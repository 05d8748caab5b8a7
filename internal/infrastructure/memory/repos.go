package memory

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

func page[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return []T{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func cloneSalesReturn(r entity.SalesReturn) entity.SalesReturn {
	r.Items = append([]entity.SalesReturnItem(nil), r.Items...)
	return r
}

func cloneInvoice(i entity.Invoice) entity.Invoice {
	i.Items = append([]entity.InvoiceItem(nil), i.Items...)
	return i
}

// --- items ---

type itemRepo struct{ t *tx }

func (r *itemRepo) Create(_ context.Context, item *entity.Item) error {
	return r.t.items.put(item.ID, *item)
}

func (r *itemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	item, ok := r.t.items.get(id)
	if !ok {
		return nil, domain.NotFound("item", id)
	}
	return &item, nil
}

func (r *itemRepo) GetByCompanyAndCode(_ context.Context, companyID, code string) (*entity.Item, error) {
	rows := r.t.items.all(func(i entity.Item) bool { return i.CompanyID == companyID && i.ItemCode == code })
	if len(rows) == 0 {
		return nil, domain.NotFound("item", code)
	}
	return &rows[0], nil
}

func (r *itemRepo) Update(_ context.Context, item *entity.Item) error {
	if _, ok := r.t.items.get(item.ID); !ok {
		return domain.NotFound("item", item.ID)
	}
	return r.t.items.put(item.ID, *item)
}

func (r *itemRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.t.items.get(id); !ok {
		return domain.NotFound("item", id)
	}
	r.t.items.remove(id)
	return nil
}

func (r *itemRepo) ListByCompany(_ context.Context, companyID string, filter repository.ItemFilter, limit, offset int) ([]*entity.Item, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	rows := r.t.items.all(func(i entity.Item) bool {
		if i.CompanyID != companyID {
			return false
		}
		if filter.OnlyActive && !i.IsActive {
			return false
		}
		if filter.CategoryID != "" && i.CategoryID != filter.CategoryID {
			return false
		}
		return search == "" ||
			strings.Contains(strings.ToLower(i.ItemCode), search) ||
			strings.Contains(strings.ToLower(i.ItemName), search)
	})
	return pointers(page(rows, limit, offset)), nil
}

func (r *itemRepo) IsReferenced(_ context.Context, id string) (bool, error) {
	if len(r.t.stock.all(func(b entity.BranchInventory) bool { return b.ItemID == id })) > 0 {
		return true, nil
	}
	return len(r.t.poItems.all(func(l entity.PurchaseOrderItem) bool { return l.ItemID == id })) > 0, nil
}

func pointers[T any](rows []T) []*T {
	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

// --- branches ---

type branchRepo struct{ t *tx }

func (r *branchRepo) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	b, ok := r.t.branches.get(id)
	if !ok {
		return nil, domain.NotFound("branch", id)
	}
	return &b, nil
}

// --- branch inventory ---

type stockRepo struct{ t *tx }

func (r *stockRepo) Create(_ context.Context, inv *entity.BranchInventory) error {
	return r.t.stock.put(inv.ID, *inv)
}

func (r *stockRepo) GetByID(_ context.Context, id string) (*entity.BranchInventory, error) {
	b, ok := r.t.stock.get(id)
	if !ok {
		return nil, domain.NotFound("branch_inventory", id)
	}
	return &b, nil
}

func (r *stockRepo) GetForUpdate(ctx context.Context, id string) (*entity.BranchInventory, error) {
	if err := r.t.lock(ctx, "branch_inventory:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *stockRepo) GetByItemAndBranch(_ context.Context, itemID, branchID string) (*entity.BranchInventory, error) {
	rows := r.t.stock.all(func(b entity.BranchInventory) bool { return b.ItemID == itemID && b.BranchID == branchID })
	if len(rows) == 0 {
		return nil, domain.NotFound("branch_inventory", itemID+"@"+branchID)
	}
	return &rows[0], nil
}

func (r *stockRepo) update(id string, fn func(*entity.BranchInventory)) error {
	b, ok := r.t.stock.get(id)
	if !ok {
		return domain.NotFound("branch_inventory", id)
	}
	fn(&b)
	return r.t.stock.put(id, b)
}

func (r *stockRepo) UpdateQuantity(_ context.Context, id string, qty decimal.Decimal, at time.Time) error {
	return r.update(id, func(b *entity.BranchInventory) {
		b.StockQuantity = qty
		b.UpdatedAt = at
	})
}

func (r *stockRepo) UpdatePurchaseInfo(_ context.Context, id string, price decimal.Decimal, date time.Time) error {
	return r.update(id, func(b *entity.BranchInventory) {
		b.LastPurchasePrice = &price
		b.LastPurchaseDate = &date
		b.UpdatedAt = time.Now()
	})
}

func (r *stockRepo) UpdateThresholds(_ context.Context, id string, t entity.StockThresholds, supplierID string) error {
	return r.update(id, func(b *entity.BranchInventory) {
		b.MinStockLevel = t.MinStockLevel
		b.MaxStockLevel = t.MaxStockLevel
		b.ReorderLevel = t.ReorderLevel
		b.SupplierID = supplierID
		b.UpdatedAt = time.Now()
	})
}

func (r *stockRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.update(id, func(b *entity.BranchInventory) {
		b.IsActive = active
		b.UpdatedAt = time.Now()
	})
}

func (r *stockRepo) ListByBranch(_ context.Context, branchID string, filter repository.BranchInventoryFilter, limit, offset int) ([]*entity.BranchInventory, error) {
	rows := r.t.stock.all(func(b entity.BranchInventory) bool {
		return b.BranchID == branchID &&
			(filter.ItemID == "" || b.ItemID == filter.ItemID) &&
			(!filter.OnlyActive || b.IsActive)
	})
	return pointers(page(rows, limit, offset)), nil
}

func (r *stockRepo) ListBelowReorder(_ context.Context, companyID, branchID string) ([]*entity.BranchInventory, error) {
	rows := r.t.stock.all(func(b entity.BranchInventory) bool {
		return b.CompanyID == companyID &&
			(branchID == "" || b.BranchID == branchID) &&
			b.IsActive &&
			inventory.NeedsReorder(b.StockQuantity, b.ReorderLevel)
	})
	return pointers(rows), nil
}

// --- movements ---

type movementRepo struct{ t *tx }

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	if _, exists := r.t.movements.get(m.ID); exists {
		return domain.Duplicate("stock_movement", m.ID)
	}
	return r.t.movements.put(m.ID, *m)
}

func (r *movementRepo) ListByBranchInventory(_ context.Context, id string, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	rows := r.t.movements.all(func(m entity.StockMovement) bool {
		switch {
		case m.BranchInventoryID != id:
			return false
		case filter.Type != "" && m.MovementType != filter.Type:
			return false
		case filter.From != nil && m.CreatedAt.Before(*filter.From):
			return false
		case filter.To != nil && m.CreatedAt.After(*filter.To):
			return false
		}
		return true
	})
	return pointers(page(rows, filter.Limit, filter.Offset)), nil
}

func (r *movementRepo) SumByBranchInventory(_ context.Context, id string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.t.movements.all(func(m entity.StockMovement) bool { return m.BranchInventoryID == id }) {
		sum = sum.Add(m.Quantity)
	}
	return sum, nil
}

func (r *movementRepo) ListByReference(_ context.Context, refType inventory.ReferenceType, refID string) ([]*entity.StockMovement, error) {
	rows := r.t.movements.all(func(m entity.StockMovement) bool {
		return m.ReferenceType == refType && m.ReferenceID == refID
	})
	return pointers(rows), nil
}

// --- purchase orders ---

type purchaseOrderRepo struct{ t *tx }

func (r *purchaseOrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	header := *po
	header.Items = nil
	if err := r.t.purchaseOrders.put(po.ID, header); err != nil {
		return err
	}
	for _, l := range po.Items {
		if err := r.t.poItems.put(l.ID, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *purchaseOrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	po, ok := r.t.purchaseOrders.get(id)
	if !ok {
		return nil, domain.NotFound("purchase_order", id)
	}
	po.Items = r.t.poItems.all(func(l entity.PurchaseOrderItem) bool { return l.PurchaseOrderID == id })
	return &po, nil
}

func (r *purchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	if err := r.t.lock(ctx, "purchase_order:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *purchaseOrderRepo) GetItemForUpdate(ctx context.Context, itemID string) (*entity.PurchaseOrderItem, error) {
	if err := r.t.lock(ctx, "purchase_order_item:"+itemID); err != nil {
		return nil, err
	}
	l, ok := r.t.poItems.get(itemID)
	if !ok {
		return nil, domain.NotFound("purchase_order_item", itemID)
	}
	return &l, nil
}

func (r *purchaseOrderRepo) updateItem(id string, fn func(*entity.PurchaseOrderItem)) error {
	l, ok := r.t.poItems.get(id)
	if !ok {
		return domain.NotFound("purchase_order_item", id)
	}
	fn(&l)
	l.UpdatedAt = time.Now()
	return r.t.poItems.put(id, l)
}

func (r *purchaseOrderRepo) UpdateItemReceived(_ context.Context, itemID string, receivedQty decimal.Decimal) error {
	return r.updateItem(itemID, func(l *entity.PurchaseOrderItem) { l.ReceivedQty = receivedQty })
}

func (r *purchaseOrderRepo) UpdateItemReturned(_ context.Context, itemID string, returnedQty decimal.Decimal) error {
	return r.updateItem(itemID, func(l *entity.PurchaseOrderItem) { l.ReturnedQty = returnedQty })
}

func (r *purchaseOrderRepo) UpdateStatus(_ context.Context, id string, status inventory.PurchaseOrderStatus, deliveryDate *time.Time) error {
	po, ok := r.t.purchaseOrders.get(id)
	if !ok {
		return domain.NotFound("purchase_order", id)
	}
	po.Status = status
	if deliveryDate != nil {
		po.DeliveryDate = deliveryDate
	}
	po.UpdatedAt = time.Now()
	return r.t.purchaseOrders.put(id, po)
}

// --- purchase returns ---

type purchaseReturnRepo struct{ t *tx }

func (r *purchaseReturnRepo) Create(_ context.Context, pr *entity.PurchaseItemReturn) error {
	return r.t.purchaseReturns.put(pr.ID, *pr)
}

func (r *purchaseReturnRepo) GetByID(_ context.Context, id string) (*entity.PurchaseItemReturn, error) {
	pr, ok := r.t.purchaseReturns.get(id)
	if !ok {
		return nil, domain.NotFound("purchase_return", id)
	}
	return &pr, nil
}

func (r *purchaseReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseItemReturn, error) {
	if err := r.t.lock(ctx, "purchase_return:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *purchaseReturnRepo) Update(_ context.Context, pr *entity.PurchaseItemReturn) error {
	if _, ok := r.t.purchaseReturns.get(pr.ID); !ok {
		return domain.NotFound("purchase_return", pr.ID)
	}
	return r.t.purchaseReturns.put(pr.ID, *pr)
}

// --- sales returns ---

type salesReturnRepo struct{ t *tx }

func (r *salesReturnRepo) Create(_ context.Context, sr *entity.SalesReturn) error {
	return r.t.salesReturns.put(sr.ID, *sr)
}

func (r *salesReturnRepo) GetByID(_ context.Context, id string) (*entity.SalesReturn, error) {
	sr, ok := r.t.salesReturns.get(id)
	if !ok {
		return nil, domain.NotFound("sales_return", id)
	}
	return &sr, nil
}

func (r *salesReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.SalesReturn, error) {
	if err := r.t.lock(ctx, "sales_return:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *salesReturnRepo) Update(_ context.Context, sr *entity.SalesReturn) error {
	if _, ok := r.t.salesReturns.get(sr.ID); !ok {
		return domain.NotFound("sales_return", sr.ID)
	}
	return r.t.salesReturns.put(sr.ID, *sr)
}

func (r *salesReturnRepo) SumReturnedByInvoice(_ context.Context, invoiceID string) (map[string]decimal.Decimal, error) {
	sums := map[string]decimal.Decimal{}
	rows := r.t.salesReturns.all(func(sr entity.SalesReturn) bool {
		return sr.InvoiceID == invoiceID && sr.ReturnStatus != inventory.ReturnRejected
	})
	for _, sr := range rows {
		for _, it := range sr.Items {
			sums[it.InvoiceItemID] = sums[it.InvoiceItemID].Add(it.ReturnQuantity)
		}
	}
	return sums, nil
}

// --- invoices ---

type invoiceRepo struct{ t *tx }

func (r *invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	inv, ok := r.t.invoices.get(id)
	if !ok {
		return nil, domain.NotFound("invoice", id)
	}
	return &inv, nil
}

func (r *invoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	if err := r.t.lock(ctx, "invoice:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// --- refunds ---

type refundRepo struct{ t *tx }

func (r *refundRepo) Create(_ context.Context, rt *entity.RefundTransaction) error {
	return r.t.refunds.put(rt.ID, *rt)
}

func (r *refundRepo) ListBySource(_ context.Context, source inventory.RefundSource, sourceID string) ([]*entity.RefundTransaction, error) {
	rows := r.t.refunds.all(func(rt entity.RefundTransaction) bool {
		return rt.SourceType == source && rt.SourceID == sourceID
	})
	return pointers(rows), nil
}
