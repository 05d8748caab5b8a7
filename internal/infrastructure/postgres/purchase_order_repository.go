package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra y sus líneas sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const (
	purchaseOrderColumns = `id, company_id, branch_id, supplier_id, order_number, status, order_date,
	expected_date, delivery_date, notes, total_amount, created_by, created_at, updated_at`
	purchaseOrderItemColumns = `id, purchase_order_id, item_id, quantity, unit_price, received_qty,
	returned_qty, created_at, updated_at`
)

func scanPurchaseOrder(row rowScanner) (*entity.PurchaseOrder, error) {
	var (
		po     entity.PurchaseOrder
		status string
	)
	err := row.Scan(
		&po.ID, &po.CompanyID, &po.BranchID, &po.SupplierID, &po.OrderNumber, &status, &po.OrderDate,
		&po.ExpectedDate, &po.DeliveryDate, &po.Notes, &po.TotalAmount, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	po.Status = inventory.PurchaseOrderStatus(status)
	return &po, nil
}

func scanPurchaseOrderItem(row rowScanner) (*entity.PurchaseOrderItem, error) {
	var l entity.PurchaseOrderItem
	err := row.Scan(
		&l.ID, &l.PurchaseOrderID, &l.ItemID, &l.Quantity, &l.UnitPrice, &l.ReceivedQty,
		&l.ReturnedQty, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserta cabecera y líneas. Debe correr dentro de una transacción.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	header := `
		INSERT INTO purchase_orders (` + purchaseOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, header,
		po.ID, po.CompanyID, po.BranchID, po.SupplierID, po.OrderNumber, string(po.Status), po.OrderDate,
		po.ExpectedDate, po.DeliveryDate, po.Notes, po.TotalAmount, po.CreatedBy, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create purchase order", "purchase_order", po.ID)
	}
	line := `
		INSERT INTO purchase_order_items (` + purchaseOrderItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, l := range po.Items {
		_, err := r.q.Exec(ctx, line,
			l.ID, l.PurchaseOrderID, l.ItemID, l.Quantity, l.UnitPrice, l.ReceivedQty,
			l.ReturnedQty, l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return mapError(err, "create purchase order item", "purchase_order_item", l.ID)
		}
	}
	return nil
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea solo la cabecera; las líneas se bloquean una a una con GetItemForUpdate.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, true)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	po, err := scanPurchaseOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "get purchase order", "purchase_order", id)
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+purchaseOrderItemColumns+`
		FROM purchase_order_items WHERE purchase_order_id = $1
		ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	lines, err := collect(rows, "list purchase order items", scanPurchaseOrderItem)
	if err != nil {
		return nil, err
	}
	po.Items = make([]entity.PurchaseOrderItem, len(lines))
	for i, l := range lines {
		po.Items[i] = *l
	}
	return po, nil
}

func (r *PurchaseOrderRepo) GetItemForUpdate(ctx context.Context, itemID string) (*entity.PurchaseOrderItem, error) {
	query := `SELECT ` + purchaseOrderItemColumns + ` FROM purchase_order_items WHERE id = $1 FOR UPDATE`
	l, err := scanPurchaseOrderItem(r.q.QueryRow(ctx, query, itemID))
	if err != nil {
		return nil, mapError(err, "get purchase order item for update", "purchase_order_item", itemID)
	}
	return l, nil
}

func (r *PurchaseOrderRepo) UpdateItemReceived(ctx context.Context, itemID string, receivedQty decimal.Decimal) error {
	query := `UPDATE purchase_order_items SET received_qty = $2, updated_at = now() WHERE id = $1`
	return execOne(ctx, r.q, "update received qty", "purchase_order_item", itemID, query, itemID, receivedQty)
}

func (r *PurchaseOrderRepo) UpdateItemReturned(ctx context.Context, itemID string, returnedQty decimal.Decimal) error {
	query := `UPDATE purchase_order_items SET returned_qty = $2, updated_at = now() WHERE id = $1`
	return execOne(ctx, r.q, "update returned qty", "purchase_order_item", itemID, query, itemID, returnedQty)
}

// UpdateStatus cambia el estado; deliveryDate nil conserva la fecha de entrega existente.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, id string, status inventory.PurchaseOrderStatus, deliveryDate *time.Time) error {
	query := `
		UPDATE purchase_orders
		SET status = $2, delivery_date = COALESCE($3, delivery_date), updated_at = now()
		WHERE id = $1`
	return execOne(ctx, r.q, "update purchase order status", "purchase_order", id, query, id, string(status), deliveryDate)
}
