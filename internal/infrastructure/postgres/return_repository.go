package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

var (
	_ repository.PurchaseReturnRepository = (*PurchaseReturnRepo)(nil)
	_ repository.SalesReturnRepository    = (*SalesReturnRepo)(nil)
)

// PurchaseReturnRepo devoluciones a proveedor (tabla purchase_item_returns).
type PurchaseReturnRepo struct {
	q Querier
}

func NewPurchaseReturnRepository(q Querier) *PurchaseReturnRepo {
	return &PurchaseReturnRepo{q: q}
}

const purchaseReturnColumns = `id, company_id, purchase_order_id, purchase_order_item_id, item_id, branch_id,
	return_qty, return_reason, return_type, return_status, stock_deducted, refund_amount, refunded_amount,
	replacement_po_id, created_by, confirmed_by, confirmed_at, created_at, updated_at`

func scanPurchaseReturn(row rowScanner) (*entity.PurchaseItemReturn, error) {
	var (
		pr             entity.PurchaseItemReturn
		rtype, rstatus string
	)
	err := row.Scan(
		&pr.ID, &pr.CompanyID, &pr.PurchaseOrderID, &pr.PurchaseOrderItemID, &pr.ItemID, &pr.BranchID,
		&pr.ReturnQty, &pr.ReturnReason, &rtype, &rstatus, &pr.StockDeducted, &pr.RefundAmount, &pr.RefundedAmount,
		&pr.ReplacementPOID, &pr.CreatedBy, &pr.ConfirmedBy, &pr.ConfirmedAt, &pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pr.ReturnType = inventory.ReturnType(rtype)
	pr.ReturnStatus = inventory.ReturnStatus(rstatus)
	return &pr, nil
}

func (r *PurchaseReturnRepo) Create(ctx context.Context, pr *entity.PurchaseItemReturn) error {
	query := `
		INSERT INTO purchase_item_returns (` + purchaseReturnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		pr.ID, pr.CompanyID, pr.PurchaseOrderID, pr.PurchaseOrderItemID, pr.ItemID, pr.BranchID,
		pr.ReturnQty, pr.ReturnReason, string(pr.ReturnType), string(pr.ReturnStatus), pr.StockDeducted, pr.RefundAmount, pr.RefundedAmount,
		pr.ReplacementPOID, pr.CreatedBy, pr.ConfirmedBy, pr.ConfirmedAt, pr.CreatedAt, pr.UpdatedAt,
	)
	return mapError(err, "create purchase return", "purchase_return", pr.ID)
}

func (r *PurchaseReturnRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseItemReturn, error) {
	query := `SELECT ` + purchaseReturnColumns + ` FROM purchase_item_returns WHERE id = $1`
	pr, err := scanPurchaseReturn(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "get purchase return", "purchase_return", id)
	}
	return pr, nil
}

func (r *PurchaseReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseItemReturn, error) {
	query := `SELECT ` + purchaseReturnColumns + ` FROM purchase_item_returns WHERE id = $1 FOR UPDATE`
	pr, err := scanPurchaseReturn(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "get purchase return for update", "purchase_return", id)
	}
	return pr, nil
}

func (r *PurchaseReturnRepo) Update(ctx context.Context, pr *entity.PurchaseItemReturn) error {
	query := `
		UPDATE purchase_item_returns
		SET return_status = $2, stock_deducted = $3, refund_amount = $4, refunded_amount = $5,
			replacement_po_id = $6, confirmed_by = $7, confirmed_at = $8, updated_at = $9
		WHERE id = $1`
	return execOne(ctx, r.q, "update purchase return", "purchase_return", pr.ID, query,
		pr.ID, string(pr.ReturnStatus), pr.StockDeducted, pr.RefundAmount, pr.RefundedAmount,
		pr.ReplacementPOID, pr.ConfirmedBy, pr.ConfirmedAt, pr.UpdatedAt,
	)
}

// SalesReturnRepo devoluciones de cliente (sales_returns + sales_return_items).
type SalesReturnRepo struct {
	q Querier
}

func NewSalesReturnRepository(q Querier) *SalesReturnRepo {
	return &SalesReturnRepo{q: q}
}

const (
	salesReturnColumns = `id, company_id, invoice_id, branch_id, return_number, reason, return_status,
	is_full_return, restocked, total_return_amount, refunded_amount, refund_processed, created_by,
	confirmed_by, confirmed_at, created_at, updated_at`
	salesReturnItemColumns = `id, sales_return_id, invoice_item_id, item_id, return_quantity, amount`
)

func scanSalesReturn(row rowScanner) (*entity.SalesReturn, error) {
	var (
		sr     entity.SalesReturn
		status string
	)
	err := row.Scan(
		&sr.ID, &sr.CompanyID, &sr.InvoiceID, &sr.BranchID, &sr.ReturnNumber, &sr.Reason, &status,
		&sr.IsFullReturn, &sr.Restocked, &sr.TotalReturnAmount, &sr.RefundedAmount, &sr.RefundProcessed, &sr.CreatedBy,
		&sr.ConfirmedBy, &sr.ConfirmedAt, &sr.CreatedAt, &sr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sr.ReturnStatus = inventory.ReturnStatus(status)
	return &sr, nil
}

func scanSalesReturnItem(row rowScanner) (*entity.SalesReturnItem, error) {
	var it entity.SalesReturnItem
	if err := row.Scan(&it.ID, &it.SalesReturnID, &it.InvoiceItemID, &it.ItemID, &it.ReturnQuantity, &it.Amount); err != nil {
		return nil, err
	}
	return &it, nil
}

// Create inserta cabecera y líneas. Debe correr dentro de una transacción.
func (r *SalesReturnRepo) Create(ctx context.Context, sr *entity.SalesReturn) error {
	header := `
		INSERT INTO sales_returns (` + salesReturnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, header,
		sr.ID, sr.CompanyID, sr.InvoiceID, sr.BranchID, sr.ReturnNumber, sr.Reason, string(sr.ReturnStatus),
		sr.IsFullReturn, sr.Restocked, sr.TotalReturnAmount, sr.RefundedAmount, sr.RefundProcessed, sr.CreatedBy,
		sr.ConfirmedBy, sr.ConfirmedAt, sr.CreatedAt, sr.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create sales return", "sales_return", sr.ID)
	}
	line := `INSERT INTO sales_return_items (` + salesReturnItemColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range sr.Items {
		if _, err := r.q.Exec(ctx, line, it.ID, it.SalesReturnID, it.InvoiceItemID, it.ItemID, it.ReturnQuantity, it.Amount); err != nil {
			return mapError(err, "create sales return item", "sales_return_item", it.ID)
		}
	}
	return nil
}

func (r *SalesReturnRepo) GetByID(ctx context.Context, id string) (*entity.SalesReturn, error) {
	return r.get(ctx, id, false)
}

func (r *SalesReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.SalesReturn, error) {
	return r.get(ctx, id, true)
}

func (r *SalesReturnRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.SalesReturn, error) {
	query := `SELECT ` + salesReturnColumns + ` FROM sales_returns WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	sr, err := scanSalesReturn(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "get sales return", "sales_return", id)
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+salesReturnItemColumns+`
		FROM sales_return_items WHERE sales_return_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list sales return items: %w", err)
	}
	items, err := collect(rows, "list sales return items", scanSalesReturnItem)
	if err != nil {
		return nil, err
	}
	sr.Items = make([]entity.SalesReturnItem, len(items))
	for i, it := range items {
		sr.Items[i] = *it
	}
	return sr, nil
}

// Update guarda estado y montos de la cabecera; las líneas no cambian tras crear la devolución.
func (r *SalesReturnRepo) Update(ctx context.Context, sr *entity.SalesReturn) error {
	query := `
		UPDATE sales_returns
		SET return_status = $2, restocked = $3, refunded_amount = $4, refund_processed = $5,
			confirmed_by = $6, confirmed_at = $7, updated_at = $8
		WHERE id = $1`
	return execOne(ctx, r.q, "update sales return", "sales_return", sr.ID, query,
		sr.ID, string(sr.ReturnStatus), sr.Restocked, sr.RefundedAmount, sr.RefundProcessed,
		sr.ConfirmedBy, sr.ConfirmedAt, sr.UpdatedAt,
	)
}

func (r *SalesReturnRepo) SumReturnedByInvoice(ctx context.Context, invoiceID string) (map[string]decimal.Decimal, error) {
	query := `
		SELECT sri.invoice_item_id, SUM(sri.return_quantity)
		FROM sales_return_items sri
		JOIN sales_returns sr ON sr.id = sri.sales_return_id
		WHERE sr.invoice_id = $1 AND sr.return_status <> $2
		GROUP BY sri.invoice_item_id`
	rows, err := r.q.Query(ctx, query, invoiceID, string(inventory.ReturnRejected))
	if err != nil {
		return nil, fmt.Errorf("sum returned by invoice: %w", err)
	}
	defer rows.Close()
	sums := map[string]decimal.Decimal{}
	for rows.Next() {
		var (
			id  string
			qty decimal.Decimal
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("sum returned by invoice scan: %w", err)
		}
		sums[id] = qty
	}
	return sums, rows.Err()
}
