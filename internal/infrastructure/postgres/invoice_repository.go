package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo lectura de facturas del punto de venta.
type InvoiceRepo struct {
	q Querier
}

func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la cabecera: serializa devoluciones concurrentes contra la misma factura.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, id, true)
}

func (r *InvoiceRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.Invoice, error) {
	query := `
		SELECT id, company_id, branch_id, customer_id, invoice_number, date, grand_total, created_at
		FROM invoices WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var inv entity.Invoice
	err := r.q.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.BranchID, &inv.CustomerID, &inv.InvoiceNumber, &inv.Date, &inv.GrandTotal, &inv.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "get invoice", "invoice", id)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, invoice_id, item_id, quantity, unit_price, gst_rate, total
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	items, err := collect(rows, "list invoice items", func(row rowScanner) (*entity.InvoiceItem, error) {
		var it entity.InvoiceItem
		if err := row.Scan(&it.ID, &it.InvoiceID, &it.ItemID, &it.Quantity, &it.UnitPrice, &it.GSTRate, &it.Total); err != nil {
			return nil, err
		}
		return &it, nil
	})
	if err != nil {
		return nil, err
	}
	inv.Items = make([]entity.InvoiceItem, len(items))
	for i, it := range items {
		inv.Items[i] = *it
	}
	return &inv, nil
}
