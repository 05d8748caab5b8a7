package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// PurchaseReturnRepository puerto de devoluciones a proveedor.
type PurchaseReturnRepository interface {
	Create(ctx context.Context, r *entity.PurchaseItemReturn) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseItemReturn, error)
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseItemReturn, error)
	// Update guarda estado, stock_deducted, montos y datos de confirmación.
	Update(ctx context.Context, r *entity.PurchaseItemReturn) error
}

// SalesReturnRepository puerto de devoluciones de cliente.
type SalesReturnRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, r *entity.SalesReturn) error
	GetByID(ctx context.Context, id string) (*entity.SalesReturn, error)
	GetForUpdate(ctx context.Context, id string) (*entity.SalesReturn, error)
	Update(ctx context.Context, r *entity.SalesReturn) error
	// SumReturnedByInvoice suma por línea de factura las devoluciones no rechazadas.
	SumReturnedByInvoice(ctx context.Context, invoiceID string) (map[string]decimal.Decimal, error)
}

// InvoiceRepository lectura de facturas del punto de venta.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la cabecera para serializar devoluciones concurrentes de la misma factura.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
}

// RefundRepository puerto de transacciones de reembolso.
type RefundRepository interface {
	Create(ctx context.Context, t *entity.RefundTransaction) error
	ListBySource(ctx context.Context, source inventory.RefundSource, sourceID string) ([]*entity.RefundTransaction, error)
}
