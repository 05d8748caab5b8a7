package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// PurchaseOrderRepository puerto de órdenes de compra y sus líneas.
type PurchaseOrderRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	// GetByID devuelve la orden con sus líneas.
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetForUpdate bloquea la cabecera y devuelve la orden con sus líneas.
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetItemForUpdate bloquea una línea.
	GetItemForUpdate(ctx context.Context, itemID string) (*entity.PurchaseOrderItem, error)
	UpdateItemReceived(ctx context.Context, itemID string, receivedQty decimal.Decimal) error
	UpdateItemReturned(ctx context.Context, itemID string, returnedQty decimal.Decimal) error
	UpdateStatus(ctx context.Context, id string, status inventory.PurchaseOrderStatus, deliveryDate *time.Time) error
}
