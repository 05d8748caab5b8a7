package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// BranchInventoryFilter filtros del listado de stock de una sucursal.
type BranchInventoryFilter struct {
	ItemID     string
	OnlyActive bool
}

// BranchInventoryRepository puerto de la fila de stock por ítem+sucursal.
// UpdateQuantity solo lo invoca el ledger, dentro de una transacción y tras GetForUpdate.
type BranchInventoryRepository interface {
	Create(ctx context.Context, inv *entity.BranchInventory) error
	GetByID(ctx context.Context, id string) (*entity.BranchInventory, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.BranchInventory, error)
	GetByItemAndBranch(ctx context.Context, itemID, branchID string) (*entity.BranchInventory, error)
	UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal, at time.Time) error
	UpdatePurchaseInfo(ctx context.Context, id string, price decimal.Decimal, date time.Time) error
	UpdateThresholds(ctx context.Context, id string, t entity.StockThresholds, supplierID string) error
	SetActive(ctx context.Context, id string, active bool) error
	ListByBranch(ctx context.Context, branchID string, filter BranchInventoryFilter, limit, offset int) ([]*entity.BranchInventory, error)
	// ListBelowReorder filas activas con cantidad <= reorder_level (> 0). branchID vacío = toda la empresa.
	ListBelowReorder(ctx context.Context, companyID, branchID string) ([]*entity.BranchInventory, error)
}
