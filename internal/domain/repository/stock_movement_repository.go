package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// MovementFilter filtros del historial; From/To opcionales.
type MovementFilter struct {
	From  *time.Time
	To    *time.Time
	Type  inventory.MovementType
	Limit int
	// Offset paginación; con Limit=0 se devuelve todo el historial.
	Offset int
}

// StockMovementRepository puerto del ledger append-only: no hay Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, m *entity.StockMovement) error
	// ListByBranchInventory en orden de creación (el más antiguo primero).
	ListByBranchInventory(ctx context.Context, branchInventoryID string, filter MovementFilter) ([]*entity.StockMovement, error)
	SumByBranchInventory(ctx context.Context, branchInventoryID string) (decimal.Decimal, error)
	ListByReference(ctx context.Context, refType inventory.ReferenceType, refID string) ([]*entity.StockMovement, error)
}
