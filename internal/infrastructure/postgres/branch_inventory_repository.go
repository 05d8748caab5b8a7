package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

var _ repository.BranchInventoryRepository = (*BranchInventoryRepo)(nil)

// BranchInventoryRepo implementación de BranchInventoryRepository sobre PostgreSQL.
// La cantidad solo se escribe con UpdateQuantity, después de GetForUpdate en la misma tx.
type BranchInventoryRepo struct {
	q Querier
}

// NewBranchInventoryRepository construye el adaptador de stock por sucursal. Pasar pool o tx (Querier).
func NewBranchInventoryRepository(q Querier) *BranchInventoryRepo {
	return &BranchInventoryRepo{q: q}
}

const branchInventoryColumns = `id, company_id, item_id, branch_id, stock_quantity, min_stock_level,
	max_stock_level, reorder_level, last_purchase_price, last_purchase_date, supplier_id, is_active,
	created_at, updated_at`

func scanBranchInventory(row rowScanner) (*entity.BranchInventory, error) {
	var b entity.BranchInventory
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.ItemID, &b.BranchID, &b.StockQuantity, &b.MinStockLevel,
		&b.MaxStockLevel, &b.ReorderLevel, &b.LastPurchasePrice, &b.LastPurchaseDate, &b.SupplierID, &b.IsActive,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserta la fila; el par (item_id, branch_id) duplicado devuelve ErrDuplicate.
func (r *BranchInventoryRepo) Create(ctx context.Context, b *entity.BranchInventory) error {
	query := `
		INSERT INTO branch_inventory (` + branchInventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.CompanyID, b.ItemID, b.BranchID, b.StockQuantity, b.MinStockLevel,
		b.MaxStockLevel, b.ReorderLevel, b.LastPurchasePrice, b.LastPurchaseDate, b.SupplierID, b.IsActive,
		b.CreatedAt, b.UpdatedAt,
	)
	return mapError(err, "create branch inventory", "branch_inventory", b.ID)
}

func (r *BranchInventoryRepo) GetByID(ctx context.Context, id string) (*entity.BranchInventory, error) {
	query := `SELECT ` + branchInventoryColumns + ` FROM branch_inventory WHERE id = $1`
	b, err := scanBranchInventory(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "get branch inventory", "branch_inventory", id)
	}
	return b, nil
}

// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE) hasta el fin de la transacción.
func (r *BranchInventoryRepo) GetForUpdate(ctx context.Context, id string) (*entity.BranchInventory, error) {
	query := `SELECT ` + branchInventoryColumns + ` FROM branch_inventory WHERE id = $1 FOR UPDATE`
	b, err := scanBranchInventory(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "get branch inventory for update", "branch_inventory", id)
	}
	return b, nil
}

func (r *BranchInventoryRepo) GetByItemAndBranch(ctx context.Context, itemID, branchID string) (*entity.BranchInventory, error) {
	query := `SELECT ` + branchInventoryColumns + ` FROM branch_inventory WHERE item_id = $1 AND branch_id = $2`
	b, err := scanBranchInventory(r.q.QueryRow(ctx, query, itemID, branchID))
	if err != nil {
		return nil, mapError(err, "get branch inventory by item", "branch_inventory", itemID+"@"+branchID)
	}
	return b, nil
}

func (r *BranchInventoryRepo) UpdateQuantity(ctx context.Context, id string, qty decimal.Decimal, at time.Time) error {
	query := `UPDATE branch_inventory SET stock_quantity = $2, updated_at = $3 WHERE id = $1`
	return execOne(ctx, r.q, "update stock quantity", "branch_inventory", id, query, id, qty, at)
}

func (r *BranchInventoryRepo) UpdatePurchaseInfo(ctx context.Context, id string, price decimal.Decimal, date time.Time) error {
	query := `
		UPDATE branch_inventory
		SET last_purchase_price = $2, last_purchase_date = $3, updated_at = now()
		WHERE id = $1`
	return execOne(ctx, r.q, "update purchase info", "branch_inventory", id, query, id, price, date)
}

func (r *BranchInventoryRepo) UpdateThresholds(ctx context.Context, id string, t entity.StockThresholds, supplierID string) error {
	query := `
		UPDATE branch_inventory
		SET min_stock_level = $2, max_stock_level = $3, reorder_level = $4, supplier_id = $5, updated_at = now()
		WHERE id = $1`
	return execOne(ctx, r.q, "update thresholds", "branch_inventory", id, query,
		id, t.MinStockLevel, t.MaxStockLevel, t.ReorderLevel, supplierID)
}

func (r *BranchInventoryRepo) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE branch_inventory SET is_active = $2, updated_at = now() WHERE id = $1`
	return execOne(ctx, r.q, "set branch inventory active", "branch_inventory", id, query, id, active)
}

func (r *BranchInventoryRepo) ListByBranch(ctx context.Context, branchID string, f repository.BranchInventoryFilter, limit, offset int) ([]*entity.BranchInventory, error) {
	lim, off := limitOffset(limit, offset)
	query := `
		SELECT ` + branchInventoryColumns + `
		FROM branch_inventory
		WHERE branch_id = $1
		  AND ($2 = '' OR item_id = $2)
		  AND (NOT $3 OR is_active)
		ORDER BY created_at, id
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, branchID, f.ItemID, f.OnlyActive, lim, off)
	if err != nil {
		return nil, fmt.Errorf("list branch inventory: %w", err)
	}
	return collect(rows, "list branch inventory", scanBranchInventory)
}

// ListBelowReorder filas activas con reorder_level > 0 y cantidad en o bajo ese nivel.
func (r *BranchInventoryRepo) ListBelowReorder(ctx context.Context, companyID, branchID string) ([]*entity.BranchInventory, error) {
	query := `
		SELECT ` + branchInventoryColumns + `
		FROM branch_inventory
		WHERE company_id = $1
		  AND ($2 = '' OR branch_id = $2)
		  AND is_active
		  AND reorder_level > 0
		  AND stock_quantity <= reorder_level
		ORDER BY branch_id, created_at`
	rows, err := r.q.Query(ctx, query, companyID, branchID)
	if err != nil {
		return nil, fmt.Errorf("list below reorder: %w", err)
	}
	return collect(rows, "list below reorder", scanBranchInventory)
}
