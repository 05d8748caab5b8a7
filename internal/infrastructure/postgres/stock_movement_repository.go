package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo ledger append-only: solo INSERT y lecturas (un trigger rechaza UPDATE/DELETE).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, branch_inventory_id, movement_type, quantity, previous_qty, new_qty,
	reference_type, reference_id, notes, user_id, created_at`

func scanMovement(row rowScanner) (*entity.StockMovement, error) {
	var (
		m       entity.StockMovement
		mt, ref string
	)
	err := row.Scan(
		&m.ID, &m.BranchInventoryID, &mt, &m.Quantity, &m.PreviousQty, &m.NewQty,
		&ref, &m.ReferenceID, &m.Notes, &m.UserID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.MovementType, err = inventory.ParseMovementType(mt); err != nil {
		return nil, err
	}
	m.ReferenceType = inventory.ReferenceType(ref)
	return &m, nil
}

// Create inserta el movimiento; seq (BIGSERIAL) fija el orden de aplicación.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.BranchInventoryID, string(m.MovementType), m.Quantity, m.PreviousQty, m.NewQty,
		string(m.ReferenceType), m.ReferenceID, m.Notes, m.UserID, m.CreatedAt,
	)
	return mapError(err, "create stock movement", "stock_movement", m.ID)
}

// ListByBranchInventory historial de la fila en orden de aplicación (el más antiguo primero).
func (r *StockMovementRepo) ListByBranchInventory(ctx context.Context, branchInventoryID string, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	lim, off := limitOffset(f.Limit, f.Offset)
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE branch_inventory_id = $1
		  AND ($2 = '' OR movement_type = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY seq
		LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, branchInventoryID, string(f.Type), f.From, f.To, lim, off)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return collect(rows, "list stock movements", scanMovement)
}

func (r *StockMovementRepo) SumByBranchInventory(ctx context.Context, branchInventoryID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_movements WHERE branch_inventory_id = $1`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, branchInventoryID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum stock movements: %w", err)
	}
	return sum, nil
}

func (r *StockMovementRepo) ListByReference(ctx context.Context, refType inventory.ReferenceType, refID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, string(refType), refID)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	return collect(rows, "list movements by reference", scanMovement)
}
