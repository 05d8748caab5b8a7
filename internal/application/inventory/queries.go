package inventory

import (
	"context"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// Get devuelve una fila de stock de la empresa del caller.
func (l *Ledger) Get(ctx context.Context, caller entity.Caller, id string) (*entity.BranchInventory, error) {
	return ownRow(ctx, l.repos.Stock, caller, id)
}

// ListByBranch lista el stock de una sucursal.
func (l *Ledger) ListByBranch(
	ctx context.Context,
	caller entity.Caller,
	branchID string,
	filter repository.BranchInventoryFilter,
	limit, offset int,
) ([]*entity.BranchInventory, error) {
	branch, err := l.repos.Branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("branch", branchID)
	}
	return l.repos.Stock.ListByBranch(ctx, branchID, filter, limit, offset)
}

// ListMovements historial de una fila, del más antiguo al más reciente. No bloquea.
func (l *Ledger) ListMovements(ctx context.Context, caller entity.Caller, id string, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, domain.Invalid("tipo de movimiento desconocido")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.Invalid("rango de fechas inválido")
	}
	if _, err := ownRow(ctx, l.repos.Stock, caller, id); err != nil {
		return nil, err
	}
	return l.repos.Movements.ListByBranchInventory(ctx, id, filter)
}

// Reconcile compara stock_quantity con la suma de sus movimientos y verifica la cadena
// previousQty/newQty. Bloquea la fila mientras lee para obtener una vista consistente.
func (l *Ledger) Reconcile(ctx context.Context, caller entity.Caller, id string) (*inventory.Reconciliation, error) {
	var rec inventory.Reconciliation
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		row, err := repos.Stock.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if row.CompanyID != caller.CompanyID {
			return domain.NotFound("branch_inventory", id)
		}
		movs, err := repos.Movements.ListByBranchInventory(ctx, id, repository.MovementFilter{})
		if err != nil {
			return err
		}
		snaps := make([]inventory.Snapshot, 0, len(movs))
		for _, m := range movs {
			snaps = append(snaps, inventory.Snapshot{ID: m.ID, Quantity: m.Quantity, PreviousQty: m.PreviousQty, NewQty: m.NewQty})
		}
		rec = inventory.Reconcile(row.StockQuantity, snaps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !rec.Consistent() {
		l.log.Error().
			Str("branch_inventory_id", id).
			Str("stock_quantity", rec.StockQuantity.String()).
			Str("movement_sum", rec.MovementSum.String()).
			Int("breaks", len(rec.Breaks)).
			Msg("stock inconsistente con su historial")
	}
	return &rec, nil
}
