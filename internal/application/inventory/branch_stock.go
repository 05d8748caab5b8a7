package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// AddItemToBranchInput alta de un ítem en una sucursal.
type AddItemToBranchInput struct {
	ItemID          string
	BranchID        string
	InitialQuantity decimal.Decimal
	Thresholds      entity.StockThresholds
	SupplierID      string
	Notes           string
}

// UpdateThresholdsInput umbrales informativos y proveedor preferido.
type UpdateThresholdsInput struct {
	Thresholds entity.StockThresholds
	SupplierID string
}

// ValidateThresholds umbrales no negativos y min <= max cuando max está definido.
func ValidateThresholds(t entity.StockThresholds) error {
	if t.MinStockLevel.IsNegative() || t.MaxStockLevel.IsNegative() || t.ReorderLevel.IsNegative() {
		return domain.Invalid("los umbrales de stock no pueden ser negativos")
	}
	if t.MaxStockLevel.IsPositive() && t.MinStockLevel.GreaterThan(t.MaxStockLevel) {
		return domain.Invalid("min_stock_level no puede superar max_stock_level")
	}
	return nil
}

func newRow(companyID, itemID, branchID string, t entity.StockThresholds, supplierID string) *entity.BranchInventory {
	now := time.Now()
	return &entity.BranchInventory{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		ItemID:        itemID,
		BranchID:      branchID,
		StockQuantity: decimal.Zero,
		MinStockLevel: t.MinStockLevel,
		MaxStockLevel: t.MaxStockLevel,
		ReorderLevel:  t.ReorderLevel,
		SupplierID:    supplierID,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AddItemToBranch crea la fila de stock del par ítem+sucursal. Si ya existe (activa o no) devuelve
// ErrDuplicate. Con InitialQuantity > 0 registra un OPENING_STOCK en la misma transacción.
func (l *Ledger) AddItemToBranch(ctx context.Context, caller entity.Caller, in AddItemToBranchInput) (*entity.BranchInventory, error) {
	const op = "add_item_to_branch"
	if in.ItemID == "" || in.BranchID == "" {
		return nil, l.observe(op, nil, domain.Invalid("item_id y branch_id son obligatorios"))
	}
	if in.InitialQuantity.IsNegative() {
		return nil, l.observe(op, nil, domain.InvalidDelta("branch_inventory", "", in.InitialQuantity, "la cantidad inicial no puede ser negativa"))
	}
	if err := ValidateThresholds(in.Thresholds); err != nil {
		return nil, l.observe(op, nil, err)
	}

	var (
		row     *entity.BranchInventory
		opening []*entity.StockMovement
	)
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		item, err := repos.Items.GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if item.CompanyID != caller.CompanyID {
			return domain.NotFound("item", in.ItemID)
		}
		if !item.IsActive {
			return domain.Inactive("item", in.ItemID)
		}
		branch, err := repos.Branches.GetByID(ctx, in.BranchID)
		if err != nil {
			return err
		}
		if branch.CompanyID != caller.CompanyID {
			return domain.NotFound("branch", in.BranchID)
		}
		if _, err := repos.Stock.GetByItemAndBranch(ctx, in.ItemID, in.BranchID); err == nil {
			return domain.Duplicate("branch_inventory", "el ítem ya está registrado en la sucursal")
		} else if !domain.IsNotFound(err) {
			return err
		}

		row = newRow(caller.CompanyID, in.ItemID, in.BranchID, in.Thresholds, in.SupplierID)
		if err := repos.Stock.Create(ctx, row); err != nil {
			return err
		}
		if !in.InitialQuantity.IsPositive() {
			return nil
		}
		p, err := l.post(ctx, repos, movementRequest{
			operation:         op,
			branchInventoryID: row.ID,
			movementType:      inventory.MovementOpeningStock,
			delta:             in.InitialQuantity,
			policy:            inventory.Strict,
			referenceType:     inventory.ReferenceOpening,
			referenceID:       row.ID,
			notes:             in.Notes,
			caller:            caller,
		})
		if err != nil {
			return err
		}
		row = p.row
		opening = append(opening, p.movement)
		return nil
	})
	if err != nil {
		return nil, l.observe(op, nil, err)
	}
	return row, l.observe(op, opening, nil)
}

// SetActive activa o desactiva una fila de stock. La cantidad no cambia.
func (l *Ledger) SetActive(ctx context.Context, caller entity.Caller, id string, active bool) (*entity.BranchInventory, error) {
	var row *entity.BranchInventory
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		if row, err = repos.Stock.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if row.CompanyID != caller.CompanyID {
			return domain.NotFound("branch_inventory", id)
		}
		row.IsActive = active
		return repos.Stock.SetActive(ctx, id, active)
	})
	if err != nil {
		return nil, l.observe("set_active", nil, err)
	}
	return row, nil
}

// UpdateThresholds cambia umbrales y proveedor preferido; nunca toca la cantidad.
func (l *Ledger) UpdateThresholds(ctx context.Context, caller entity.Caller, id string, in UpdateThresholdsInput) (*entity.BranchInventory, error) {
	if err := ValidateThresholds(in.Thresholds); err != nil {
		return nil, l.observe("update_thresholds", nil, err)
	}
	var row *entity.BranchInventory
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		if row, err = repos.Stock.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if row.CompanyID != caller.CompanyID {
			return domain.NotFound("branch_inventory", id)
		}
		row.MinStockLevel = in.Thresholds.MinStockLevel
		row.MaxStockLevel = in.Thresholds.MaxStockLevel
		row.ReorderLevel = in.Thresholds.ReorderLevel
		row.SupplierID = in.SupplierID
		return repos.Stock.UpdateThresholds(ctx, id, in.Thresholds, in.SupplierID)
	})
	if err != nil {
		return nil, l.observe("update_thresholds", nil, err)
	}
	return row, nil
}
