package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// LowStockEntry fila en o bajo su nivel de reorden con la cantidad sugerida de pedido.
type LowStockEntry struct {
	Row                *entity.BranchInventory
	ItemCode           string
	ItemName           string
	IdealStock         decimal.Decimal // max_stock_level, o reorder_level * 1.5
	SuggestedOrderQty  decimal.Decimal // IdealStock - StockQuantity
	UnitCost           decimal.Decimal // último precio de compra, o el precio por defecto del ítem
	EstimatedOrderCost decimal.Decimal
	Priority           int // 1 = más urgente
}

// LowStock lista las filas activas bajo su punto de reorden.
// branchID puede ser vacío para considerar todas las sucursales de la empresa.
func (l *Ledger) LowStock(ctx context.Context, caller entity.Caller, branchID string) ([]LowStockEntry, error) {
	if branchID != "" {
		branch, err := l.repos.Branches.GetByID(ctx, branchID)
		if err != nil {
			return nil, err
		}
		if branch.CompanyID != caller.CompanyID {
			return nil, domain.NotFound("branch", branchID)
		}
	}

	// 1. Filas bajo el punto de reorden
	rows, err := l.repos.Stock.ListBelowReorder(ctx, caller.CompanyID, branchID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []LowStockEntry{}, nil
	}

	// 2. Datos del catálogo (un ítem puede repetirse en varias sucursales)
	items := make(map[string]*entity.Item, len(rows))
	entries := make([]LowStockEntry, 0, len(rows))
	for _, row := range rows {
		if !inventory.NeedsReorder(row.StockQuantity, row.ReorderLevel) {
			continue
		}
		item, ok := items[row.ItemID]
		if !ok {
			if item, err = l.repos.Items.GetByID(ctx, row.ItemID); err != nil {
				return nil, err
			}
			items[row.ItemID] = item
		}
		ideal, suggested := inventory.SuggestedOrderQty(row.StockQuantity, row.ReorderLevel, row.MaxStockLevel)
		unitCost := item.PurchasePrice
		if row.LastPurchasePrice != nil {
			unitCost = *row.LastPurchasePrice
		}
		entries = append(entries, LowStockEntry{
			Row:                row,
			ItemCode:           item.ItemCode,
			ItemName:           item.ItemName,
			IdealStock:         ideal,
			SuggestedOrderQty:  suggested,
			UnitCost:           unitCost,
			EstimatedOrderCost: suggested.Mul(unitCost),
		})
	}

	// 3. Ordenar: primero mayor déficit relativo al reorden, luego mayor déficit absoluto
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Row, entries[j].Row
		ra := a.StockQuantity.Div(a.ReorderLevel)
		rb := b.StockQuantity.Div(b.ReorderLevel)
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.ReorderLevel.Sub(a.StockQuantity).GreaterThan(b.ReorderLevel.Sub(b.StockQuantity))
	})

	// 4. Asignar prioridad
	for i := range entries {
		entries[i].Priority = i + 1
	}
	return entries, nil
}
