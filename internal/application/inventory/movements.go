package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// AdjustStockInput ajuste manual (conteo físico, daño). Delta con signo; Notes obligatorio.
type AdjustStockInput struct {
	BranchInventoryID string
	Delta             decimal.Decimal
	Type              inventory.ManualMovementType
	Notes             string
	ReferenceID       string
	// AllowNegative pide dejar el stock bajo cero; solo aplica a ADJUSTMENT y si la política lo permite.
	AllowNegative bool
}

// AdjustStockResult movimiento registrado y aviso si el stock quedó negativo.
type AdjustStockResult struct {
	Movement      *entity.StockMovement
	StockQuantity decimal.Decimal
	Warning       string
}

// ConsumeInput salida de un repuesto (servicio o venta) o reingreso de un repuesto de servicio.
// Quantity es siempre positiva; el signo lo pone la operación.
type ConsumeInput struct {
	BranchInventoryID string
	Quantity          decimal.Decimal
	ReferenceID       string
	Notes             string
}

// TransferInput traslado de un ítem entre dos sucursales de la misma empresa.
type TransferInput struct {
	ItemID       string
	FromBranchID string
	ToBranchID   string
	Quantity     decimal.Decimal
	Notes        string
}

// TransferResult par de movimientos TRANSFER enlazados por TransferID.
type TransferResult struct {
	TransferID string
	Out        *entity.StockMovement
	In         *entity.StockMovement
}

// AdjustStock aplica un ajuste manual. DAMAGE exige delta negativo. Un resultado negativo
// solo se acepta con AllowNegative en ADJUSTMENT y la política habilitada; el resultado trae un aviso.
func (l *Ledger) AdjustStock(ctx context.Context, caller entity.Caller, in AdjustStockInput) (*AdjustStockResult, error) {
	const op = "adjust"
	if !in.Type.IsValid() {
		return nil, l.observe(op, nil, domain.Invalid("tipo de ajuste debe ser ADJUSTMENT o DAMAGE"))
	}
	if strings.TrimSpace(in.Notes) == "" {
		return nil, l.observe(op, nil, domain.Invalid("notes es obligatorio en ajustes manuales"))
	}
	if err := inventory.CheckDelta(in.Delta, in.Type.MovementType()); err != nil {
		return nil, l.observe(op, nil, domain.InvalidDelta("branch_inventory", in.BranchInventoryID, in.Delta, err.Error()))
	}

	policy := inventory.Strict
	if in.AllowNegative && in.Type == inventory.ManualAdjustment && l.cfg.AllowNegativeAdjustment {
		policy = inventory.AllowNegative
	}

	var p *posting
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		p, err = l.post(ctx, repos, movementRequest{
			operation:         op,
			branchInventoryID: in.BranchInventoryID,
			movementType:      in.Type.MovementType(),
			delta:             in.Delta,
			policy:            policy,
			referenceType:     inventory.ReferenceAdjustment,
			referenceID:       in.ReferenceID,
			notes:             in.Notes,
			caller:            caller,
		})
		return err
	})
	if err != nil {
		return nil, l.observe(op, nil, err)
	}
	_ = l.observe(op, []*entity.StockMovement{p.movement}, nil)

	res := &AdjustStockResult{Movement: p.movement, StockQuantity: p.outcome.NewQty}
	if p.outcome.Negative {
		res.Warning = "el stock quedó negativo: " + p.outcome.NewQty.String()
		l.metrics.NegativeAdjustment()
		l.log.Warn().
			Str("branch_inventory_id", p.row.ID).
			Str("new_qty", p.outcome.NewQty.String()).
			Str("user_id", caller.UserID).
			Msg("ajuste manual dejó stock negativo")
	}
	return res, nil
}

// ConsumeForService descuenta un repuesto usado en una reparación (SERVICE_USE, referencia SERVICE).
func (l *Ledger) ConsumeForService(ctx context.Context, caller entity.Caller, in ConsumeInput) (*entity.StockMovement, error) {
	return l.consume(ctx, "consume_service", caller, in, inventory.MovementServiceUse, inventory.ReferenceService)
}

// ConsumeForSale descuenta un ítem vendido en el punto de venta (SALE, referencia INVOICE).
func (l *Ledger) ConsumeForSale(ctx context.Context, caller entity.Caller, in ConsumeInput) (*entity.StockMovement, error) {
	return l.consume(ctx, "consume_sale", caller, in, inventory.MovementSale, inventory.ReferenceInvoice)
}

func (l *Ledger) consume(
	ctx context.Context,
	op string,
	caller entity.Caller,
	in ConsumeInput,
	t inventory.MovementType,
	ref inventory.ReferenceType,
) (*entity.StockMovement, error) {
	if !in.Quantity.IsPositive() {
		return nil, l.observe(op, nil, domain.InvalidDelta("branch_inventory", in.BranchInventoryID, in.Quantity, "la cantidad debe ser positiva"))
	}
	var p *posting
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		p, err = l.post(ctx, repos, movementRequest{
			operation:         op,
			branchInventoryID: in.BranchInventoryID,
			movementType:      t,
			delta:             in.Quantity.Neg(),
			policy:            inventory.Strict,
			referenceType:     ref,
			referenceID:       in.ReferenceID,
			notes:             in.Notes,
			caller:            caller,
			requireActive:     true,
		})
		return err
	})
	if err != nil {
		return nil, l.observe(op, nil, err)
	}
	return p.movement, l.observe(op, []*entity.StockMovement{p.movement}, nil)
}

// ReturnServicePart reingresa un repuesto que no se usó en la reparación (RETURN positivo, referencia SERVICE).
func (l *Ledger) ReturnServicePart(ctx context.Context, caller entity.Caller, in ConsumeInput) (*entity.StockMovement, error) {
	const op = "service_return"
	if !in.Quantity.IsPositive() {
		return nil, l.observe(op, nil, domain.InvalidDelta("branch_inventory", in.BranchInventoryID, in.Quantity, "la cantidad debe ser positiva"))
	}
	var p *posting
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		p, err = l.post(ctx, repos, movementRequest{
			operation:         op,
			branchInventoryID: in.BranchInventoryID,
			movementType:      inventory.MovementReturn,
			delta:             in.Quantity,
			policy:            inventory.Strict,
			referenceType:     inventory.ReferenceService,
			referenceID:       in.ReferenceID,
			notes:             in.Notes,
			caller:            caller,
		})
		return err
	})
	if err != nil {
		return nil, l.observe(op, nil, err)
	}
	return p.movement, l.observe(op, []*entity.StockMovement{p.movement}, nil)
}

// Transfer mueve cantidad de un ítem entre dos sucursales: TRANSFER negativo en origen y positivo
// en destino, en una sola transacción. Si el destino no tiene fila se crea. Las filas se bloquean
// en orden ascendente de id para que dos traslados cruzados no se bloqueen mutuamente.
func (l *Ledger) Transfer(ctx context.Context, caller entity.Caller, in TransferInput) (*TransferResult, error) {
	const op = "transfer"
	switch {
	case in.ItemID == "" || in.FromBranchID == "" || in.ToBranchID == "":
		return nil, l.observe(op, nil, domain.Invalid("item_id, from_branch_id y to_branch_id son obligatorios"))
	case in.FromBranchID == in.ToBranchID:
		return nil, l.observe(op, nil, domain.Invalid("origen y destino deben ser sucursales distintas"))
	case !in.Quantity.IsPositive():
		return nil, l.observe(op, nil, domain.InvalidDelta("transfer", in.ItemID, in.Quantity, "la cantidad debe ser positiva"))
	}

	res := &TransferResult{TransferID: uuid.New().String()}
	err := l.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		for _, id := range []string{in.FromBranchID, in.ToBranchID} {
			b, err := repos.Branches.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if b.CompanyID != caller.CompanyID {
				return domain.NotFound("branch", id)
			}
			if !b.IsActive {
				return domain.Inactive("branch", id)
			}
		}
		src, err := repos.Stock.GetByItemAndBranch(ctx, in.ItemID, in.FromBranchID)
		if err != nil {
			return err
		}
		dst, err := repos.Stock.GetByItemAndBranch(ctx, in.ItemID, in.ToBranchID)
		switch {
		case err == nil:
		case domain.IsNotFound(err):
			dst = newRow(caller.CompanyID, in.ItemID, in.ToBranchID, entity.StockThresholds{}, src.SupplierID)
			if err := repos.Stock.Create(ctx, dst); err != nil {
				return err
			}
		default:
			return err
		}

		first, second := src.ID, dst.ID
		if second < first {
			first, second = second, first
		}
		for _, id := range []string{first, second} {
			row, err := repos.Stock.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !row.IsActive {
				return domain.Inactive("branch_inventory", id)
			}
		}

		base := movementRequest{
			operation:     op,
			movementType:  inventory.MovementTransfer,
			policy:        inventory.Strict,
			referenceType: inventory.ReferenceTransfer,
			referenceID:   res.TransferID,
			notes:         in.Notes,
			caller:        caller,
			requireActive: true,
		}
		outReq := base
		outReq.branchInventoryID, outReq.delta = src.ID, in.Quantity.Neg()
		outP, err := l.post(ctx, repos, outReq)
		if err != nil {
			return err
		}
		inReq := base
		inReq.branchInventoryID, inReq.delta = dst.ID, in.Quantity
		inP, err := l.post(ctx, repos, inReq)
		if err != nil {
			return err
		}
		res.Out, res.In = outP.movement, inP.movement
		return nil
	})
	if err != nil {
		return nil, l.observe(op, nil, err)
	}
	return res, l.observe(op, []*entity.StockMovement{res.Out, res.In}, nil)
}
