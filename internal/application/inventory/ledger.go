package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

// Config políticas del ledger.
type Config struct {
	// AllowNegativeAdjustment habilita ajustes manuales (ADJUSTMENT) que dejan stock negativo
	// cuando el request lo pide explícitamente.
	AllowNegativeAdjustment bool
}

// Ledger es el único componente que modifica stock_quantity. Cada cambio bloquea la fila
// (SELECT FOR UPDATE), calcula la nueva cantidad y escribe exactamente un StockMovement
// con las instantáneas previousQty/newQty, todo en la misma transacción.
type Ledger struct {
	txRunner ports.TxRunner
	repos    repository.TxRepos
	metrics  ports.LedgerMetrics
	log      *logger.Logger
	cfg      Config
}

// NewLedger construye el ledger. repos son los repositorios fuera de transacción (solo lecturas).
func NewLedger(
	txRunner ports.TxRunner,
	repos repository.TxRepos,
	metrics ports.LedgerMetrics,
	log *logger.Logger,
	cfg Config,
) *Ledger {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{
		txRunner: txRunner,
		repos:    repos,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
	}
}

// movementRequest describe un cambio de cantidad a aplicar sobre una fila de stock.
type movementRequest struct {
	operation         string
	branchInventoryID string
	movementType      inventory.MovementType
	delta             decimal.Decimal
	policy            inventory.NegativePolicy
	referenceType     inventory.ReferenceType
	referenceID       string
	notes             string
	caller            entity.Caller
	requireActive     bool
}

// posting resultado de post.
type posting struct {
	movement *entity.StockMovement
	row      *entity.BranchInventory
	outcome  inventory.Outcome
}

// post bloquea la fila, aplica el delta y escribe la cantidad nueva y su movimiento.
// Debe llamarse dentro de txRunner.Run con los repos de esa transacción.
func (l *Ledger) post(ctx context.Context, repos repository.TxRepos, req movementRequest) (*posting, error) {
	if !req.movementType.IsValid() || !req.referenceType.IsValid() {
		return nil, domain.Invalid("tipo de movimiento o referencia inválido")
	}
	row, err := repos.Stock.GetForUpdate(ctx, req.branchInventoryID)
	if err != nil {
		return nil, err
	}
	if row.CompanyID != req.caller.CompanyID {
		return nil, domain.NotFound("branch_inventory", req.branchInventoryID)
	}
	if req.requireActive && !row.IsActive {
		return nil, domain.Inactive("branch_inventory", row.ID)
	}

	out, err := inventory.Apply(row.StockQuantity, req.delta, req.movementType, req.policy)
	switch {
	case err == nil:
	case inventory.IsBelowZero(err):
		return nil, domain.InsufficientStock(row.ID, row.ItemID, row.BranchID, req.delta, row.StockQuantity)
	case inventory.IsDeltaError(err):
		return nil, domain.InvalidDelta("branch_inventory", row.ID, req.delta, err.Error())
	default:
		return nil, err
	}

	now := time.Now()
	if err := repos.Stock.UpdateQuantity(ctx, row.ID, out.NewQty, now); err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ID:                uuid.New().String(),
		BranchInventoryID: row.ID,
		MovementType:      req.movementType,
		Quantity:          out.Delta,
		PreviousQty:       out.PreviousQty,
		NewQty:            out.NewQty,
		ReferenceType:     req.referenceType,
		ReferenceID:       req.referenceID,
		Notes:             req.notes,
		UserID:            req.caller.UserID,
		CreatedAt:         now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	row.StockQuantity = out.NewQty
	row.UpdatedAt = now

	l.log.Debug().
		Str("operation", req.operation).
		Str("branch_inventory_id", row.ID).
		Str("movement_type", req.movementType.String()).
		Str("quantity", out.Delta.String()).
		Str("new_qty", out.NewQty.String()).
		Str("user_id", req.caller.UserID).
		Msg("movimiento de stock registrado")
	return &posting{movement: mov, row: row, outcome: out}, nil
}

// observe registra métricas y log del resultado de una operación de escritura.
// Se llama después del commit/rollback para no contar movimientos que no quedaron.
func (l *Ledger) observe(operation string, movements []*entity.StockMovement, err error) error {
	if err != nil {
		reason := Reason(err)
		l.metrics.MutationRejected(operation, reason)
		if reason == "internal" {
			l.log.Error().Err(err).Str("operation", operation).Msg("fallo en operación de stock")
		} else {
			l.log.Info().Err(err).Str("operation", operation).Str("reason", reason).Msg("operación de stock rechazada")
		}
		return err
	}
	for _, m := range movements {
		l.metrics.MovementPosted(m.MovementType)
	}
	return nil
}

// Reason clasifica un error de la taxonomía en una etiqueta estable (métricas y logs).
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidDelta):
		return "invalid_delta"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrOverReceipt):
		return "over_receipt"
	case errors.Is(err, domain.ErrExceedsReceived):
		return "exceeds_received"
	case errors.Is(err, domain.ErrExceedsInvoiced):
		return "exceeds_invoiced"
	case errors.Is(err, domain.ErrExceedsRefundable):
		return "exceeds_refundable"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_state"
	case errors.Is(err, domain.ErrInactive):
		return "inactive"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}

// ownRow lee una fila de stock sin bloquear y verifica que pertenezca a la empresa del caller.
func ownRow(ctx context.Context, stock repository.BranchInventoryRepository, caller entity.Caller, id string) (*entity.BranchInventory, error) {
	row, err := stock.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.CompanyID != caller.CompanyID {
		return nil, domain.NotFound("branch_inventory", id)
	}
	return row, nil
}
