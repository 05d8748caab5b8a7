package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	appinventory "github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// Propósitos de consumo y los roles que pueden usarlos (además de admin y manager).
const (
	purposeService = "SERVICE"
	purposeSale    = "SALE"
)

var consumeRoles = map[string]string{
	purposeService: entity.RoleTechnician,
	purposeSale:    entity.RoleCashier,
}

// StockHandler rutas del stock por sucursal y su ledger.
type StockHandler struct {
	ledger *appinventory.Ledger
	v      *validator.Validate
	errs   *ErrorWriter
}

func NewStockHandler(ledger *appinventory.Ledger, v *validator.Validate, errs *ErrorWriter) *StockHandler {
	return &StockHandler{ledger: ledger, v: v, errs: errs}
}

// AddItem godoc
// @Summary      Dar de alta un ítem en una sucursal
// @Description  Con initial_quantity > 0 se registra un movimiento OPENING_STOCK.
// @Tags         branch-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddItemToBranchRequest  true  "Ítem y sucursal"
// @Success      201   {object}  dto.BranchInventoryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/branch-inventory [post]
func (h *StockHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemToBranchRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	row, err := h.ledger.AddItemToBranch(c.UserContext(), callerFrom(c), appinventory.AddItemToBranchInput{
		ItemID:          in.ItemID,
		BranchID:        in.BranchID,
		InitialQuantity: in.InitialQuantity,
		Thresholds: entity.StockThresholds{
			MinStockLevel: in.MinStockLevel,
			MaxStockLevel: in.MaxStockLevel,
			ReorderLevel:  in.ReorderLevel,
		},
		SupplierID: in.SupplierID,
		Notes:      in.Notes,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToBranchInventoryResponse(row))
}

// GetByID godoc
// @Summary      Obtener fila de stock
// @Tags         branch-inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la fila"
// @Success      200  {object}  dto.BranchInventoryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branch-inventory/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	row, err := h.ledger.Get(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToBranchInventoryResponse(row))
}

// List godoc
// @Summary      Stock de una sucursal
// @Tags         branch-inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  true   "Sucursal"
// @Param        item_id    query  string  false  "Ítem"
// @Param        active     query  bool    false  "Solo activos"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200        {object}  dto.BranchInventoryListResponse
// @Router       /api/branch-inventory [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	branchID := c.Query("branch_id")
	if branchID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "branch_id es requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if ok, err := validate(c, h.v, &page); !ok {
		return err
	}
	page.DefaultPage()
	filter := repository.BranchInventoryFilter{ItemID: c.Query("item_id"), OnlyActive: c.QueryBool("active", false)}
	rows, err := h.ledger.ListByBranch(c.UserContext(), callerFrom(c), branchID, filter, page.Limit, page.Offset)
	if err != nil {
		return h.errs.Write(c, err)
	}
	out := dto.BranchInventoryListResponse{
		Items: make([]dto.BranchInventoryResponse, 0, len(rows)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, r := range rows {
		out.Items = append(out.Items, dto.ToBranchInventoryResponse(r))
	}
	return c.JSON(out)
}

// UpdateThresholds godoc
// @Summary      Cambiar umbrales y proveedor preferido
// @Tags         branch-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la fila"
// @Param        body  body  dto.UpdateThresholdsRequest  true  "Umbrales"
// @Success      200   {object}  dto.BranchInventoryResponse
// @Router       /api/branch-inventory/{id}/thresholds [patch]
func (h *StockHandler) UpdateThresholds(c *fiber.Ctx) error {
	var in dto.UpdateThresholdsRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	row, err := h.ledger.UpdateThresholds(c.UserContext(), callerFrom(c), c.Params("id"), appinventory.UpdateThresholdsInput{
		Thresholds: entity.StockThresholds{
			MinStockLevel: in.MinStockLevel,
			MaxStockLevel: in.MaxStockLevel,
			ReorderLevel:  in.ReorderLevel,
		},
		SupplierID: in.SupplierID,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToBranchInventoryResponse(row))
}

// SetActive godoc
// @Summary      Activar o desactivar una fila de stock
// @Tags         branch-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la fila"
// @Param        body  body  dto.SetActiveRequest  true  "Estado"
// @Success      200   {object}  dto.BranchInventoryResponse
// @Router       /api/branch-inventory/{id}/active [patch]
func (h *StockHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetActiveRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	row, err := h.ledger.SetActive(c.UserContext(), callerFrom(c), c.Params("id"), *in.IsActive)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToBranchInventoryResponse(row))
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Description  quantity con signo. DAMAGE solo negativo. notes es obligatorio.
// @Tags         branch-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la fila"
// @Param        body  body  dto.AdjustStockRequest  true  "Ajuste"
// @Success      201   {object}  dto.AdjustStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/branch-inventory/{id}/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	res, err := h.ledger.AdjustStock(c.UserContext(), callerFrom(c), appinventory.AdjustStockInput{
		BranchInventoryID: c.Params("id"),
		Delta:             in.Quantity,
		Type:              inventory.ManualMovementType(in.Type),
		Notes:             in.Notes,
		ReferenceID:       in.ReferenceID,
		AllowNegative:     in.AllowNegative,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AdjustStockResponse{
		Movement:      dto.ToStockMovementResponse(res.Movement),
		StockQuantity: res.StockQuantity,
		Warning:       res.Warning,
	})
}

// Consume godoc
// @Summary      Consumir stock para un servicio o una venta
// @Description  purpose SERVICE (técnicos) o SALE (caja). quantity positiva.
// @Tags         branch-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la fila"
// @Param        body  body  dto.ConsumeRequest  true  "Consumo"
// @Success      201   {object}  dto.StockMovementResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/branch-inventory/{id}/consume [post]
func (h *StockHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	caller := callerFrom(c)
	if !canConsume(caller.Role, in.Purpose) {
		return h.errs.Write(c, &domain.StockError{Kind: domain.ErrForbidden, Detail: "rol " + caller.Role + " no puede consumir para " + in.Purpose})
	}
	consume := h.ledger.ConsumeForSale
	if in.Purpose == purposeService {
		consume = h.ledger.ConsumeForService
	}
	m, err := consume(c.UserContext(), caller, appinventory.ConsumeInput{
		BranchInventoryID: c.Params("id"),
		Quantity:          in.Quantity,
		ReferenceID:       in.ReferenceID,
		Notes:             in.Notes,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockMovementResponse(m))
}

func canConsume(role, purpose string) bool {
	if role == entity.RoleAdmin || role == entity.RoleManager {
		return true
	}
	return consumeRoles[purpose] == role
}

// ServiceReturn godoc
// @Summary      Reingresar un repuesto no usado en un servicio
// @Tags         branch-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la fila"
// @Param        body  body  dto.ServiceReturnRequest  true  "Reingreso"
// @Success      201   {object}  dto.StockMovementResponse
// @Router       /api/branch-inventory/{id}/service-returns [post]
func (h *StockHandler) ServiceReturn(c *fiber.Ctx) error {
	var in dto.ServiceReturnRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	m, err := h.ledger.ReturnServicePart(c.UserContext(), callerFrom(c), appinventory.ConsumeInput{
		BranchInventoryID: c.Params("id"),
		Quantity:          in.Quantity,
		ReferenceID:       in.ReferenceID,
		Notes:             in.Notes,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockMovementResponse(m))
}

// Transfer godoc
// @Summary      Trasladar stock entre sucursales
// @Tags         branch-inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Traslado"
// @Success      201   {object}  dto.TransferResponse
// @Router       /api/branch-inventory/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	res, err := h.ledger.Transfer(c.UserContext(), callerFrom(c), appinventory.TransferInput{
		ItemID:       in.ItemID,
		FromBranchID: in.FromBranchID,
		ToBranchID:   in.ToBranchID,
		Quantity:     in.Quantity,
		Notes:        in.Notes,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		TransferID: res.TransferID,
		Out:        dto.ToStockMovementResponse(res.Out),
		In:         dto.ToStockMovementResponse(res.In),
	})
}

// Movements godoc
// @Summary      Historial de movimientos de una fila
// @Tags         branch-inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la fila"
// @Param        type    query  string  false  "Tipo de movimiento"
// @Param        from    query  string  false  "Desde (RFC3339)"
// @Param        to      query  string  false  "Hasta (RFC3339)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.MovementListResponse
// @Router       /api/branch-inventory/{id}/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if ok, err := validate(c, h.v, &page); !ok {
		return err
	}
	page.DefaultPage()
	filter := repository.MovementFilter{
		Type:   inventory.MovementType(c.Query("type")),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return h.errs.Write(c, err)
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return h.errs.Write(c, err)
	}
	ms, err := h.ledger.ListMovements(c.UserContext(), callerFrom(c), c.Params("id"), filter)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: dto.ToStockMovementResponses(ms),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.Invalid(key + " debe ser RFC3339")
	}
	return &t, nil
}

// Reconciliation godoc
// @Summary      Conciliar una fila con su historial
// @Description  Compara stock_quantity con la suma de movimientos y verifica la cadena previous_qty/new_qty.
// @Tags         branch-inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la fila"
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/branch-inventory/{id}/reconciliation [get]
func (h *StockHandler) Reconciliation(c *fiber.Ctx) error {
	id := c.Params("id")
	rec, err := h.ledger.Reconcile(c.UserContext(), callerFrom(c), id)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToReconciliationResponse(id, rec))
}

// LowStock godoc
// @Summary      Filas en o bajo su punto de reorden
// @Tags         branch-inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal (vacío = toda la empresa)"
// @Success      200        {array}  dto.LowStockResponse
// @Router       /api/branch-inventory/low-stock [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	entries, err := h.ledger.LowStock(c.UserContext(), callerFrom(c), c.Query("branch_id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	out := make([]dto.LowStockResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LowStockResponse{
			BranchInventoryID:  e.Row.ID,
			BranchID:           e.Row.BranchID,
			ItemID:             e.Row.ItemID,
			ItemCode:           e.ItemCode,
			ItemName:           e.ItemName,
			CurrentStock:       e.Row.StockQuantity,
			ReorderLevel:       e.Row.ReorderLevel,
			IdealStock:         e.IdealStock,
			SuggestedOrderQty:  e.SuggestedOrderQty,
			UnitCost:           e.UnitCost,
			EstimatedOrderCost: e.EstimatedOrderCost,
			Priority:           e.Priority,
		})
	}
	return c.JSON(out)
}
