package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/application/purchasing"
)

// PurchaseOrderHandler órdenes de compra y su recepción.
type PurchaseOrderHandler struct {
	svc  *purchasing.Service
	v    *validator.Validate
	errs *ErrorWriter
}

func NewPurchaseOrderHandler(svc *purchasing.Service, v *validator.Validate, errs *ErrorWriter) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{svc: svc, v: v, errs: errs}
}

// Create godoc
// @Summary      Crear orden de compra
// @Description  La orden queda en DRAFT. order_number se genera si viene vacío.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Orden"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	orderDate := time.Now()
	if in.OrderDate != nil {
		orderDate = *in.OrderDate
	}
	lines := make([]purchasing.OrderLineInput, 0, len(in.Items))
	for _, l := range in.Items {
		lines = append(lines, purchasing.OrderLineInput{ItemID: l.ItemID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	po, err := h.svc.CreateOrder(c.UserContext(), callerFrom(c), purchasing.CreateOrderInput{
		BranchID:     in.BranchID,
		SupplierID:   in.SupplierID,
		OrderNumber:  in.OrderNumber,
		OrderDate:    orderDate,
		ExpectedDate: in.ExpectedDate,
		Notes:        in.Notes,
		Lines:        lines,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToPurchaseOrderResponse(po))
}

// GetByID godoc
// @Summary      Obtener orden de compra con sus líneas
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetByID(c *fiber.Ctx) error {
	po, err := h.svc.GetOrder(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToPurchaseOrderResponse(po))
}

// Submit godoc
// @Summary      Enviar orden al proveedor (DRAFT -> PENDING)
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/submit [post]
func (h *PurchaseOrderHandler) Submit(c *fiber.Ctx) error {
	po, err := h.svc.SubmitOrder(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToPurchaseOrderResponse(po))
}

// Cancel godoc
// @Summary      Cancelar orden sin recepciones
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *fiber.Ctx) error {
	po, err := h.svc.CancelOrder(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToPurchaseOrderResponse(po))
}

// Complete godoc
// @Summary      Cerrar una orden parcialmente recibida
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/complete [post]
func (h *PurchaseOrderHandler) Complete(c *fiber.Ctx) error {
	po, err := h.svc.CompleteOrder(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToPurchaseOrderResponse(po))
}

// Receive godoc
// @Summary      Registrar recepción de mercancía
// @Description  Todo o nada: si una línea supera lo ordenado no se aplica ninguna.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.ReceiveItemsRequest  true  "Líneas recibidas"
// @Success      201   {object}  dto.ReceiveItemsResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receipts [post]
func (h *PurchaseOrderHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveItemsRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	lines := make([]purchasing.ReceiptLine, 0, len(in.Items))
	for _, l := range in.Items {
		lines = append(lines, purchasing.ReceiptLine{ItemID: l.ItemID, ReceivedQty: l.ReceivedQty, UnitPrice: l.UnitPrice})
	}
	res, err := h.svc.ReceiveItems(c.UserContext(), callerFrom(c), c.Params("id"), purchasing.ReceiveItemsInput{
		Lines:        lines,
		DeliveryDate: in.DeliveryDate,
		Notes:        in.Notes,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceiveItemsResponse{
		Order:     dto.ToPurchaseOrderResponse(res.Order),
		Movements: dto.ToStockMovementResponses(res.Movements),
	})
}
