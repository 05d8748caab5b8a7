package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/application/salesreturn"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// SalesReturnHandler devoluciones de clientes contra una factura.
type SalesReturnHandler struct {
	svc  *salesreturn.Service
	v    *validator.Validate
	errs *ErrorWriter
}

func NewSalesReturnHandler(svc *salesreturn.Service, v *validator.Validate, errs *ErrorWriter) *SalesReturnHandler {
	return &SalesReturnHandler{svc: svc, v: v, errs: errs}
}

// Create godoc
// @Summary      Registrar devolución de cliente
// @Description  is_full_return devuelve todo lo pendiente de la factura; si no, items es obligatorio.
// @Tags         sales-returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSalesReturnRequest  true  "Devolución"
// @Success      201   {object}  dto.SalesReturnResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales-returns [post]
func (h *SalesReturnHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSalesReturnRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	lines := make([]salesreturn.LineInput, 0, len(in.Items))
	for _, l := range in.Items {
		lines = append(lines, salesreturn.LineInput{InvoiceItemID: l.InvoiceItemID, Quantity: l.Quantity})
	}
	r, err := h.svc.Create(c.UserContext(), callerFrom(c), salesreturn.CreateInput{
		InvoiceID:    in.InvoiceID,
		Reason:       in.Reason,
		IsFullReturn: in.IsFullReturn,
		Lines:        lines,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToSalesReturnResponse(r))
}

// GetByID godoc
// @Summary      Obtener devolución de cliente
// @Tags         sales-returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.SalesReturnResponse
// @Router       /api/sales-returns/{id} [get]
func (h *SalesReturnHandler) GetByID(c *fiber.Ctx) error {
	r, err := h.svc.Get(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToSalesReturnResponse(r))
}

// Confirm godoc
// @Summary      Confirmar devolución de cliente
// @Description  restock RESTOCK reingresa la mercancía a la sucursal de la factura; NO_RESTOCK no toca stock.
// @Tags         sales-returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la devolución"
// @Param        body  body  dto.ConfirmSalesReturnRequest  true  "Decisión de reingreso"
// @Success      200   {object}  dto.SalesReturnResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-returns/{id}/confirm [post]
func (h *SalesReturnHandler) Confirm(c *fiber.Ctx) error {
	var in dto.ConfirmSalesReturnRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	r, err := h.svc.Confirm(c.UserContext(), callerFrom(c), c.Params("id"), salesreturn.ConfirmInput{
		Restock: inventory.RestockPolicy(in.Restock),
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToSalesReturnResponse(r))
}

// Reject godoc
// @Summary      Rechazar devolución pendiente
// @Tags         sales-returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.SalesReturnResponse
// @Router       /api/sales-returns/{id}/reject [post]
func (h *SalesReturnHandler) Reject(c *fiber.Ctx) error {
	r, err := h.svc.Reject(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToSalesReturnResponse(r))
}

// Refund godoc
// @Summary      Registrar reembolso al cliente
// @Tags         sales-returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la devolución"
// @Param        body  body  dto.RefundRequest  true  "Reembolso"
// @Success      201   {object}  dto.RefundResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales-returns/{id}/refunds [post]
func (h *SalesReturnHandler) Refund(c *fiber.Ctx) error {
	var in dto.RefundRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	t, err := h.svc.ProcessRefund(c.UserContext(), callerFrom(c), c.Params("id"), salesreturn.RefundInput{
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		Notes:         in.Notes,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRefundResponse(t))
}

// ListRefunds godoc
// @Summary      Reembolsos de una devolución de cliente
// @Tags         sales-returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {array}  dto.RefundResponse
// @Router       /api/sales-returns/{id}/refunds [get]
func (h *SalesReturnHandler) ListRefunds(c *fiber.Ctx) error {
	ts, err := h.svc.ListRefunds(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	out := make([]dto.RefundResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, dto.ToRefundResponse(t))
	}
	return c.JSON(out)
}
