package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/application/purchasing"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
)

// PurchaseReturnHandler devoluciones a proveedor y sus reembolsos.
type PurchaseReturnHandler struct {
	svc  *purchasing.Service
	v    *validator.Validate
	errs *ErrorWriter
}

func NewPurchaseReturnHandler(svc *purchasing.Service, v *validator.Validate, errs *ErrorWriter) *PurchaseReturnHandler {
	return &PurchaseReturnHandler{svc: svc, v: v, errs: errs}
}

// Create godoc
// @Summary      Registrar devolución a proveedor
// @Description  Queda PENDING; el stock se descuenta al confirmar.
// @Tags         purchase-returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseReturnRequest  true  "Devolución"
// @Success      201   {object}  dto.PurchaseReturnResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchase-returns [post]
func (h *PurchaseReturnHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseReturnRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	r, err := h.svc.CreatePurchaseReturn(c.UserContext(), callerFrom(c), purchasing.CreatePurchaseReturnInput{
		PurchaseOrderID:     in.PurchaseOrderID,
		PurchaseOrderItemID: in.PurchaseOrderItemID,
		ReturnQty:           in.ReturnQty,
		ReturnReason:        in.ReturnReason,
		ReturnType:          inventory.ReturnType(in.ReturnType),
		RefundAmount:        in.RefundAmount,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToPurchaseReturnResponse(r))
}

// GetByID godoc
// @Summary      Obtener devolución a proveedor
// @Tags         purchase-returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.PurchaseReturnResponse
// @Router       /api/purchase-returns/{id} [get]
func (h *PurchaseReturnHandler) GetByID(c *fiber.Ctx) error {
	r, err := h.svc.GetPurchaseReturn(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToPurchaseReturnResponse(r))
}

// Confirm godoc
// @Summary      Confirmar devolución y descontar stock
// @Tags         purchase-returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la devolución"
// @Param        body  body  dto.ConfirmPurchaseReturnRequest  false  "Orden de reposición (REPLACEMENT)"
// @Success      200   {object}  dto.PurchaseReturnResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-returns/{id}/confirm [post]
func (h *PurchaseReturnHandler) Confirm(c *fiber.Ctx) error {
	var in dto.ConfirmPurchaseReturnRequest
	if len(c.Body()) > 0 {
		if ok, err := bind(c, h.v, &in); !ok {
			return err
		}
	}
	r, err := h.svc.ConfirmPurchaseReturn(c.UserContext(), callerFrom(c), c.Params("id"), purchasing.ConfirmPurchaseReturnInput{
		ReplacementPOID: in.ReplacementPOID,
	})
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToPurchaseReturnResponse(r))
}

// Reject godoc
// @Summary      Rechazar devolución pendiente
// @Tags         purchase-returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {object}  dto.PurchaseReturnResponse
// @Router       /api/purchase-returns/{id}/reject [post]
func (h *PurchaseReturnHandler) Reject(c *fiber.Ctx) error {
	r, err := h.svc.RejectPurchaseReturn(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(dto.ToPurchaseReturnResponse(r))
}

// Refund godoc
// @Summary      Registrar reembolso del proveedor
// @Tags         purchase-returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la devolución"
// @Param        body  body  dto.RefundRequest  true  "Reembolso"
// @Success      201   {object}  dto.RefundResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchase-returns/{id}/refunds [post]
func (h *PurchaseReturnHandler) Refund(c *fiber.Ctx) error {
	var in dto.RefundRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	t, err := h.svc.ProcessPurchaseRefund(c.UserContext(), callerFrom(c), c.Params("id"), purchasing.RefundInput{
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
// @Summary      Reembolsos de una devolución a proveedor
// @Tags         purchase-returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la devolución"
// @Success      200  {array}  dto.RefundResponse
// @Router       /api/purchase-returns/{id}/refunds [get]
func (h *PurchaseReturnHandler) ListRefunds(c *fiber.Ctx) error {
	ts, err := h.svc.ListPurchaseRefunds(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	out := make([]dto.RefundResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, dto.ToRefundResponse(t))
	}
	return c.JSON(out)
}
