package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/catalog"
	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// ItemHandler maneja las peticiones HTTP del catálogo de ítems (protegido).
type ItemHandler struct {
	uc   *catalog.ItemUseCase
	v    *validator.Validate
	errs *ErrorWriter
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *catalog.ItemUseCase, v *validator.Validate, errs *ErrorWriter) *ItemHandler {
	return &ItemHandler{uc: uc, v: v, errs: errs}
}

// Create godoc
// @Summary      Crear ítem del catálogo
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "Datos del ítem"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), callerFrom(c), in)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener ítem por ID
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar ítems
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        search       query  string  false  "Código o nombre"
// @Param        category_id  query  string  false  "Categoría"
// @Param        active       query  bool    false  "Solo activos"
// @Param        limit        query  int     false  "Límite"   default(20)
// @Param        offset       query  int     false  "Offset"   default(0)
// @Success      200          {object}  dto.ItemListResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if ok, err := validate(c, h.v, &page); !ok {
		return err
	}
	page.DefaultPage()
	filter := repository.ItemFilter{
		Search:     c.Query("search"),
		CategoryID: c.Query("category_id"),
		OnlyActive: c.QueryBool("active", false),
	}
	out, err := h.uc.List(c.UserContext(), callerFrom(c), filter, page)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar ítem
// @Description  item_code y unit no se pueden cambiar si el ítem ya tiene stock u órdenes de compra.
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del ítem"
// @Param        body  body  dto.UpdateItemRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.ItemResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	out, err := h.uc.Update(c.UserContext(), callerFrom(c), c.Params("id"), in)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(out)
}

// SetActive godoc
// @Summary      Activar o desactivar ítem
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del ítem"
// @Param        body  body  dto.SetActiveRequest  true  "Estado"
// @Success      200   {object}  dto.ItemResponse
// @Router       /api/items/{id}/active [patch]
func (h *ItemHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetActiveRequest
	if ok, err := bind(c, h.v, &in); !ok {
		return err
	}
	out, err := h.uc.SetActive(c.UserContext(), callerFrom(c), c.Params("id"), *in.IsActive)
	if err != nil {
		return h.errs.Write(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar ítem sin referencias
// @Tags         items
// @Security     Bearer
// @Param        id   path  string  true  "ID del ítem"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), callerFrom(c), c.Params("id")); err != nil {
		return h.errs.Write(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
