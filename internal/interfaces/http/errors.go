package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

// errorKind status y código de respuesta para cada error de la taxonomía.
type errorKind struct {
	kind   error
	status int
	code   string
}

var errorKinds = []errorKind{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidDelta, fiber.StatusBadRequest, "INVALID_DELTA"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrOverReceipt, fiber.StatusUnprocessableEntity, "OVER_RECEIPT"},
	{domain.ErrExceedsReceived, fiber.StatusUnprocessableEntity, "EXCEEDS_RECEIVED"},
	{domain.ErrExceedsInvoiced, fiber.StatusUnprocessableEntity, "EXCEEDS_INVOICED"},
	{domain.ErrExceedsRefundable, fiber.StatusUnprocessableEntity, "EXCEEDS_REFUNDABLE"},
	{domain.ErrInvalidStateTransition, fiber.StatusConflict, "INVALID_STATE_TRANSITION"},
	{domain.ErrInactive, fiber.StatusConflict, "INACTIVE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// ErrorWriter traduce errores de dominio a respuestas JSON. Los 5xx se registran con el logger.
type ErrorWriter struct {
	log *logger.Logger
}

func NewErrorWriter(log *logger.Logger) *ErrorWriter {
	if log == nil {
		log = logger.Nop()
	}
	return &ErrorWriter{log: log}
}

// Write responde con el status del tipo de error y el contexto de StockError en details.
func (w *ErrorWriter) Write(c *fiber.Ctx, err error) error {
	var details map[string]string
	var se *domain.StockError
	if errors.As(err, &se) {
		details = se.Details()
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return c.Status(k.status).JSON(dto.ErrorResponse{Code: k.code, Message: err.Error(), Details: details})
		}
	}
	w.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// newValidator usa los nombres de los tags json en los errores de validación.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})
	return v
}

// bind parsea el body y lo valida. Devuelve false si ya respondió con 400.
func bind(c *fiber.Ctx, v *validator.Validate, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return validate(c, v, out)
}

func validate(c *fiber.Ctx, v *validator.Validate, in any) (bool, error) {
	err := v.Struct(in)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = validationMessage(fe)
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code: "VALIDATION", Message: "datos de entrada inválidos", Details: details,
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "min":
		return "mínimo " + fe.Param()
	case "max":
		return "máximo " + fe.Param()
	case "nefield":
		return "debe ser distinto de " + fe.Param()
	}
	return "inválido (" + fe.Tag() + ")"
}
