package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
// Se comparan con errors.Is; los errores con contexto (StockError) envuelven uno de estos.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrInvalidDelta           = errors.New("cantidad inválida")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrOverReceipt            = errors.New("la recepción supera lo ordenado")
	ErrExceedsReceived        = errors.New("la devolución supera lo recibido")
	ErrExceedsInvoiced        = errors.New("la devolución supera lo facturado")
	ErrExceedsRefundable      = errors.New("el reembolso supera el monto de la devolución")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrInactive               = errors.New("registro inactivo")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
)

// StockError adjunta a un error de la taxonomía el contexto necesario para
// construir un mensaje preciso (ítem, sucursal, delta intentado, cantidad actual).
type StockError struct {
	Kind     error
	Entity   string
	ID       string
	ItemID   string
	BranchID string
	Delta    *decimal.Decimal
	Current  *decimal.Decimal
	Limit    *decimal.Decimal
	From     string
	To       string
	Detail   string
}

func (e *StockError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s", e.Entity)
		if e.ID != "" {
			fmt.Fprintf(&b, " %s", e.ID)
		}
	}
	if e.ItemID != "" {
		fmt.Fprintf(&b, " item=%s", e.ItemID)
	}
	if e.BranchID != "" {
		fmt.Fprintf(&b, " branch=%s", e.BranchID)
	}
	if e.Delta != nil {
		fmt.Fprintf(&b, " delta=%s", e.Delta.String())
	}
	if e.Current != nil {
		fmt.Fprintf(&b, " actual=%s", e.Current.String())
	}
	if e.Limit != nil {
		fmt.Fprintf(&b, " limite=%s", e.Limit.String())
	}
	if e.From != "" || e.To != "" {
		fmt.Fprintf(&b, " %s->%s", e.From, e.To)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	return b.String()
}

func (e *StockError) Unwrap() error { return e.Kind }

// Details devuelve el contexto como mapa plano para respuestas HTTP.
func (e *StockError) Details() map[string]string {
	d := map[string]string{}
	if e.Entity != "" {
		d["entity"] = e.Entity
	}
	if e.ID != "" {
		d["id"] = e.ID
	}
	if e.ItemID != "" {
		d["item_id"] = e.ItemID
	}
	if e.BranchID != "" {
		d["branch_id"] = e.BranchID
	}
	if e.Delta != nil {
		d["attempted_delta"] = e.Delta.String()
	}
	if e.Current != nil {
		d["current_quantity"] = e.Current.String()
	}
	if e.Limit != nil {
		d["limit"] = e.Limit.String()
	}
	if e.From != "" {
		d["from_status"] = e.From
	}
	if e.To != "" {
		d["to_status"] = e.To
	}
	if e.Detail != "" {
		d["detail"] = e.Detail
	}
	return d
}

func dec(d decimal.Decimal) *decimal.Decimal { return &d }

// NotFound construye un ErrNotFound con la entidad buscada.
func NotFound(entity, id string) error {
	return &StockError{Kind: ErrNotFound, Entity: entity, ID: id}
}

// Duplicate construye un ErrDuplicate.
func Duplicate(entity, detail string) error {
	return &StockError{Kind: ErrDuplicate, Entity: entity, Detail: detail}
}

// Invalid construye un ErrInvalidInput con el motivo.
func Invalid(detail string) error {
	return &StockError{Kind: ErrInvalidInput, Detail: detail}
}

// InvalidDelta construye un ErrInvalidDelta.
func InvalidDelta(entity, id string, delta decimal.Decimal, detail string) error {
	return &StockError{Kind: ErrInvalidDelta, Entity: entity, ID: id, Delta: dec(delta), Detail: detail}
}

// InsufficientStock construye un ErrInsufficientStock para una fila de stock.
func InsufficientStock(branchInventoryID, itemID, branchID string, delta, current decimal.Decimal) error {
	return &StockError{
		Kind: ErrInsufficientStock, Entity: "branch_inventory", ID: branchInventoryID,
		ItemID: itemID, BranchID: branchID, Delta: dec(delta), Current: dec(current),
	}
}

// OverReceipt construye un ErrOverReceipt: current = recibido acumulado, limit = ordenado.
func OverReceipt(purchaseOrderItemID, itemID string, attempted, received, ordered decimal.Decimal) error {
	return &StockError{
		Kind: ErrOverReceipt, Entity: "purchase_order_item", ID: purchaseOrderItemID,
		ItemID: itemID, Delta: dec(attempted), Current: dec(received), Limit: dec(ordered),
	}
}

// ExceedsReceived construye un ErrExceedsReceived: limit = recibido - devuelto.
func ExceedsReceived(purchaseOrderItemID, itemID string, attempted, returnable decimal.Decimal) error {
	return &StockError{
		Kind: ErrExceedsReceived, Entity: "purchase_order_item", ID: purchaseOrderItemID,
		ItemID: itemID, Delta: dec(attempted), Limit: dec(returnable),
	}
}

// ExceedsInvoiced construye un ErrExceedsInvoiced: limit = facturado - devoluciones previas.
func ExceedsInvoiced(invoiceItemID, itemID string, attempted, returnable decimal.Decimal) error {
	return &StockError{
		Kind: ErrExceedsInvoiced, Entity: "invoice_item", ID: invoiceItemID,
		ItemID: itemID, Delta: dec(attempted), Limit: dec(returnable),
	}
}

// ExceedsRefundable construye un ErrExceedsRefundable.
func ExceedsRefundable(entity, id string, attempted, refundable decimal.Decimal) error {
	return &StockError{Kind: ErrExceedsRefundable, Entity: entity, ID: id, Delta: dec(attempted), Limit: dec(refundable)}
}

// InvalidTransition construye un ErrInvalidStateTransition.
func InvalidTransition(entity, id, from, to string) error {
	return &StockError{Kind: ErrInvalidStateTransition, Entity: entity, ID: id, From: from, To: to}
}

// Inactive construye un ErrInactive.
func Inactive(entity, id string) error {
	return &StockError{Kind: ErrInactive, Entity: entity, ID: id}
}

// Conflict construye un ErrConflict con el motivo.
func Conflict(entity, id, detail string) error {
	return &StockError{Kind: ErrConflict, Entity: entity, ID: id, Detail: detail}
}

// IsNotFound atajo para errors.Is(err, ErrNotFound).
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
