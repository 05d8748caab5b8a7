package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-stock/internal/application/catalog"
	"github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/purchasing"
	"github.com/jhoicas/taller-stock/internal/application/salesreturn"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/pkg/jwt"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ItemUC       *catalog.ItemUseCase
	Ledger       *inventory.Ledger
	Purchasing   *purchasing.Service
	SalesReturns *salesreturn.Service
	JWTSecret    string
	JWTIssuer    string
	Log          *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	v := newValidator()
	errs := NewErrorWriter(deps.Log)

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, jwt.WithIssuer(deps.JWTIssuer), jwt.WithLeeway(30*time.Second)))

	anyRole := RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleTechnician, entity.RoleCashier)
	managers := RequireRole(entity.RoleAdmin, entity.RoleManager)
	workshop := RequireRole(entity.RoleAdmin, entity.RoleManager, entity.RoleTechnician)

	// Catálogo
	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC, v, errs)
	items.Get("/", anyRole, itemHandler.List)
	items.Get("/:id", anyRole, itemHandler.GetByID)
	items.Post("/", managers, itemHandler.Create)
	items.Put("/:id", managers, itemHandler.Update)
	items.Patch("/:id/active", managers, itemHandler.SetActive)
	items.Delete("/:id", managers, itemHandler.Delete)

	// Stock por sucursal. Las rutas fijas van antes de /:id.
	stock := api.Group("/branch-inventory")
	stockHandler := NewStockHandler(deps.Ledger, v, errs)
	stock.Get("/", anyRole, stockHandler.List)
	stock.Get("/low-stock", anyRole, stockHandler.LowStock)
	stock.Post("/", managers, stockHandler.AddItem)
	stock.Post("/transfers", managers, stockHandler.Transfer)
	stock.Get("/:id", anyRole, stockHandler.GetByID)
	stock.Get("/:id/movements", anyRole, stockHandler.Movements)
	stock.Get("/:id/reconciliation", managers, stockHandler.Reconciliation)
	stock.Patch("/:id/thresholds", managers, stockHandler.UpdateThresholds)
	stock.Patch("/:id/active", managers, stockHandler.SetActive)
	stock.Post("/:id/adjustments", managers, stockHandler.Adjust)
	// el handler restringe además por propósito (SERVICE técnicos, SALE caja)
	stock.Post("/:id/consume", anyRole, stockHandler.Consume)
	stock.Post("/:id/service-returns", workshop, stockHandler.ServiceReturn)

	// Compras
	orders := api.Group("/purchase-orders")
	orderHandler := NewPurchaseOrderHandler(deps.Purchasing, v, errs)
	orders.Post("/", managers, orderHandler.Create)
	orders.Get("/:id", anyRole, orderHandler.GetByID)
	orders.Post("/:id/submit", managers, orderHandler.Submit)
	orders.Post("/:id/cancel", managers, orderHandler.Cancel)
	orders.Post("/:id/complete", managers, orderHandler.Complete)
	orders.Post("/:id/receipts", managers, orderHandler.Receive)

	purchaseReturns := api.Group("/purchase-returns")
	purchaseReturnHandler := NewPurchaseReturnHandler(deps.Purchasing, v, errs)
	purchaseReturns.Post("/", managers, purchaseReturnHandler.Create)
	purchaseReturns.Get("/:id", managers, purchaseReturnHandler.GetByID)
	purchaseReturns.Post("/:id/confirm", managers, purchaseReturnHandler.Confirm)
	purchaseReturns.Post("/:id/reject", managers, purchaseReturnHandler.Reject)
	purchaseReturns.Post("/:id/refunds", managers, purchaseReturnHandler.Refund)
	purchaseReturns.Get("/:id/refunds", managers, purchaseReturnHandler.ListRefunds)

	// Devoluciones de clientes
	salesReturns := api.Group("/sales-returns")
	salesReturnHandler := NewSalesReturnHandler(deps.SalesReturns, v, errs)
	salesReturns.Post("/", managers, salesReturnHandler.Create)
	salesReturns.Get("/:id", managers, salesReturnHandler.GetByID)
	salesReturns.Post("/:id/confirm", managers, salesReturnHandler.Confirm)
	salesReturns.Post("/:id/reject", managers, salesReturnHandler.Reject)
	salesReturns.Post("/:id/refunds", managers, salesReturnHandler.Refund)
	salesReturns.Get("/:id/refunds", managers, salesReturnHandler.ListRefunds)
}
