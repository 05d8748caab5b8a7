package repository

// TxRepos repositorios atados a una misma transacción de BD.
type TxRepos struct {
	Items           ItemRepository
	Branches        BranchRepository
	Stock           BranchInventoryRepository
	Movements       StockMovementRepository
	PurchaseOrders  PurchaseOrderRepository
	PurchaseReturns PurchaseReturnRepository
	SalesReturns    SalesReturnRepository
	Invoices        InvoiceRepository
	Refunds         RefundRepository
}
