package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los SELECT FOR UPDATE hechos por fn se liberan al terminar.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos arma todos los repositorios sobre el mismo Querier (pool para lecturas, tx dentro de Run).
func NewRepos(q Querier) repository.TxRepos {
	return repository.TxRepos{
		Items:           NewItemRepository(q),
		Branches:        NewBranchRepository(q),
		Stock:           NewBranchInventoryRepository(q),
		Movements:       NewStockMovementRepository(q),
		PurchaseOrders:  NewPurchaseOrderRepository(q),
		PurchaseReturns: NewPurchaseReturnRepository(q),
		SalesReturns:    NewSalesReturnRepository(q),
		Invoices:        NewInvoiceRepository(q),
		Refunds:         NewRefundRepository(q),
	}
}
