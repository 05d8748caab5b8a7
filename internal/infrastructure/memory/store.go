package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
)

// Store almacenamiento en memoria con la misma semántica transaccional que el adaptador
// de PostgreSQL: cada Run trabaja sobre una capa de escrituras propia que se publica al
// confirmar, y GetForUpdate toma un bloqueo por fila que se libera al terminar la transacción.
type Store struct {
	mu    sync.RWMutex // protege las tablas confirmadas
	lockM sync.Mutex   // protege locks
	locks map[string]*rowLock

	items           *table[entity.Item]
	branches        *table[entity.Branch]
	stock           *table[entity.BranchInventory]
	movements       *table[entity.StockMovement]
	purchaseOrders  *table[entity.PurchaseOrder]
	poItems         *table[entity.PurchaseOrderItem]
	purchaseReturns *table[entity.PurchaseItemReturn]
	salesReturns    *table[entity.SalesReturn]
	invoices        *table[entity.Invoice]
	refunds         *table[entity.RefundTransaction]
}

type rowLock struct {
	owner    *tx
	released chan struct{}
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		locks:           map[string]*rowLock{},
		items:           newTable("item", itemKey),
		branches:        newTable[entity.Branch]("branch", nil),
		stock:           newTable("branch_inventory", stockKey),
		movements:       newTable[entity.StockMovement]("stock_movement", nil),
		purchaseOrders:  newTable("purchase_order", orderNumberKey),
		poItems:         newTable[entity.PurchaseOrderItem]("purchase_order_item", nil),
		purchaseReturns: newTable[entity.PurchaseItemReturn]("purchase_return", nil),
		salesReturns:    newTable("sales_return", returnNumberKey).withClone(cloneSalesReturn),
		invoices:        newTable[entity.Invoice]("invoice", nil).withClone(cloneInvoice),
		refunds:         newTable[entity.RefundTransaction]("refund_transaction", nil),
	}
}

// Claves de unicidad (equivalentes a los UNIQUE de la migración). "" = sin restricción.
func itemKey(i entity.Item) string { return i.CompanyID + "|" + i.ItemCode }

func stockKey(b entity.BranchInventory) string { return b.ItemID + "|" + b.BranchID }

func orderNumberKey(p entity.PurchaseOrder) string {
	if p.OrderNumber == "" {
		return ""
	}
	return p.CompanyID + "|" + p.OrderNumber
}

func returnNumberKey(r entity.SalesReturn) string {
	if r.ReturnNumber == "" {
		return ""
	}
	return r.CompanyID + "|" + r.ReturnNumber
}

// tx capa de escrituras de una transacción y los bloqueos que tiene tomados.
type tx struct {
	s    *Store
	auto bool // sin transacción: cada escritura se confirma al instante
	held []string

	items           *view[entity.Item]
	branches        *view[entity.Branch]
	stock           *view[entity.BranchInventory]
	movements       *view[entity.StockMovement]
	purchaseOrders  *view[entity.PurchaseOrder]
	poItems         *view[entity.PurchaseOrderItem]
	purchaseReturns *view[entity.PurchaseItemReturn]
	salesReturns    *view[entity.SalesReturn]
	invoices        *view[entity.Invoice]
	refunds         *view[entity.RefundTransaction]
}

func (s *Store) begin(auto bool) *tx {
	t := &tx{s: s, auto: auto}
	t.items = newView(t, s.items)
	t.branches = newView(t, s.branches)
	t.stock = newView(t, s.stock)
	t.movements = newView(t, s.movements)
	t.purchaseOrders = newView(t, s.purchaseOrders)
	t.poItems = newView(t, s.poItems)
	t.purchaseReturns = newView(t, s.purchaseReturns)
	t.salesReturns = newView(t, s.salesReturns)
	t.invoices = newView(t, s.invoices)
	t.refunds = newView(t, s.refunds)
	return t
}

func (t *tx) views() []committer {
	return []committer{
		t.items, t.branches, t.stock, t.movements, t.purchaseOrders,
		t.poItems, t.purchaseReturns, t.salesReturns, t.invoices, t.refunds,
	}
}

// commit verifica unicidad contra lo confirmado y publica las escrituras de forma atómica.
func (t *tx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, v := range t.views() {
		if err := v.checkUnique(); err != nil {
			return err
		}
	}
	for _, v := range t.views() {
		v.apply()
	}
	return nil
}

func (t *tx) repos() repository.TxRepos {
	return repository.TxRepos{
		Items:           &itemRepo{t},
		Branches:        &branchRepo{t},
		Stock:           &stockRepo{t},
		Movements:       &movementRepo{t},
		PurchaseOrders:  &purchaseOrderRepo{t},
		PurchaseReturns: &purchaseReturnRepo{t},
		SalesReturns:    &salesReturnRepo{t},
		Invoices:        &invoiceRepo{t},
		Refunds:         &refundRepo{t},
	}
}

// lock toma el bloqueo de la fila key para esta transacción, esperando si otra lo tiene.
// Es reentrante dentro de la misma transacción. En modo auto no bloquea (lectura sin tx).
func (t *tx) lock(ctx context.Context, key string) error {
	if t.auto {
		return nil
	}
	for {
		t.s.lockM.Lock()
		l, ok := t.s.locks[key]
		if !ok {
			t.s.locks[key] = &rowLock{owner: t, released: make(chan struct{})}
			t.held = append(t.held, key)
			t.s.lockM.Unlock()
			return nil
		}
		if l.owner == t {
			t.s.lockM.Unlock()
			return nil
		}
		ch := l.released
		t.s.lockM.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t *tx) release() {
	t.s.lockM.Lock()
	defer t.s.lockM.Unlock()
	for _, key := range t.held {
		if l, ok := t.s.locks[key]; ok && l.owner == t {
			close(l.released)
			delete(t.s.locks, key)
		}
	}
	t.held = nil
}

// Run implementa ports.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.begin(false)
	defer t.release()
	if err := fn(t.repos()); err != nil {
		return err
	}
	return t.commit()
}

// Repos repositorios fuera de transacción: las lecturas ven lo confirmado y cada escritura se confirma sola.
func (s *Store) Repos() repository.TxRepos {
	return s.begin(true).repos()
}

// SeedBranch registra una sucursal (las sucursales se administran fuera de este servicio).
func (s *Store) SeedBranch(b entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches.put(b.ID, b)
}

// SeedInvoice registra una factura del punto de venta.
func (s *Store) SeedInvoice(inv entity.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices.put(inv.ID, inv)
}
