package purchasing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledger "github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/application/purchasing"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/internal/infrastructure/memory"
)

var caller = entity.Caller{UserID: "u1", CompanyID: "c1", Role: entity.RoleManager}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	repos  repository.TxRepos
	ledger *ledger.Ledger
	svc    *purchasing.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	store.SeedBranch(entity.Branch{ID: "b1", CompanyID: "c1", Name: "Centro", IsActive: true})
	repos := store.Repos()
	for _, id := range []string{"screen", "battery"} {
		require.NoError(t, repos.Items.Create(context.Background(), &entity.Item{
			ID: id, CompanyID: "c1", ItemCode: id, ItemName: id, Unit: "pcs", IsActive: true,
		}))
	}
	l := ledger.NewLedger(store, repos, ports.NoopMetrics{}, nil, ledger.Config{})
	return &fixture{repos: repos, ledger: l, svc: purchasing.NewService(store, repos, l, nil)}
}

// pendingOrder crea y envía una orden de 10 pantallas a 80 y 5 baterías a 30.
func (f *fixture) pendingOrder(t *testing.T) *entity.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	po, err := f.svc.CreateOrder(ctx, caller, purchasing.CreateOrderInput{
		BranchID: "b1", SupplierID: "sup-1",
		Lines: []purchasing.OrderLineInput{
			{ItemID: "screen", Quantity: d("10"), UnitPrice: d("80")},
			{ItemID: "battery", Quantity: d("5"), UnitPrice: d("30")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.PODraft, po.Status)
	assert.True(t, po.TotalAmount.Equal(d("950")))

	po, err = f.svc.SubmitOrder(ctx, caller, po.ID)
	require.NoError(t, err)
	require.Equal(t, inventory.POPending, po.Status)
	return po
}

func (f *fixture) stock(t *testing.T, itemID string) decimal.Decimal {
	t.Helper()
	row, err := f.repos.Stock.GetByItemAndBranch(context.Background(), itemID, "b1")
	if domain.IsNotFound(err) {
		return decimal.Zero
	}
	require.NoError(t, err)
	return row.StockQuantity
}

func lines(pairs ...string) []purchasing.ReceiptLine {
	out := make([]purchasing.ReceiptLine, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, purchasing.ReceiptLine{ItemID: pairs[i], ReceivedQty: d(pairs[i+1])})
	}
	return out
}

func TestCreateOrder_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		name string
		in   purchasing.CreateOrderInput
		want error
	}{
		{"sin líneas", purchasing.CreateOrderInput{BranchID: "b1", SupplierID: "s"}, domain.ErrInvalidInput},
		{"sin proveedor", purchasing.CreateOrderInput{BranchID: "b1",
			Lines: []purchasing.OrderLineInput{{ItemID: "screen", Quantity: d("1")}}}, domain.ErrInvalidInput},
		{"cantidad cero", purchasing.CreateOrderInput{BranchID: "b1", SupplierID: "s",
			Lines: []purchasing.OrderLineInput{{ItemID: "screen", Quantity: d("0")}}}, domain.ErrInvalidDelta},
		{"ítem repetido", purchasing.CreateOrderInput{BranchID: "b1", SupplierID: "s",
			Lines: []purchasing.OrderLineInput{{ItemID: "screen", Quantity: d("1")}, {ItemID: "screen", Quantity: d("2")}}}, domain.ErrInvalidInput},
		{"ítem inexistente", purchasing.CreateOrderInput{BranchID: "b1", SupplierID: "s",
			Lines: []purchasing.OrderLineInput{{ItemID: "nope", Quantity: d("1")}}}, domain.ErrNotFound},
		{"sucursal inexistente", purchasing.CreateOrderInput{BranchID: "zz", SupplierID: "s",
			Lines: []purchasing.OrderLineInput{{ItemID: "screen", Quantity: d("1")}}}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, caller, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOrderTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po := f.pendingOrder(t)

	_, err := f.svc.CompleteOrder(ctx, caller, po.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.ReceiveItems(ctx, caller, po.ID, purchasing.ReceiveItemsInput{Lines: lines("screen", "1")})
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, caller, po.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "PARTIALLY_RECEIVED no se cancela")

	other := f.pendingOrder(t)
	got, err := f.svc.CancelOrder(ctx, caller, other.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.POCancelled, got.Status)
	_, err = f.svc.ReceiveItems(ctx, caller, other.ID, purchasing.ReceiveItemsInput{Lines: lines("screen", "1")})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestReceiveItems_PartialThenFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po := f.pendingOrder(t)

	res, err := f.svc.ReceiveItems(ctx, caller, po.ID, purchasing.ReceiveItemsInput{Lines: lines("screen", "6")})
	require.NoError(t, err)
	assert.Equal(t, inventory.POPartiallyReceived, res.Order.Status)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, inventory.MovementPurchase, res.Movements[0].MovementType)
	assert.Equal(t, inventory.ReferencePurchaseOrder, res.Movements[0].ReferenceType)
	assert.Equal(t, po.ID, res.Movements[0].ReferenceID)
	assert.True(t, f.stock(t, "screen").Equal(d("6")))

	// excede lo ordenado: 6 + 5 > 10
	_, err = f.svc.ReceiveItems(ctx, caller, po.ID, purchasing.ReceiveItemsInput{Lines: lines("screen", "5")})
	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.ErrOverReceipt, se.Kind)
	assert.True(t, se.Current.Equal(d("6")))
	assert.True(t, se.Limit.Equal(d("10")))
	assert.True(t, f.stock(t, "screen").Equal(d("6")))

	price := d("78.50")
	res, err = f.svc.ReceiveItems(ctx, caller, po.ID, purchasing.ReceiveItemsInput{Lines: []purchasing.ReceiptLine{
		{ItemID: "screen", ReceivedQty: d("4"), UnitPrice: &price},
		{ItemID: "battery", ReceivedQty: d("5")},
	}})
	require.NoError(t, err)
	assert.Equal(t, inventory.POReceived, res.Order.Status)
	assert.True(t, f.stock(t, "screen").Equal(d("10")))
	assert.True(t, f.stock(t, "battery").Equal(d("5")))

	row, err := f.repos.Stock.GetByItemAndBranch(ctx, "screen", "b1")
	require.NoError(t, err)
	require.NotNil(t, row.LastPurchasePrice)
	assert.True(t, row.LastPurchasePrice.Equal(price))
	assert.Equal(t, "sup-1", row.SupplierID)

	done, err := f.svc.CompleteOrder(ctx, caller, po.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.POCompleted, done.Status)
}

func TestReceiveItems_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po := f.pendingOrder(t)

	// la batería es válida pero la pantalla excede: no se aplica ninguna
	_, err := f.svc.ReceiveItems(ctx, caller, po.ID, purchasing.ReceiveItemsInput{Lines: lines("battery", "5", "screen", "11")})
	assert.ErrorIs(t, err, domain.ErrOverReceipt)
	assert.True(t, f.stock(t, "battery").IsZero())

	got, err := f.svc.GetOrder(ctx, caller, po.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.POPending, got.Status)
	for _, l := range got.Items {
		assert.True(t, l.ReceivedQty.IsZero())
	}

	// líneas repetidas del mismo ítem se suman antes de validar
	_, err = f.svc.ReceiveItems(ctx, caller, po.ID, purchasing.ReceiveItemsInput{Lines: lines("screen", "6", "screen", "6")})
	assert.ErrorIs(t, err, domain.ErrOverReceipt)

	_, err = f.svc.ReceiveItems(ctx, caller, po.ID, purchasing.ReceiveItemsInput{Lines: lines("charger", "1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.ReceiveItems(ctx, caller, po.ID, purchasing.ReceiveItemsInput{Lines: lines("screen", "-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidDelta)
}

func receivedScreens(t *testing.T, f *fixture) (*entity.PurchaseOrder, entity.PurchaseOrderItem) {
	t.Helper()
	po := f.pendingOrder(t)
	res, err := f.svc.ReceiveItems(context.Background(), caller, po.ID, purchasing.ReceiveItemsInput{Lines: lines("screen", "10")})
	require.NoError(t, err)
	for _, l := range res.Order.Items {
		if l.ItemID == "screen" {
			return res.Order, l
		}
	}
	t.Fatal("línea de pantallas no encontrada")
	return nil, entity.PurchaseOrderItem{}
}

func TestPurchaseReturn_ConfirmAndRefund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po, line := receivedScreens(t, f)

	_, err := f.svc.CreatePurchaseReturn(ctx, caller, purchasing.CreatePurchaseReturnInput{
		PurchaseOrderID: po.ID, PurchaseOrderItemID: line.ID, ReturnQty: d("11"),
		ReturnReason: "defectuosas", ReturnType: inventory.ReturnRefund,
	})
	assert.ErrorIs(t, err, domain.ErrExceedsReceived)

	ret, err := f.svc.CreatePurchaseReturn(ctx, caller, purchasing.CreatePurchaseReturnInput{
		PurchaseOrderID: po.ID, PurchaseOrderItemID: line.ID, ReturnQty: d("2"),
		ReturnReason: "defectuosas", ReturnType: inventory.ReturnRefund,
	})
	require.NoError(t, err)
	assert.Equal(t, inventory.ReturnPending, ret.ReturnStatus)
	assert.True(t, ret.RefundAmount.Equal(d("160")))
	assert.True(t, f.stock(t, "screen").Equal(d("10")), "crear no toca el stock")

	_, err = f.svc.ProcessPurchaseRefund(ctx, caller, ret.ID, purchasing.RefundInput{Amount: d("10")})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition, "sin confirmar no hay reembolso")
	var pending *domain.StockError
	require.True(t, errors.As(err, &pending))
	assert.Equal(t, string(inventory.ReturnPending), pending.From)
	assert.Equal(t, string(inventory.ReturnConfirmed), pending.To)

	ret, err = f.svc.ConfirmPurchaseReturn(ctx, caller, ret.ID, purchasing.ConfirmPurchaseReturnInput{})
	require.NoError(t, err)
	assert.Equal(t, inventory.ReturnConfirmed, ret.ReturnStatus)
	assert.True(t, ret.StockDeducted)
	assert.True(t, f.stock(t, "screen").Equal(d("8")))

	again, err := f.svc.ConfirmPurchaseReturn(ctx, caller, ret.ID, purchasing.ConfirmPurchaseReturnInput{})
	require.NoError(t, err)
	assert.True(t, again.StockDeducted)
	assert.True(t, f.stock(t, "screen").Equal(d("8")), "confirmar dos veces descuenta una sola vez")

	movs, err := f.repos.Movements.ListByReference(ctx, inventory.ReferencePurchaseReturn, ret.ID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Quantity.Equal(d("-2")))

	_, err = f.svc.RejectPurchaseReturn(ctx, caller, ret.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.ProcessPurchaseRefund(ctx, caller, ret.ID, purchasing.RefundInput{Amount: d("100"), PaymentMethod: "transfer"})
	require.NoError(t, err)
	_, err = f.svc.ProcessPurchaseRefund(ctx, caller, ret.ID, purchasing.RefundInput{Amount: d("61")})
	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.ErrExceedsRefundable, se.Kind)
	assert.True(t, se.Limit.Equal(d("60")))
	_, err = f.svc.ProcessPurchaseRefund(ctx, caller, ret.ID, purchasing.RefundInput{Amount: d("60")})
	require.NoError(t, err)

	refunds, err := f.svc.ListPurchaseRefunds(ctx, caller, ret.ID)
	require.NoError(t, err)
	assert.Len(t, refunds, 2)
	assert.True(t, f.stock(t, "screen").Equal(d("8")), "los reembolsos no mueven stock")

	// solo queda por devolver lo recibido menos lo ya devuelto
	_, err = f.svc.CreatePurchaseReturn(ctx, caller, purchasing.CreatePurchaseReturnInput{
		PurchaseOrderID: po.ID, PurchaseOrderItemID: line.ID, ReturnQty: d("9"),
		ReturnReason: "otra", ReturnType: inventory.ReturnReplacement,
	})
	assert.ErrorIs(t, err, domain.ErrExceedsReceived)
}

func TestPurchaseReturn_ConfirmFailsWithoutStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	po, line := receivedScreens(t, f)

	ret, err := f.svc.CreatePurchaseReturn(ctx, caller, purchasing.CreatePurchaseReturnInput{
		PurchaseOrderID: po.ID, PurchaseOrderItemID: line.ID, ReturnQty: d("3"),
		ReturnReason: "rayadas", ReturnType: inventory.ReturnReplacement,
	})
	require.NoError(t, err)
	assert.True(t, ret.RefundAmount.IsZero())

	row, err := f.repos.Stock.GetByItemAndBranch(ctx, "screen", "b1")
	require.NoError(t, err)
	_, err = f.ledger.ConsumeForSale(ctx, caller, ledger.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("9")})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPurchaseReturn(ctx, caller, ret.ID, purchasing.ConfirmPurchaseReturnInput{})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := f.svc.GetPurchaseReturn(ctx, caller, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReturnPending, got.ReturnStatus)
	assert.False(t, got.StockDeducted)

	_, err = f.svc.ProcessPurchaseRefund(ctx, caller, ret.ID, purchasing.RefundInput{Amount: d("1")})
	assert.Error(t, err)

	rejected, err := f.svc.RejectPurchaseReturn(ctx, caller, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReturnRejected, rejected.ReturnStatus)
}
