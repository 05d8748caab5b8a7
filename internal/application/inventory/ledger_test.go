package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	dominv "github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/internal/infrastructure/memory"
)

const companyID = "c1"

var (
	manager  = entity.Caller{UserID: "u-manager", CompanyID: companyID, Role: entity.RoleManager}
	outsider = entity.Caller{UserID: "u-x", CompanyID: "c2", Role: entity.RoleAdmin}
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// recordingMetrics guarda lo que el ledger reporta.
type recordingMetrics struct {
	mu       sync.Mutex
	posted   map[dominv.MovementType]int
	rejected map[string]int
	negative int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{posted: map[dominv.MovementType]int{}, rejected: map[string]int{}}
}

func (m *recordingMetrics) MovementPosted(t dominv.MovementType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted[t]++
}

func (m *recordingMetrics) MutationRejected(op, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[op+"/"+reason]++
}

func (m *recordingMetrics) NegativeAdjustment() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.negative++
}

type fixture struct {
	store   *memory.Store
	repos   repository.TxRepos
	ledger  *inventory.Ledger
	metrics *recordingMetrics
}

func newFixture(t *testing.T, cfg inventory.Config) *fixture {
	t.Helper()
	store := memory.New()
	for _, id := range []string{"b1", "b2", "b3"} {
		store.SeedBranch(entity.Branch{ID: id, CompanyID: companyID, Name: id, IsActive: true})
	}
	store.SeedBranch(entity.Branch{ID: "closed", CompanyID: companyID, Name: "cerrada"})
	repos := store.Repos()
	m := newRecordingMetrics()
	return &fixture{
		store:   store,
		repos:   repos,
		ledger:  inventory.NewLedger(store, repos, m, nil, cfg),
		metrics: m,
	}
}

func (f *fixture) item(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.repos.Items.Create(context.Background(), &entity.Item{
		ID: id, CompanyID: companyID, ItemCode: "CODE-" + id, ItemName: "Pantalla " + id,
		Unit: "pcs", PurchasePrice: d("50"), SalesPrice: d("90"), IsActive: true,
	}))
}

func (f *fixture) row(t *testing.T, itemID, branchID, initial string) *entity.BranchInventory {
	t.Helper()
	row, err := f.ledger.AddItemToBranch(context.Background(), manager, inventory.AddItemToBranchInput{
		ItemID: itemID, BranchID: branchID, InitialQuantity: d(initial),
	})
	require.NoError(t, err)
	return row
}

func (f *fixture) qty(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	row, err := f.ledger.Get(context.Background(), manager, id)
	require.NoError(t, err)
	return row.StockQuantity
}

func (f *fixture) assertConsistent(t *testing.T, id string) {
	t.Helper()
	rec, err := f.ledger.Reconcile(context.Background(), manager, id)
	require.NoError(t, err)
	assert.True(t, rec.Consistent(), "stock=%s suma=%s cortes=%v", rec.StockQuantity, rec.MovementSum, rec.Breaks)
}

func TestAddItemToBranch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.Config{})
	f.item(t, "i1")

	row := f.row(t, "i1", "b1", "5")
	assert.True(t, row.StockQuantity.Equal(d("5")))
	assert.True(t, row.IsActive)

	movs, err := f.ledger.ListMovements(ctx, manager, row.ID, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, dominv.MovementOpeningStock, movs[0].MovementType)
	assert.Equal(t, dominv.ReferenceOpening, movs[0].ReferenceType)
	assert.True(t, movs[0].PreviousQty.IsZero())
	assert.Equal(t, 1, f.metrics.posted[dominv.MovementOpeningStock])

	t.Run("duplicado", func(t *testing.T) {
		_, err := f.ledger.AddItemToBranch(ctx, manager, inventory.AddItemToBranchInput{ItemID: "i1", BranchID: "b1"})
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("sin cantidad inicial no registra movimiento", func(t *testing.T) {
		row := f.row(t, "i1", "b2", "0")
		movs, err := f.ledger.ListMovements(ctx, manager, row.ID, repository.MovementFilter{})
		require.NoError(t, err)
		assert.Empty(t, movs)
	})

	t.Run("cantidad inicial negativa", func(t *testing.T) {
		_, err := f.ledger.AddItemToBranch(ctx, manager, inventory.AddItemToBranchInput{ItemID: "i1", BranchID: "b3", InitialQuantity: d("-1")})
		assert.ErrorIs(t, err, domain.ErrInvalidDelta)
	})

	t.Run("umbrales inválidos", func(t *testing.T) {
		_, err := f.ledger.AddItemToBranch(ctx, manager, inventory.AddItemToBranchInput{
			ItemID: "i1", BranchID: "b3",
			Thresholds: entity.StockThresholds{MinStockLevel: d("10"), MaxStockLevel: d("5")},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("otra empresa no ve el ítem", func(t *testing.T) {
		_, err := f.ledger.AddItemToBranch(ctx, outsider, inventory.AddItemToBranchInput{ItemID: "i1", BranchID: "b3"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("notas obligatorias", func(t *testing.T) {
		f := newFixture(t, inventory.Config{})
		f.item(t, "i1")
		row := f.row(t, "i1", "b1", "5")
		_, err := f.ledger.AdjustStock(ctx, manager, inventory.AdjustStockInput{
			BranchInventoryID: row.ID, Delta: d("-1"), Type: dominv.ManualAdjustment, Notes: "  ",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.True(t, f.qty(t, row.ID).Equal(d("5")))
	})

	t.Run("daño exige delta negativo", func(t *testing.T) {
		f := newFixture(t, inventory.Config{})
		f.item(t, "i1")
		row := f.row(t, "i1", "b1", "5")
		_, err := f.ledger.AdjustStock(ctx, manager, inventory.AdjustStockInput{
			BranchInventoryID: row.ID, Delta: d("2"), Type: dominv.ManualDamage, Notes: "golpe",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidDelta)

		res, err := f.ledger.AdjustStock(ctx, manager, inventory.AdjustStockInput{
			BranchInventoryID: row.ID, Delta: d("-2"), Type: dominv.ManualDamage, Notes: "golpe",
		})
		require.NoError(t, err)
		assert.Equal(t, dominv.MovementDamage, res.Movement.MovementType)
		assert.True(t, res.StockQuantity.Equal(d("3")))
		assert.Empty(t, res.Warning)
	})

	t.Run("negativo permitido deja aviso", func(t *testing.T) {
		f := newFixture(t, inventory.Config{AllowNegativeAdjustment: true})
		f.item(t, "i1")
		row := f.row(t, "i1", "b1", "1")
		res, err := f.ledger.AdjustStock(ctx, manager, inventory.AdjustStockInput{
			BranchInventoryID: row.ID, Delta: d("-3"), Type: dominv.ManualAdjustment, Notes: "conteo", AllowNegative: true,
		})
		require.NoError(t, err)
		assert.True(t, res.StockQuantity.Equal(d("-2")))
		assert.NotEmpty(t, res.Warning)
		assert.Equal(t, 1, f.metrics.negative)
		f.assertConsistent(t, row.ID)
	})

	t.Run("negativo con la política apagada", func(t *testing.T) {
		f := newFixture(t, inventory.Config{AllowNegativeAdjustment: false})
		f.item(t, "i1")
		row := f.row(t, "i1", "b1", "1")
		_, err := f.ledger.AdjustStock(ctx, manager, inventory.AdjustStockInput{
			BranchInventoryID: row.ID, Delta: d("-3"), Type: dominv.ManualAdjustment, Notes: "conteo", AllowNegative: true,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, 1, f.metrics.rejected["adjust/insufficient_stock"])
	})

	t.Run("daño nunca deja negativo", func(t *testing.T) {
		f := newFixture(t, inventory.Config{AllowNegativeAdjustment: true})
		f.item(t, "i1")
		row := f.row(t, "i1", "b1", "1")
		_, err := f.ledger.AdjustStock(ctx, manager, inventory.AdjustStockInput{
			BranchInventoryID: row.ID, Delta: d("-3"), Type: dominv.ManualDamage, Notes: "roto", AllowNegative: true,
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	})
}

func TestConsume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.Config{})
	f.item(t, "i1")
	row := f.row(t, "i1", "b1", "3")

	mov, err := f.ledger.ConsumeForService(ctx, manager, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("2"), ReferenceID: "job-7"})
	require.NoError(t, err)
	assert.Equal(t, dominv.MovementServiceUse, mov.MovementType)
	assert.Equal(t, dominv.ReferenceService, mov.ReferenceType)
	assert.True(t, mov.Quantity.Equal(d("-2")))
	assert.Equal(t, manager.UserID, mov.UserID)

	_, err = f.ledger.ConsumeForSale(ctx, manager, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("5")})
	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.ErrInsufficientStock, se.Kind)
	assert.Equal(t, "i1", se.ItemID)
	assert.Equal(t, "b1", se.BranchID)
	assert.True(t, se.Current.Equal(d("1")))
	assert.True(t, se.Delta.Equal(d("-5")))

	_, err = f.ledger.ConsumeForSale(ctx, manager, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidDelta)

	back, err := f.ledger.ReturnServicePart(ctx, manager, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("1"), ReferenceID: "job-7"})
	require.NoError(t, err)
	assert.Equal(t, dominv.MovementReturn, back.MovementType)
	assert.True(t, f.qty(t, row.ID).Equal(d("2")))

	_, err = f.ledger.ConsumeForSale(ctx, outsider, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.ledger.SetActive(ctx, manager, row.ID, false)
	require.NoError(t, err)
	_, err = f.ledger.ConsumeForSale(ctx, manager, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("1")})
	assert.ErrorIs(t, err, domain.ErrInactive)
	assert.True(t, f.qty(t, row.ID).Equal(d("2")), "desactivar no cambia la cantidad")

	f.assertConsistent(t, row.ID)
}

func TestUpdateThresholds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.Config{})
	f.item(t, "i1")
	row := f.row(t, "i1", "b1", "4")

	got, err := f.ledger.UpdateThresholds(ctx, manager, row.ID, inventory.UpdateThresholdsInput{
		Thresholds: entity.StockThresholds{MinStockLevel: d("2"), MaxStockLevel: d("20"), ReorderLevel: d("5")},
		SupplierID: "sup-1",
	})
	require.NoError(t, err)
	assert.True(t, got.ReorderLevel.Equal(d("5")))
	assert.Equal(t, "sup-1", got.SupplierID)
	assert.True(t, f.qty(t, row.ID).Equal(d("4")))
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.Config{})
	f.item(t, "i1")
	src := f.row(t, "i1", "b1", "10")

	res, err := f.ledger.Transfer(ctx, manager, inventory.TransferInput{ItemID: "i1", FromBranchID: "b1", ToBranchID: "b2", Quantity: d("4")})
	require.NoError(t, err)
	assert.True(t, res.Out.Quantity.Equal(d("-4")))
	assert.True(t, res.In.Quantity.Equal(d("4")))
	assert.Equal(t, res.TransferID, res.Out.ReferenceID)
	assert.Equal(t, res.TransferID, res.In.ReferenceID)

	dst, err := f.repos.Stock.GetByItemAndBranch(ctx, "i1", "b2")
	require.NoError(t, err, "el destino se crea si no existía")
	assert.True(t, f.qty(t, src.ID).Equal(d("6")))
	assert.True(t, f.qty(t, dst.ID).Equal(d("4")))

	cases := []struct {
		name string
		in   inventory.TransferInput
		want error
	}{
		{"misma sucursal", inventory.TransferInput{ItemID: "i1", FromBranchID: "b1", ToBranchID: "b1", Quantity: d("1")}, domain.ErrInvalidInput},
		{"cantidad cero", inventory.TransferInput{ItemID: "i1", FromBranchID: "b1", ToBranchID: "b2", Quantity: d("0")}, domain.ErrInvalidDelta},
		{"stock insuficiente", inventory.TransferInput{ItemID: "i1", FromBranchID: "b1", ToBranchID: "b2", Quantity: d("7")}, domain.ErrInsufficientStock},
		{"destino inactivo", inventory.TransferInput{ItemID: "i1", FromBranchID: "b1", ToBranchID: "closed", Quantity: d("1")}, domain.ErrInactive},
		{"origen sin fila", inventory.TransferInput{ItemID: "i1", FromBranchID: "b3", ToBranchID: "b1", Quantity: d("1")}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.Transfer(ctx, manager, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// un traslado fallido no deja filas ni movimientos a medias
	assert.True(t, f.qty(t, src.ID).Equal(d("6")))
	assert.True(t, f.qty(t, dst.ID).Equal(d("4")))
	f.assertConsistent(t, src.ID)
	f.assertConsistent(t, dst.ID)
}

func TestListMovements_Filters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.Config{})
	f.item(t, "i1")
	row := f.row(t, "i1", "b1", "10")
	_, err := f.ledger.ConsumeForSale(ctx, manager, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("1")})
	require.NoError(t, err)
	_, err = f.ledger.ConsumeForService(ctx, manager, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("1")})
	require.NoError(t, err)

	movs, err := f.ledger.ListMovements(ctx, manager, row.ID, repository.MovementFilter{Type: dominv.MovementSale})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, dominv.MovementSale, movs[0].MovementType)

	_, err = f.ledger.ListMovements(ctx, manager, row.ID, repository.MovementFilter{Type: "THEFT"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	from, to := time.Now(), time.Now().Add(-time.Hour)
	_, err = f.ledger.ListMovements(ctx, manager, row.ID, repository.MovementFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLowStock_Priority(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, inventory.Config{})
	for _, id := range []string{"i1", "i2", "i3"} {
		f.item(t, id)
	}
	set := func(row *entity.BranchInventory, reorder, max string) {
		_, err := f.ledger.UpdateThresholds(ctx, manager, row.ID, inventory.UpdateThresholdsInput{
			Thresholds: entity.StockThresholds{ReorderLevel: d(reorder), MaxStockLevel: d(max)},
		})
		require.NoError(t, err)
	}
	r1 := f.row(t, "i1", "b1", "4") // 4/5
	set(r1, "5", "0")
	r2 := f.row(t, "i2", "b1", "1") // 1/10
	set(r2, "10", "20")
	r3 := f.row(t, "i3", "b1", "9") // sobre el umbral
	set(r3, "5", "0")

	entries, err := f.ledger.LowStock(ctx, manager, "b1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, r2.ID, entries[0].Row.ID)
	assert.Equal(t, 1, entries[0].Priority)
	assert.True(t, entries[0].SuggestedOrderQty.Equal(d("19")))
	assert.True(t, entries[0].EstimatedOrderCost.Equal(d("950")))

	assert.Equal(t, r1.ID, entries[1].Row.ID)
	assert.True(t, entries[1].IdealStock.Equal(d("7.5")))
	assert.True(t, entries[1].SuggestedOrderQty.Equal(d("3.5")))

	_, err = f.ledger.LowStock(ctx, outsider, "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentSales_NeverOversell(t *testing.T) {
	f := newFixture(t, inventory.Config{})
	f.item(t, "i1")
	row := f.row(t, "i1", "b1", "10")

	var (
		mu   sync.Mutex
		sold int
	)
	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := f.ledger.ConsumeForSale(context.Background(), manager, inventory.ConsumeInput{BranchInventoryID: row.ID, Quantity: d("1")})
			switch {
			case err == nil:
				mu.Lock()
				sold++
				mu.Unlock()
				return nil
			case errors.Is(err, domain.ErrInsufficientStock):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 10, sold)
	assert.True(t, f.qty(t, row.ID).IsZero())
	f.assertConsistent(t, row.ID)
}

func TestConcurrentCrossTransfers_NoDeadlock(t *testing.T) {
	f := newFixture(t, inventory.Config{})
	f.item(t, "i1")
	a := f.row(t, "i1", "b1", "50")
	b := f.row(t, "i1", "b2", "50")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < 20; i++ {
		from, to := "b1", "b2"
		if i%2 == 1 {
			from, to = to, from
		}
		g.Go(func() error {
			_, err := f.ledger.Transfer(ctx, manager, inventory.TransferInput{ItemID: "i1", FromBranchID: from, ToBranchID: to, Quantity: d("1")})
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.True(t, f.qty(t, a.ID).Add(f.qty(t, b.ID)).Equal(d("100")))
	f.assertConsistent(t, a.ID)
	f.assertConsistent(t, b.ID)
}
