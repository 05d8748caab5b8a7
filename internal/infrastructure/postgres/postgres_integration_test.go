package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	appinventory "github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/inventory"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/pkg/config"
)

const testCompany = "company-1"

// newTestPool levanta un PostgreSQL desechable, aplica las migraciones y devuelve el pool.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en -short")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stock_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	mg, err := NewMigrator(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
	require.NoError(t, mg.Close())

	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedBranch(t *testing.T, pool *pgxpool.Pool, id string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO branches (id, company_id, name) VALUES ($1, $2, $3)`, id, testCompany, "Sucursal "+id)
	require.NoError(t, err)
}

func seedItem(t *testing.T, repos repository.TxRepos, code string) *entity.Item {
	t.Helper()
	now := time.Now()
	item := &entity.Item{
		ID: uuid.New().String(), CompanyID: testCompany, ItemCode: code, ItemName: "Pantalla " + code,
		Unit: "pcs", TaxType: "EXCLUSIVE", GSTRate: decimal.NewFromInt(18),
		PurchasePrice: decimal.NewFromInt(100), SalesPrice: decimal.NewFromInt(150),
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repos.Items.Create(context.Background(), item))
	return item
}

func TestPostgres_LedgerRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	ledger := appinventory.NewLedger(NewTxRunner(pool), repos, nil, nil, appinventory.Config{})
	caller := entity.Caller{UserID: "u1", CompanyID: testCompany, Role: entity.RoleManager}

	seedBranch(t, pool, "b1")
	item := seedItem(t, repos, "LCD-01")

	dup := *item
	dup.ID = uuid.New().String()
	err := repos.Items.Create(ctx, &dup)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	row, err := ledger.AddItemToBranch(ctx, caller, appinventory.AddItemToBranchInput{
		ItemID: item.ID, BranchID: "b1", InitialQuantity: decimal.NewFromInt(10),
		Thresholds: entity.StockThresholds{ReorderLevel: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)

	_, err = ledger.ConsumeForService(ctx, caller, appinventory.ConsumeInput{
		BranchInventoryID: row.ID, Quantity: decimal.NewFromInt(7), ReferenceID: "job-1",
	})
	require.NoError(t, err)

	_, err = ledger.ConsumeForSale(ctx, caller, appinventory.ConsumeInput{
		BranchInventoryID: row.ID, Quantity: decimal.NewFromInt(4), ReferenceID: "inv-1",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := ledger.Get(ctx, caller, row.ID)
	require.NoError(t, err)
	assert.True(t, got.StockQuantity.Equal(decimal.NewFromInt(3)))

	movs, err := ledger.ListMovements(ctx, caller, row.ID, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, inventory.MovementOpeningStock, movs[0].MovementType)
	assert.Equal(t, inventory.MovementServiceUse, movs[1].MovementType)
	assert.True(t, movs[1].PreviousQty.Equal(movs[0].NewQty))

	rec, err := ledger.Reconcile(ctx, caller, row.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent())

	low, err := ledger.LowStock(ctx, caller, "b1")
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "LCD-01", low[0].ItemCode)

	referenced, err := repos.Items.IsReferenced(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, referenced)
}

func TestPostgres_MovementsAreAppendOnly(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	ledger := appinventory.NewLedger(NewTxRunner(pool), repos, nil, nil, appinventory.Config{})
	caller := entity.Caller{UserID: "u1", CompanyID: testCompany, Role: entity.RoleAdmin}

	seedBranch(t, pool, "b1")
	item := seedItem(t, repos, "BAT-01")
	row, err := ledger.AddItemToBranch(ctx, caller, appinventory.AddItemToBranchInput{
		ItemID: item.ID, BranchID: "b1", InitialQuantity: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE stock_movements SET quantity = 99 WHERE branch_inventory_id = $1`, row.ID)
	assert.Error(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM stock_movements WHERE branch_inventory_id = $1`, row.ID)
	assert.Error(t, err)
}

func TestPostgres_ConcurrentConsumersNeverOversell(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	ledger := appinventory.NewLedger(NewTxRunner(pool), repos, nil, nil, appinventory.Config{})
	caller := entity.Caller{UserID: "u1", CompanyID: testCompany, Role: entity.RoleCashier}

	seedBranch(t, pool, "b1")
	item := seedItem(t, repos, "CAM-01")
	row, err := ledger.AddItemToBranch(ctx, caller, appinventory.AddItemToBranchInput{
		ItemID: item.ID, BranchID: "b1", InitialQuantity: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		fail int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.ConsumeForSale(ctx, caller, appinventory.ConsumeInput{
				BranchInventoryID: row.ID, Quantity: decimal.NewFromInt(1),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
			} else if assert.ErrorIs(t, err, domain.ErrInsufficientStock) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, oks)
	assert.Equal(t, 3, fail)
	rec, err := ledger.Reconcile(ctx, caller, row.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent())
	assert.True(t, rec.StockQuantity.IsZero())
}
