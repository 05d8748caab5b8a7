package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-stock/internal/application/catalog"
	"github.com/jhoicas/taller-stock/internal/application/dto"
	"github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/internal/domain/repository"
	"github.com/jhoicas/taller-stock/internal/infrastructure/memory"
)

var (
	admin = entity.Caller{UserID: "u1", CompanyID: "c1", Role: entity.RoleAdmin}
	other = entity.Caller{UserID: "u2", CompanyID: "c2", Role: entity.RoleAdmin}
)

func ptr[T any](v T) *T { return &v }

// countingCache caché en mapa que cuenta aciertos e invalidaciones.
type countingCache struct {
	items       map[string]*entity.Item
	hits        int
	invalidated []string
}

func newCountingCache() *countingCache { return &countingCache{items: map[string]*entity.Item{}} }

func (c *countingCache) Get(_ context.Context, id string) (*entity.Item, bool) {
	it, ok := c.items[id]
	if ok {
		c.hits++
	}
	return it, ok
}

func (c *countingCache) Set(_ context.Context, item *entity.Item) { c.items[item.ID] = item }

func (c *countingCache) Invalidate(_ context.Context, id string) {
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
}

type fixture struct {
	store *memory.Store
	cache *countingCache
	uc    *catalog.ItemUseCase
}

func newFixture() *fixture {
	store := memory.New()
	store.SeedBranch(entity.Branch{ID: "b1", CompanyID: "c1", Name: "Centro", IsActive: true})
	cache := newCountingCache()
	return &fixture{store: store, cache: cache, uc: catalog.NewItemUseCase(store, store.Repos().Items, cache, nil)}
}

func (f *fixture) stockIt(t *testing.T, itemID string) {
	t.Helper()
	repos := f.store.Repos()
	l := inventory.NewLedger(f.store, repos, ports.NoopMetrics{}, nil, inventory.Config{})
	_, err := l.AddItemToBranch(context.Background(), admin, inventory.AddItemToBranchInput{ItemID: itemID, BranchID: "b1"})
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	got, err := f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemCode: "SCR-IP12", ItemName: " Pantalla iPhone 12 ", SalesPrice: decimal.NewFromInt(120)})
	require.NoError(t, err)
	assert.Equal(t, "Pantalla iPhone 12", got.ItemName)
	assert.Equal(t, "pcs", got.Unit)
	assert.Equal(t, "EXCLUSIVE", got.TaxType)
	assert.True(t, got.IsActive)

	auto, err := f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemName: "Batería"})
	require.NoError(t, err)
	assert.Regexp(t, `^ITM-[0-9A-F]{8}$`, auto.ItemCode)

	_, err = f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemCode: "SCR-IP12", ItemName: "Otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.uc.Create(ctx, other, dto.CreateItemRequest{ItemCode: "SCR-IP12", ItemName: "Otra empresa"})
	assert.NoError(t, err, "el código es único por empresa")

	_, err = f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemName: "x", GSTRate: decimal.NewFromInt(101)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemName: "x", PurchasePrice: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGet_UsesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	item, err := f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemName: "Flex de carga"})
	require.NoError(t, err)

	_, err = f.uc.Get(ctx, admin, item.ID)
	require.NoError(t, err)
	_, err = f.uc.Get(ctx, admin, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)

	_, err = f.uc.Get(ctx, other, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Update(ctx, admin, item.ID, dto.UpdateItemRequest{ItemName: ptr("Flex de carga USB-C")})
	require.NoError(t, err)
	assert.Contains(t, f.cache.invalidated, item.ID)

	got, err := f.uc.Get(ctx, admin, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flex de carga USB-C", got.ItemName)
}

func TestUpdate_CodeAndUnitLockedOnceReferenced(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	item, err := f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemCode: "CAM-01", ItemName: "Cámara"})
	require.NoError(t, err)
	_, err = f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemCode: "CAM-02", ItemName: "Cámara 2"})
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, admin, item.ID, dto.UpdateItemRequest{ItemCode: ptr("CAM-02")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.uc.Update(ctx, admin, item.ID, dto.UpdateItemRequest{ItemCode: ptr("   ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	kept, err := f.uc.Get(ctx, admin, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "CAM-01", kept.ItemCode)

	got, err := f.uc.Update(ctx, admin, item.ID, dto.UpdateItemRequest{ItemCode: ptr("CAM-10"), Unit: ptr("set")})
	require.NoError(t, err)
	assert.Equal(t, "CAM-10", got.ItemCode)

	f.stockIt(t, item.ID)

	_, err = f.uc.Update(ctx, admin, item.ID, dto.UpdateItemRequest{Unit: ptr("pcs")})
	assert.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.uc.Update(ctx, admin, item.ID, dto.UpdateItemRequest{ItemCode: ptr("CAM-11")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// el mismo valor no cuenta como cambio
	_, err = f.uc.Update(ctx, admin, item.ID, dto.UpdateItemRequest{ItemCode: ptr("CAM-10"), SalesPrice: ptr(decimal.NewFromInt(45))})
	assert.NoError(t, err)

	_, err = f.uc.Update(ctx, admin, item.ID, dto.UpdateItemRequest{ItemName: ptr("  ")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	unused, err := f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemName: "Tornillo"})
	require.NoError(t, err)
	used, err := f.uc.Create(ctx, admin, dto.CreateItemRequest{ItemName: "Pantalla"})
	require.NoError(t, err)
	f.stockIt(t, used.ID)

	require.NoError(t, f.uc.Delete(ctx, admin, unused.ID))
	_, err = f.uc.Get(ctx, admin, unused.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.uc.Delete(ctx, admin, used.ID), domain.ErrConflict)
	assert.ErrorIs(t, f.uc.Delete(ctx, other, used.ID), domain.ErrNotFound)

	off, err := f.uc.SetActive(ctx, admin, used.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	list, err := f.uc.List(ctx, admin, repository.ItemFilter{}, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 20, list.Page.Limit)
}
