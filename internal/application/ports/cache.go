package ports

import (
	"context"

	"github.com/jhoicas/taller-stock/internal/domain/entity"
)

// ItemCache caché de lectura del catálogo. Un fallo de caché nunca debe romper la operación:
// Get devuelve (nil, false) ante cualquier error y Set/Invalidate lo ignoran.
type ItemCache interface {
	Get(ctx context.Context, id string) (*entity.Item, bool)
	Set(ctx context.Context, item *entity.Item)
	Invalidate(ctx context.Context, id string)
}

// NoopItemCache caché deshabilitada (sin REDIS_ADDR).
type NoopItemCache struct{}

func (NoopItemCache) Get(context.Context, string) (*entity.Item, bool) { return nil, false }
func (NoopItemCache) Set(context.Context, *entity.Item)                {}
func (NoopItemCache) Invalidate(context.Context, string)               {}
