package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/taller-stock/internal/application/ports"
	"github.com/jhoicas/taller-stock/internal/domain/entity"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

var _ ports.ItemCache = (*ItemCache)(nil)

const itemKeyPrefix = "stock:item:"

// ItemCache caché de lectura del catálogo en Redis. Un fallo de Redis nunca rompe la operación:
// se registra y se sigue contra la BD.
type ItemCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewItemCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ItemCache {
	if log == nil {
		log = logger.Nop()
	}
	return &ItemCache{client: client, ttl: ttl, log: log}
}

func (c *ItemCache) Get(ctx context.Context, id string) (*entity.Item, bool) {
	raw, err := c.client.Get(ctx, itemKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("item_id", id).Msg("cache de ítems no disponible")
		return nil, false
	}
	var item entity.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		c.log.Warn().Err(err).Str("item_id", id).Msg("entrada de caché corrupta")
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &item, true
}

func (c *ItemCache) Set(ctx context.Context, item *entity.Item) {
	raw, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, itemKeyPrefix+item.ID, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("item_id", item.ID).Msg("no se pudo guardar el ítem en caché")
	}
}

func (c *ItemCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, itemKeyPrefix+id).Err(); err != nil {
		c.log.Warn().Err(err).Str("item_id", id).Msg("no se pudo invalidar el ítem en caché")
	}
}
