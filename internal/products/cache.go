package products

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-api.git/internal/redisx"
)

// Cache is a read-through redis cache in front of Repo for the HTTP read
// path. Writes pass through and drop the cached entry.
type Cache struct {
	Next  *Repo
	Redis *redis.Client
	TTL   time.Duration
}

func NewCache(next *Repo, rdb *redis.Client) *Cache {
	return &Cache{Next: next, Redis: rdb, TTL: redisx.TTLProductCache}
}

func (c *Cache) List(ctx context.Context) ([]Product, error) {
	return c.Next.List(ctx)
}

func (c *Cache) GetByID(ctx context.Context, id int64) (*Product, error) {
	key := fmt.Sprintf(redisx.KeyProduct, id)

	if val, err := c.Redis.Get(ctx, key).Result(); err == nil {
		var p Product
		if err := json.Unmarshal([]byte(val), &p); err == nil {
			return &p, nil
		}
	}

	p, err := c.Next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		_ = c.Redis.Set(ctx, key, data, c.TTL).Err()
	}
	return p, nil
}

func (c *Cache) Create(ctx context.Context, name, description string, price decimal.Decimal, stock int) (int64, error) {
	return c.Next.Create(ctx, name, description, price, stock)
}

func (c *Cache) Update(ctx context.Context, id int64, name, description string, price decimal.Decimal, stock int) error {
	if err := c.Next.Update(ctx, id, name, description, price, stock); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *Cache) Delete(ctx context.Context, id int64) error {
	if err := c.Next.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *Cache) invalidate(ctx context.Context, id int64) {
	_ = c.Redis.Del(ctx, fmt.Sprintf(redisx.KeyProduct, id)).Err()
}
