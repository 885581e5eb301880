package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis cache in front of a Source. Misses and
// Redis failures fall through to the underlying source.
type Cache struct {
	R      *redis.Client
	Source Source
	TTL    time.Duration
}

func (c *Cache) ttl() time.Duration {
	if c == nil || c.TTL <= 0 {
		return 5 * time.Minute
	}
	return c.TTL
}

// GetProduct implements Source.
func (c *Cache) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	key := "catalog:product:" + id.String()
	var p Product
	if c.R != nil {
		if raw, err := c.R.Get(ctx, key).Bytes(); err == nil {
			if json.Unmarshal(raw, &p) == nil {
				return p, nil
			}
		}
	}
	p, err := c.Source.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	c.store(ctx, key, p)
	return p, nil
}

// GetService implements Source.
func (c *Cache) GetService(ctx context.Context, id uuid.UUID) (ServiceOffering, error) {
	key := "catalog:service:" + id.String()
	var s ServiceOffering
	if c.R != nil {
		if raw, err := c.R.Get(ctx, key).Bytes(); err == nil {
			if json.Unmarshal(raw, &s) == nil {
				return s, nil
			}
		}
	}
	s, err := c.Source.GetService(ctx, id)
	if err != nil {
		return ServiceOffering{}, err
	}
	c.store(ctx, key, s)
	return s, nil
}

// Invalidate drops cached entries for the given item.
func (c *Cache) Invalidate(ctx context.Context, productID, serviceID *uuid.UUID) error {
	if c == nil || c.R == nil {
		return nil
	}
	keys := make([]string, 0, 2)
	if productID != nil {
		keys = append(keys, "catalog:product:"+productID.String())
	}
	if serviceID != nil {
		keys = append(keys, "catalog:service:"+serviceID.String())
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.R.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c == nil || c.R == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.R.Set(ctx, key, raw, c.ttl()).Err()
}
