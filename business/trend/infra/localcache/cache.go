// Package localcache keeps trend observations in process memory when no
// shared cache is configured.
package localcache

import (
	"context"
	"time"

	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/cache"
)

// Cache implements app.ObservationCache on the in-process TTL cache.
type Cache struct {
	items *cache.Cache[string, domain.RawObservation]
}

// New creates a cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{items: cache.New[string, domain.RawObservation](ttl)}
}

func (c *Cache) Get(ctx context.Context, keyword string) (domain.RawObservation, bool, error) {
	obs, ok := c.items.Get(ctx, keyword)
	return obs, ok, nil
}

func (c *Cache) Set(ctx context.Context, keyword string, obs domain.RawObservation) error {
	c.items.Set(ctx, keyword, obs)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	return c.items.Len()
}
