// Package rediscache stores trend observations in Redis so several scout
// instances share one view of the trends API.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/apperror"
)

const defaultPrefix = "scout:trend:"

// Config holds Redis connection settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// Cache implements app.ObservationCache on Redis.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperror.New(apperror.CodeCacheUnavailable,
			apperror.WithCause(err),
			apperror.WithContext(cfg.Addr))
	}
	return NewWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached observation. A missing key is not an error.
func (c *Cache) Get(ctx context.Context, keyword string) (domain.RawObservation, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+keyword).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RawObservation{}, false, nil
	}
	if err != nil {
		return domain.RawObservation{}, false, apperror.New(apperror.CodeCacheUnavailable,
			apperror.WithCause(err),
			apperror.WithContext(keyword))
	}

	var obs domain.RawObservation
	if err := json.Unmarshal(data, &obs); err != nil {
		// Corrupt entries are treated as misses and overwritten on the next store.
		return domain.RawObservation{}, false, nil
	}
	return obs, true, nil
}

// Set stores obs with the configured TTL.
func (c *Cache) Set(ctx context.Context, keyword string, obs domain.RawObservation) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return apperror.New(apperror.CodeInvalidFormat, apperror.WithCause(err), apperror.WithContext(keyword))
	}
	if err := c.client.Set(ctx, c.prefix+keyword, data, c.ttl).Err(); err != nil {
		return apperror.New(apperror.CodeCacheUnavailable,
			apperror.WithCause(err),
			apperror.WithContext(keyword))
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
