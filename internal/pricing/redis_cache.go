package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"solana-pnl-tracker/internal/domain"
)

// RedisCache is a Redis-backed implementation of Cache, for deployments
// where multiple instances should share one price cache. Redis failures
// are treated as cache misses so a cache outage never fails a lookup.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed price cache. Entries expire
// server-side after ttl; the resolver still checks FetchedAt itself.
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: client, ttl: ttl}
}

func priceKey(tokenID string) string {
	return fmt.Sprintf("price:%s", tokenID)
}

// Get returns the stored quote for a token, if any.
func (c *RedisCache) Get(ctx context.Context, tokenID string) (*domain.PriceQuote, bool) {
	data, err := c.client.Get(ctx, priceKey(tokenID)).Result()
	if err != nil {
		return nil, false
	}

	var quote domain.PriceQuote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		return nil, false
	}

	return &quote, true
}

// Put stores a quote, replacing any previous one for the token.
func (c *RedisCache) Put(ctx context.Context, quote *domain.PriceQuote) {
	if quote == nil || quote.TokenID == "" {
		return
	}

	data, err := json.Marshal(quote)
	if err != nil {
		return
	}

	c.client.Set(ctx, priceKey(quote.TokenID), data, c.ttl)
}

// Close closes the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
