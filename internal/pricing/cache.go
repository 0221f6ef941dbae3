package pricing

import (
	"context"
	"sync"

	"solana-pnl-tracker/internal/domain"
)

// Cache stores price quotes keyed by token mint. Implementations must be
// safe for concurrent use; expiry is the resolver's responsibility.
type Cache interface {
	// Get returns the stored quote for a token, if any.
	Get(ctx context.Context, tokenID string) (*domain.PriceQuote, bool)

	// Put stores a quote, replacing any previous one for the token.
	Put(ctx context.Context, quote *domain.PriceQuote)
}

// MemoryCache is a mutex-guarded in-memory implementation of Cache.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]domain.PriceQuote
}

// NewMemoryCache creates a new in-memory price cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]domain.PriceQuote),
	}
}

// Get returns the stored quote for a token, if any.
func (c *MemoryCache) Get(_ context.Context, tokenID string) (*domain.PriceQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok := c.data[tokenID]
	if !ok {
		return nil, false
	}
	qCopy := q
	return &qCopy, true
}

// Put stores a quote, replacing any previous one for the token.
func (c *MemoryCache) Put(_ context.Context, quote *domain.PriceQuote) {
	if quote == nil || quote.TokenID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[quote.TokenID] = *quote
}

var _ Cache = (*MemoryCache)(nil)
