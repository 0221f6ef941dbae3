package pricing

import (
	"context"
	"errors"
	"log"
	"time"

	"solana-pnl-tracker/internal/domain"
)

const (
	// DefaultCacheWindow is how long a cached quote stays fresh.
	DefaultCacheWindow = 5 * time.Minute
	// DefaultMaxAttempts bounds the fetch loop per token.
	DefaultMaxAttempts = 3
	// DefaultBackoff is the initial sleep after a rate-limited attempt.
	// It doubles on every further 429.
	DefaultBackoff = time.Second
)

// Observer receives resolver events. All methods may be called concurrently.
type Observer interface {
	CacheHit(tokenID string)
	CacheMiss(tokenID string)
	SourceLookup(source string, err error)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)            {}
func (nopObserver) CacheMiss(string)           {}
func (nopObserver) SourceLookup(string, error) {}

// Resolver fetches token prices through a primary batch source with a
// single-token fallback, caching results for a freshness window.
type Resolver struct {
	primary  BatchSource
	fallback SingleSource
	cache    Cache

	cacheWindow time.Duration
	maxAttempts int
	backoff     time.Duration

	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	observer Observer
	logger   *log.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCacheWindow sets the quote freshness window.
func WithCacheWindow(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.cacheWindow = d
		}
	}
}

// WithMaxAttempts sets how many fetch attempts a single Resolve makes.
func WithMaxAttempts(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial rate-limit backoff.
func WithBackoff(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.backoff = d
		}
	}
}

// WithSleepFunc replaces the backoff sleep. Used in tests.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

// WithNowFunc replaces the clock. Used in tests.
func WithNowFunc(fn func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.now = fn
		}
	}
}

// WithObserver attaches resolver instrumentation.
func WithObserver(o Observer) ResolverOption {
	return func(r *Resolver) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithResolverLogger sets the resolver log destination.
func WithResolverLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a price resolver. The fallback source may be nil.
func NewResolver(primary BatchSource, fallback SingleSource, cache Cache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		primary:     primary,
		fallback:    fallback,
		cache:       cache,
		cacheWindow: DefaultCacheWindow,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		sleep:       sleepCtx,
		now:         time.Now,
		observer:    nopObserver{},
		logger:      log.New(log.Writer(), "[pricing] ", log.LstdFlags),
	}
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Resolve returns the USD price for a token mint. A fresh cached quote is
// returned without any network calls. On a cache miss it tries the primary
// source then the fallback, retrying rate-limited attempts with doubling
// backoff, and returns ErrNoPrice once attempts are exhausted.
func (r *Resolver) Resolve(ctx context.Context, tokenID string) (float64, error) {
	if tokenID == "" {
		return 0, ErrNoPrice
	}

	if price, ok := r.cached(ctx, tokenID); ok {
		return price, nil
	}

	delay := r.backoff
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		price, err := r.tryOnce(ctx, tokenID)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				if attempt == r.maxAttempts-1 {
					break
				}
				r.logger.Printf("rate limited fetching %s, backing off %s", tokenID, delay)
				if serr := r.sleep(ctx, delay); serr != nil {
					return 0, serr
				}
				delay *= 2
				continue
			}
			return 0, err
		}
		if price > 0 {
			r.store(ctx, tokenID, price)
			return price, nil
		}
	}

	return 0, ErrNoPrice
}

// ResolveOrZero is Resolve with failures flattened to a zero price. Callers
// aggregating totals use it so one unknown token does not abort a batch.
func (r *Resolver) ResolveOrZero(ctx context.Context, tokenID string) float64 {
	price, err := r.Resolve(ctx, tokenID)
	if err != nil {
		if !errors.Is(err, ErrNoPrice) {
			r.logger.Printf("price lookup failed for %s: %v", tokenID, err)
		}
		return 0
	}
	return price
}

// ResolveAll resolves a set of mints, priming the cache with one batch call
// before falling back to per-token resolution for anything still missing.
// Tokens without a price map to 0.
func (r *Resolver) ResolveAll(ctx context.Context, tokenIDs []string) map[string]float64 {
	out := make(map[string]float64, len(tokenIDs))
	if len(tokenIDs) == 0 {
		return out
	}

	seen := make(map[string]struct{}, len(tokenIDs))
	var missing []string
	for _, id := range tokenIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if price, ok := r.cached(ctx, id); ok {
			out[id] = price
		} else {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 && r.primary != nil {
		prices, err := r.primary.Prices(ctx, missing)
		r.observer.SourceLookup(r.primary.Name(), err)
		if err != nil {
			r.logger.Printf("batch price fetch failed: %v", err)
		}
		for id, price := range prices {
			if price > 0 {
				r.store(ctx, id, price)
			}
		}
	}

	for _, id := range missing {
		out[id] = r.ResolveOrZero(ctx, id)
	}
	return out
}

// tryOnce runs one fetch attempt: primary batch first, fallback second.
// A zero price with nil error means neither source knows the token.
func (r *Resolver) tryOnce(ctx context.Context, tokenID string) (float64, error) {
	if r.primary != nil {
		prices, err := r.primary.Prices(ctx, []string{tokenID})
		r.observer.SourceLookup(r.primary.Name(), err)
		if err != nil {
			return 0, err
		}
		if price := prices[tokenID]; price > 0 {
			return price, nil
		}
	}

	if r.fallback == nil {
		return 0, nil
	}

	price, err := r.fallback.Price(ctx, tokenID)
	r.observer.SourceLookup(r.fallback.Name(), err)
	if err != nil {
		return 0, err
	}
	return price, nil
}

func (r *Resolver) cached(ctx context.Context, tokenID string) (float64, bool) {
	quote, ok := r.cache.Get(ctx, tokenID)
	if !ok || quote == nil {
		r.observer.CacheMiss(tokenID)
		return 0, false
	}
	// A quote is fresh only while strictly inside the window.
	age := r.now().UnixMilli() - quote.FetchedAt
	if age < 0 || age >= r.cacheWindow.Milliseconds() {
		r.observer.CacheMiss(tokenID)
		return 0, false
	}
	r.observer.CacheHit(tokenID)
	return quote.PriceUSD, true
}

func (r *Resolver) store(ctx context.Context, tokenID string, price float64) {
	r.cache.Put(ctx, &domain.PriceQuote{
		TokenID:   tokenID,
		PriceUSD:  price,
		FetchedAt: r.now().UnixMilli(),
	})
}
