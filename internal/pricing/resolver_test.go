package pricing

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"solana-pnl-tracker/internal/domain"
)

type fakeBatch struct {
	calls  int
	prices map[string]float64
	errs   []error
}

func (f *fakeBatch) Name() string { return "fake-batch" }

func (f *fakeBatch) Prices(_ context.Context, ids []string) (map[string]float64, error) {
	call := f.calls
	f.calls++
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	out := make(map[string]float64)
	for _, id := range ids {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeSingle struct {
	calls  int
	prices map[string]float64
	err    error
}

func (f *fakeSingle) Name() string { return "fake-single" }

func (f *fakeSingle) Price(_ context.Context, id string) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.prices[id], nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestResolverCacheHitSkipsSources(t *testing.T) {
	primary := &fakeBatch{prices: map[string]float64{"mint1": 9.0}}
	cache := NewMemoryCache()
	r := NewResolver(primary, nil, cache, WithResolverLogger(quietLogger()))

	cache.Put(context.Background(), &domain.PriceQuote{
		TokenID:   "mint1",
		PriceUSD:  3.5,
		FetchedAt: time.Now().UnixMilli(),
	})

	price, err := r.Resolve(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price != 3.5 {
		t.Errorf("expected cached price 3.5, got %v", price)
	}
	if primary.calls != 0 {
		t.Errorf("expected no source calls on cache hit, got %d", primary.calls)
	}
}

func TestResolverCacheExpiry(t *testing.T) {
	primary := &fakeBatch{prices: map[string]float64{"mint1": 9.0}}
	cache := NewMemoryCache()
	r := NewResolver(primary, nil, cache,
		WithCacheWindow(5*time.Minute),
		WithResolverLogger(quietLogger()),
	)

	cache.Put(context.Background(), &domain.PriceQuote{
		TokenID:   "mint1",
		PriceUSD:  3.5,
		FetchedAt: time.Now().Add(-6 * time.Minute).UnixMilli(),
	})

	price, err := r.Resolve(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price != 9.0 {
		t.Errorf("expected refreshed price 9.0, got %v", price)
	}
	if primary.calls != 1 {
		t.Errorf("expected 1 source call after expiry, got %d", primary.calls)
	}
}

func TestResolverQuoteAtWindowBoundaryIsStale(t *testing.T) {
	window := 5 * time.Minute
	now := time.Now()
	primary := &fakeBatch{prices: map[string]float64{"mint1": 9.0}}
	cache := NewMemoryCache()
	r := NewResolver(primary, nil, cache,
		WithCacheWindow(window),
		WithNowFunc(func() time.Time { return now }),
		WithResolverLogger(quietLogger()),
	)

	cache.Put(context.Background(), &domain.PriceQuote{
		TokenID:   "mint1",
		PriceUSD:  3.5,
		FetchedAt: now.Add(-window).UnixMilli(),
	})

	price, err := r.Resolve(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price != 9.0 {
		t.Errorf("expected refetch at exact window age, got %v", price)
	}
	if primary.calls != 1 {
		t.Errorf("expected 1 source call for a quote aged exactly one window, got %d", primary.calls)
	}
}

func TestResolverRateLimitBackoff(t *testing.T) {
	primary := &fakeBatch{
		prices: map[string]float64{"mint1": 2.0},
		errs:   []error{ErrRateLimited, ErrRateLimited},
	}
	var slept []time.Duration
	r := NewResolver(primary, nil, NewMemoryCache(),
		WithSleepFunc(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
		WithResolverLogger(quietLogger()),
	)

	price, err := r.Resolve(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price != 2.0 {
		t.Errorf("expected price 2.0 after retries, got %v", price)
	}
	if primary.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", primary.calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Errorf("expected backoff delays [1s 2s], got %v", slept)
	}
}

func TestResolverNoSleepAfterFinalAttempt(t *testing.T) {
	primary := &fakeBatch{
		errs: []error{ErrRateLimited, ErrRateLimited, ErrRateLimited},
	}
	var slept []time.Duration
	r := NewResolver(primary, nil, NewMemoryCache(),
		WithMaxAttempts(3),
		WithSleepFunc(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
		WithResolverLogger(quietLogger()),
	)

	_, err := r.Resolve(context.Background(), "mint1")
	if !errors.Is(err, ErrNoPrice) {
		t.Fatalf("expected ErrNoPrice, got %v", err)
	}
	if primary.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", primary.calls)
	}
	if len(slept) != 2 {
		t.Errorf("expected backoff only between attempts, got %v", slept)
	}
}

func TestResolverHardErrorAborts(t *testing.T) {
	hardErr := errors.New("connection refused")
	primary := &fakeBatch{errs: []error{hardErr}}
	fallback := &fakeSingle{prices: map[string]float64{"mint1": 5.0}}
	r := NewResolver(primary, fallback, NewMemoryCache(), WithResolverLogger(quietLogger()))

	_, err := r.Resolve(context.Background(), "mint1")
	if !errors.Is(err, hardErr) {
		t.Fatalf("expected hard error to propagate, got %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("expected no retry after hard error, got %d calls", primary.calls)
	}
	if fallback.calls != 0 {
		t.Errorf("expected fallback to be skipped after primary hard error, got %d calls", fallback.calls)
	}
}

func TestResolverFallback(t *testing.T) {
	primary := &fakeBatch{prices: map[string]float64{}}
	fallback := &fakeSingle{prices: map[string]float64{"mint1": 7.25}}
	r := NewResolver(primary, fallback, NewMemoryCache(), WithResolverLogger(quietLogger()))

	price, err := r.Resolve(context.Background(), "mint1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if price != 7.25 {
		t.Errorf("expected fallback price 7.25, got %v", price)
	}
	if fallback.calls != 1 {
		t.Errorf("expected 1 fallback call, got %d", fallback.calls)
	}
}

func TestResolverNoPrice(t *testing.T) {
	primary := &fakeBatch{prices: map[string]float64{}}
	fallback := &fakeSingle{prices: map[string]float64{}}
	r := NewResolver(primary, fallback, NewMemoryCache(),
		WithMaxAttempts(3),
		WithResolverLogger(quietLogger()),
	)

	_, err := r.Resolve(context.Background(), "unknown")
	if !errors.Is(err, ErrNoPrice) {
		t.Fatalf("expected ErrNoPrice, got %v", err)
	}
	if primary.calls != 3 {
		t.Errorf("expected 3 primary attempts, got %d", primary.calls)
	}
	if fallback.calls != 3 {
		t.Errorf("expected 3 fallback attempts, got %d", fallback.calls)
	}

	if got := r.ResolveOrZero(context.Background(), "unknown"); got != 0 {
		t.Errorf("expected ResolveOrZero to return 0, got %v", got)
	}
}

func TestResolverCachesFetchedPrice(t *testing.T) {
	primary := &fakeBatch{prices: map[string]float64{"mint1": 4.0}}
	r := NewResolver(primary, nil, NewMemoryCache(), WithResolverLogger(quietLogger()))

	for i := 0; i < 3; i++ {
		price, err := r.Resolve(context.Background(), "mint1")
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if price != 4.0 {
			t.Errorf("expected price 4.0, got %v", price)
		}
	}
	if primary.calls != 1 {
		t.Errorf("expected 1 source call across repeated resolves, got %d", primary.calls)
	}
}

func TestResolveAllDedupesAndPrimes(t *testing.T) {
	primary := &fakeBatch{prices: map[string]float64{"a": 1.0, "b": 2.0}}
	r := NewResolver(primary, nil, NewMemoryCache(), WithResolverLogger(quietLogger()))

	got := r.ResolveAll(context.Background(), []string{"a", "b", "a", "", "c"})
	if primary.calls != 1+3 {
		// One batch priming call, then c retried per attempt (no price anywhere).
		t.Errorf("expected 4 primary calls, got %d", primary.calls)
	}
	if got["a"] != 1.0 || got["b"] != 2.0 {
		t.Errorf("unexpected prices: %v", got)
	}
	if got["c"] != 0 {
		t.Errorf("expected unknown token to map to 0, got %v", got["c"])
	}
	if _, ok := got[""]; ok {
		t.Errorf("expected empty token id to be skipped")
	}
}

func TestResolveAllEmpty(t *testing.T) {
	primary := &fakeBatch{}
	r := NewResolver(primary, nil, NewMemoryCache(), WithResolverLogger(quietLogger()))

	got := r.ResolveAll(context.Background(), nil)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if primary.calls != 0 {
		t.Errorf("expected no source calls for empty input, got %d", primary.calls)
	}
}
