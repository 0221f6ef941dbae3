package pricing

import "context"

// BatchSource resolves USD prices for many token mints in one request.
type BatchSource interface {
	Name() string
	// Prices returns a mint-to-price map. Mints without a known price are
	// absent from the result; that is not an error.
	Prices(ctx context.Context, tokenIDs []string) (map[string]float64, error)
}

// SingleSource resolves the USD price for one token mint.
type SingleSource interface {
	Name() string
	// Price returns 0 with a nil error when the source has no price.
	Price(ctx context.Context, tokenID string) (float64, error)
}
