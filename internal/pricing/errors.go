package pricing

import "errors"

// Pricing errors.
var (
	// ErrNoPrice is returned when neither source knows a positive USD price
	// for the token. It distinguishes "no market price" from lookup failure.
	ErrNoPrice = errors.New("no price available")

	// ErrRateLimited is returned by sources on HTTP 429. The resolver retries
	// rate-limited lookups with exponential backoff; any other error aborts.
	ErrRateLimited = errors.New("rate limited (429)")
)
