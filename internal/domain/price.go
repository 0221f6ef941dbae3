package domain

// PriceQuote is a cached price lookup result.
// A quote is reusable only while now - FetchedAt stays inside the
// resolver's cache window; expiry is checked by the resolver, not here.
type PriceQuote struct {
	TokenID   string  // same identifier space as TradeEvent.Token (mint address)
	PriceUSD  float64 // always > 0 for a cached quote
	FetchedAt int64   // Unix timestamp in milliseconds
}
