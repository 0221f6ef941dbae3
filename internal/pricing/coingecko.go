package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultCoinGeckoURL is the public CoinGecko API base URL.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoClient queries CoinGecko for USD token prices. Tokens are keyed
// by Solana mint address via the contract-address endpoint; mints with a
// configured CoinGecko id mapping go through the id-keyed batch endpoint.
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
	ids     map[string]string // mint -> coingecko id, optional
}

// CoinGeckoOption configures CoinGeckoClient.
type CoinGeckoOption func(*CoinGeckoClient)

// WithCoinGeckoHTTPClient sets a custom http.Client.
func WithCoinGeckoHTTPClient(client *http.Client) CoinGeckoOption {
	return func(c *CoinGeckoClient) {
		c.client = client
	}
}

// WithCoinGeckoIDs sets the mint -> CoinGecko id mapping used for tokens
// that are listed by id rather than by contract address.
func WithCoinGeckoIDs(ids map[string]string) CoinGeckoOption {
	return func(c *CoinGeckoClient) {
		c.ids = ids
	}
}

// NewCoinGeckoClient creates a CoinGecko price source.
func NewCoinGeckoClient(baseURL string, opts ...CoinGeckoOption) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	c := &CoinGeckoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the source in logs and metrics.
func (c *CoinGeckoClient) Name() string { return "coingecko" }

// Prices returns USD prices for a set of token mints. Tokens unknown to
// CoinGecko are absent from the result; that is not an error.
func (c *CoinGeckoClient) Prices(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	byContract := make([]string, 0, len(tokenIDs))
	byID := make(map[string]string) // coingecko id -> mint
	for _, t := range tokenIDs {
		if id, ok := c.ids[t]; ok {
			byID[strings.ToLower(id)] = t
			continue
		}
		byContract = append(byContract, t)
	}

	out := make(map[string]float64, len(tokenIDs))

	if len(byContract) > 0 {
		if err := c.contractPrices(ctx, byContract, out); err != nil {
			return nil, err
		}
	}

	if len(byID) > 0 {
		if err := c.idPrices(ctx, byID, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// contractPrices queries /simple/token_price/solana keyed by mint address.
func (c *CoinGeckoClient) contractPrices(ctx context.Context, mints []string, out map[string]float64) error {
	q := url.Values{}
	q.Set("contract_addresses", strings.Join(mints, ","))
	q.Set("vs_currencies", "usd")
	endpoint := fmt.Sprintf("%s/simple/token_price/solana?%s", c.baseURL, q.Encode())

	var result map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		return err
	}

	for mint, entry := range result {
		if entry.USD > 0 {
			out[mint] = entry.USD
		}
	}
	return nil
}

// idPrices queries /simple/price keyed by CoinGecko id, mapping results
// back to the originating mints.
func (c *CoinGeckoClient) idPrices(ctx context.Context, byID map[string]string, out map[string]float64) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	var result map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		return err
	}

	for id, entry := range result {
		mint, ok := byID[strings.ToLower(id)]
		if !ok {
			continue
		}
		if entry.USD > 0 {
			out[mint] = entry.USD
		}
	}
	return nil
}

func (c *CoinGeckoClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ BatchSource = (*CoinGeckoClient)(nil)
