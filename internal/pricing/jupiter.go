package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultJupiterURL is the public Jupiter price API base URL.
const DefaultJupiterURL = "https://api.jup.ag/price/v2"

// JupiterClient queries the Jupiter price API for a single token mint.
// It serves as the fallback when the primary source has no price.
type JupiterClient struct {
	baseURL string
	client  *http.Client
	vsToken string // optional quote token mint
}

// JupiterOption configures JupiterClient.
type JupiterOption func(*JupiterClient)

// WithJupiterHTTPClient sets a custom http.Client.
func WithJupiterHTTPClient(client *http.Client) JupiterOption {
	return func(c *JupiterClient) {
		c.client = client
	}
}

// WithVsToken quotes prices against the given token mint instead of USD.
func WithVsToken(mint string) JupiterOption {
	return func(c *JupiterClient) {
		c.vsToken = mint
	}
}

// NewJupiterClient creates a Jupiter price source.
func NewJupiterClient(baseURL string, opts ...JupiterOption) *JupiterClient {
	if baseURL == "" {
		baseURL = DefaultJupiterURL
	}
	c := &JupiterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the source in logs and metrics.
func (c *JupiterClient) Name() string { return "jupiter" }

// Price returns the USD price for one token mint. A token Jupiter does not
// know yields 0 with a nil error.
func (c *JupiterClient) Price(ctx context.Context, tokenID string) (float64, error) {
	q := url.Values{}
	q.Set("ids", tokenID)
	if c.vsToken != "" {
		q.Set("vsToken", c.vsToken)
	}
	endpoint := fmt.Sprintf("%s?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Prices come back as strings keyed by mint.
	var result struct {
		Data map[string]struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	entry, ok := result.Data[tokenID]
	if !ok || entry.Price == "" {
		return 0, nil
	}

	price, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", entry.Price, err)
	}
	if price < 0 {
		return 0, nil
	}

	return price, nil
}

var _ SingleSource = (*JupiterClient)(nil)
