package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := make(map[string]interface{})
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}

	params := []interface{}{address}
	if len(config) > 0 {
		params = append(params, config)
	}

	var result []getSignaturesResult
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, len(result))
	for i, r := range result {
		sigs[i] = SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			BlockTime: r.BlockTime,
			Err:       r.Err,
		}
	}

	return sigs, nil
}

// getSignaturesResult is the raw RPC response item for getSignaturesForAddress.
type getSignaturesResult struct {
	Signature string      `json:"signature"`
	Slot      int64       `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}

// GetTransaction retrieves a transaction by signature.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result getTransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}

	if result.Slot == 0 && result.BlockTime == nil {
		// Transaction not found
		return nil, nil
	}

	tx := &Transaction{
		Slot:      result.Slot,
		Signature: signature,
	}

	if result.BlockTime != nil {
		tx.BlockTime = *result.BlockTime
	}

	if result.Meta != nil {
		tx.Meta = &TransactionMeta{
			Err:               result.Meta.Err,
			PreTokenBalances:  convertTokenBalances(result.Meta.PreTokenBalances),
			PostTokenBalances: convertTokenBalances(result.Meta.PostTokenBalances),
		}
	}

	return tx, nil
}

// getTransactionResult is the raw RPC response for getTransaction.
type getTransactionResult struct {
	Slot      int64               `json:"slot"`
	BlockTime *int64              `json:"blockTime"`
	Meta      *getTransactionMeta `json:"meta"`
}

type getTransactionMeta struct {
	Err               interface{}       `json:"err"`
	PreTokenBalances  []rawTokenBalance `json:"preTokenBalances"`
	PostTokenBalances []rawTokenBalance `json:"postTokenBalances"`
}

type rawTokenBalance struct {
	Mint          string           `json:"mint"`
	Owner         string           `json:"owner"`
	UITokenAmount rawUITokenAmount `json:"uiTokenAmount"`
}

type rawUITokenAmount struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

// convertTokenBalances parses raw balance entries, skipping unparseable amounts.
func convertTokenBalances(raw []rawTokenBalance) []TokenBalance {
	balances := make([]TokenBalance, 0, len(raw))
	for _, b := range raw {
		amount, err := strconv.ParseFloat(b.UITokenAmount.Amount, 64)
		if err != nil {
			continue
		}
		balances = append(balances, TokenBalance{
			Mint:   b.Mint,
			Owner:  b.Owner,
			Amount: amount,
		})
	}
	return balances
}

// GetTokenLargestAccounts retrieves the largest holders of a token mint.
func (c *HTTPClient) GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error) {
	params := []interface{}{mint}

	var result getTokenLargestAccountsResult
	if err := c.call(ctx, "getTokenLargestAccounts", params, &result); err != nil {
		return nil, err
	}

	holders := make([]TokenAccountBalance, 0, len(result.Value))
	for _, v := range result.Value {
		amount, _ := strconv.ParseFloat(v.Amount, 64)
		holders = append(holders, TokenAccountBalance{
			Address:  v.Address,
			Amount:   amount,
			UIAmount: v.UIAmount,
		})
	}

	return holders, nil
}

// getTokenLargestAccountsResult is the raw RPC response for getTokenLargestAccounts.
type getTokenLargestAccountsResult struct {
	Value []struct {
		Address  string  `json:"address"`
		Amount   string  `json:"amount"`
		UIAmount float64 `json:"uiAmount"`
	} `json:"value"`
}

// GetTokenAccountOwners resolves token accounts to their owner wallets
// via getMultipleAccounts with jsonParsed encoding. Missing accounts and
// accounts that are not token accounts are left out of the result.
func (c *HTTPClient) GetTokenAccountOwners(ctx context.Context, accounts []string) (map[string]string, error) {
	owners := make(map[string]string, len(accounts))
	if len(accounts) == 0 {
		return owners, nil
	}

	params := []interface{}{
		accounts,
		map[string]interface{}{"encoding": "jsonParsed"},
	}

	var result getMultipleAccountsResult
	if err := c.call(ctx, "getMultipleAccounts", params, &result); err != nil {
		return nil, err
	}

	for i, v := range result.Value {
		if i >= len(accounts) || v == nil {
			continue
		}
		if owner := v.Data.Parsed.Info.Owner; owner != "" {
			owners[accounts[i]] = owner
		}
	}

	return owners, nil
}

// getMultipleAccountsResult is the raw RPC response for getMultipleAccounts.
// Value entries are positional and null for accounts that do not exist.
type getMultipleAccountsResult struct {
	Value []*struct {
		Data struct {
			Parsed struct {
				Info struct {
					Owner string `json:"owner"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"value"`
}

// SearchTransactions retrieves enhanced transactions for an account.
// The method takes a params object rather than a positional array.
func (c *HTTPClient) SearchTransactions(ctx context.Context, account string, limit int) ([]EnhancedTransaction, error) {
	params := map[string]interface{}{
		"account": account,
		"limit":   limit,
	}

	var result []searchTransactionsResult
	if err := c.call(ctx, "searchTransactions", params, &result); err != nil {
		return nil, err
	}

	txs := make([]EnhancedTransaction, 0, len(result))
	for _, r := range result {
		tx := EnhancedTransaction{
			Signature: r.Signature,
			BlockTime: r.BlockTime,
		}
		for _, t := range r.TokenTransfers {
			tx.TokenTransfers = append(tx.TokenTransfers, TokenTransfer{
				Mint:        t.Mint,
				UserAccount: t.UserAccount,
				Amount:      t.Amount,
			})
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// searchTransactionsResult is the raw response item for searchTransactions.
type searchTransactionsResult struct {
	Signature      string `json:"signature"`
	BlockTime      int64  `json:"blockTime"`
	TokenTransfers []struct {
		Mint        string  `json:"mint"`
		UserAccount string  `json:"userAccount"`
		Amount      float64 `json:"amount"`
	} `json:"tokenTransfers"`
}

var _ RPCClient = (*HTTPClient)(nil)
