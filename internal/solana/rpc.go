package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used by the tracker.
type RPCClient interface {
	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a transaction by signature, including
	// pre/post token balances. Returns nil if the transaction is unknown.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetTokenLargestAccounts retrieves the largest holders of a token mint.
	// The returned addresses are token accounts, not owner wallets.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error)

	// GetTokenAccountOwners resolves token accounts to their owner wallets.
	// Accounts that do not exist or are not token accounts are omitted.
	GetTokenAccountOwners(ctx context.Context, accounts []string) (map[string]string, error)

	// SearchTransactions retrieves enhanced transactions for an account,
	// each carrying a parsed token transfer list.
	SearchTransactions(ctx context.Context, account string, limit int) ([]EnhancedTransaction, error)
}

// Transaction represents a Solana transaction with balance metadata.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
}

// TransactionMeta contains transaction metadata relevant to balance diffs.
type TransactionMeta struct {
	Err               interface{}
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TokenBalance is a per-wallet per-mint token balance snapshot.
type TokenBalance struct {
	Mint   string
	Owner  string
	Amount float64 // raw token units, parsed from uiTokenAmount.amount
}

// EnhancedTransaction is a transaction from the enhanced search API,
// carrying an already-parsed transfer list instead of balance snapshots.
type EnhancedTransaction struct {
	Signature      string
	BlockTime      int64 // Unix timestamp (seconds)
	TokenTransfers []TokenTransfer
}

// TokenTransfer is one signed token movement attributed to a wallet.
type TokenTransfer struct {
	Mint        string
	UserAccount string
	Amount      float64 // signed: positive = received, negative = sent
}

// TokenAccountBalance is one entry from getTokenLargestAccounts.
type TokenAccountBalance struct {
	Address  string
	Amount   float64
	UIAmount float64
}
