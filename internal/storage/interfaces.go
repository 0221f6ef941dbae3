package storage

import (
	"context"

	"solana-pnl-tracker/internal/domain"
)

// LeaderboardStore provides access to per-wallet PnL aggregates.
type LeaderboardStore interface {
	// Put upserts an entry. At most one entry exists per wallet;
	// updates are last-write-wins.
	Put(ctx context.Context, e *domain.LeaderboardEntry) error

	// Get retrieves the entry for a wallet. Returns ErrNotFound if not exists.
	Get(ctx context.Context, wallet string) (*domain.LeaderboardEntry, error)

	// ScanAll retrieves all entries ordered by PnL descending.
	ScanAll(ctx context.Context) ([]*domain.LeaderboardEntry, error)
}

// TradeStore provides access to the bulk trade table.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetAll retrieves all trades ordered by timestamp ASC.
	GetAll(ctx context.Context) ([]*domain.TradeRecord, error)

	// GetByTrader retrieves all trades for one trader, ordered by timestamp ASC.
	GetByTrader(ctx context.Context, trader string) ([]*domain.TradeRecord, error)
}

// WalletFollowStore provides access to user wallet subscriptions.
type WalletFollowStore interface {
	// Follow records that a user tracks a wallet. Idempotent.
	Follow(ctx context.Context, f *domain.WalletFollow) error

	// Unfollow removes a subscription. Returns ErrNotFound if not exists.
	Unfollow(ctx context.Context, userID, address string) error

	// TrackedWallets retrieves the wallets a user follows, address ASC.
	TrackedWallets(ctx context.Context, userID string) ([]string, error)

	// AllTracked retrieves the distinct set of followed wallets, address ASC.
	AllTracked(ctx context.Context) ([]string, error)
}

// TradeEventArchive provides append-only access to the trade event history.
type TradeEventArchive interface {
	// InsertBulk appends a batch of events.
	InsertBulk(ctx context.Context, events []domain.TradeEvent) error

	// GetByWallet retrieves archived events for a wallet, ordered by timestamp ASC.
	GetByWallet(ctx context.Context, wallet string) ([]domain.TradeEvent, error)
}
