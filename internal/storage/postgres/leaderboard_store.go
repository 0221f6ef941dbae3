package postgres

import (
	"context"
	"fmt"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// LeaderboardStore implements storage.LeaderboardStore using PostgreSQL.
type LeaderboardStore struct {
	pool *Pool
}

// NewLeaderboardStore creates a new LeaderboardStore.
func NewLeaderboardStore(pool *Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)

// Put upserts an entry. Last write wins.
func (s *LeaderboardStore) Put(ctx context.Context, e *domain.LeaderboardEntry) error {
	if e == nil || e.Wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO leaderboard_entries (wallet, pnl_usd, trade_count, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet) DO UPDATE SET
			pnl_usd = EXCLUDED.pnl_usd,
			trade_count = EXCLUDED.trade_count,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query, e.Wallet, e.PnLUSD, e.TradeCount, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

// Get retrieves the entry for a wallet. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) Get(ctx context.Context, wallet string) (*domain.LeaderboardEntry, error) {
	query := `
		SELECT wallet, pnl_usd, trade_count, updated_at
		FROM leaderboard_entries
		WHERE wallet = $1
	`

	var e domain.LeaderboardEntry
	err := s.pool.QueryRow(ctx, query, wallet).Scan(&e.Wallet, &e.PnLUSD, &e.TradeCount, &e.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get leaderboard entry: %w", err)
	}
	return &e, nil
}

// ScanAll retrieves all entries ordered by PnL descending.
func (s *LeaderboardStore) ScanAll(ctx context.Context) ([]*domain.LeaderboardEntry, error) {
	query := `
		SELECT wallet, pnl_usd, trade_count, updated_at
		FROM leaderboard_entries
		ORDER BY pnl_usd DESC, wallet ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scan leaderboard entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Wallet, &e.PnLUSD, &e.TradeCount, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}

	return entries, nil
}
