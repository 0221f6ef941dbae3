package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// WalletFollowStore implements storage.WalletFollowStore using PostgreSQL.
type WalletFollowStore struct {
	pool *Pool
}

// NewWalletFollowStore creates a new WalletFollowStore.
func NewWalletFollowStore(pool *Pool) *WalletFollowStore {
	return &WalletFollowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletFollowStore = (*WalletFollowStore)(nil)

// Follow records that a user tracks a wallet. Idempotent.
func (s *WalletFollowStore) Follow(ctx context.Context, f *domain.WalletFollow) error {
	if f == nil || f.UserID == "" || f.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallet_follows (user_id, address)
		VALUES ($1, $2)
		ON CONFLICT (user_id, address) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, f.UserID, f.Address)
	if err != nil {
		return fmt.Errorf("insert wallet follow: %w", err)
	}
	return nil
}

// Unfollow removes a subscription. Returns ErrNotFound if not exists.
func (s *WalletFollowStore) Unfollow(ctx context.Context, userID, address string) error {
	query := `DELETE FROM wallet_follows WHERE user_id = $1 AND address = $2`

	tag, err := s.pool.Exec(ctx, query, userID, address)
	if err != nil {
		return fmt.Errorf("delete wallet follow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// TrackedWallets retrieves the wallets a user follows, address ASC.
func (s *WalletFollowStore) TrackedWallets(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT address
		FROM wallet_follows
		WHERE user_id = $1
		ORDER BY address ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get tracked wallets: %w", err)
	}
	defer rows.Close()

	return scanAddresses(rows)
}

// AllTracked retrieves the distinct set of followed wallets, address ASC.
func (s *WalletFollowStore) AllTracked(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT address
		FROM wallet_follows
		ORDER BY address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all tracked wallets: %w", err)
	}
	defer rows.Close()

	return scanAddresses(rows)
}

func scanAddresses(rows pgx.Rows) ([]string, error) {
	addresses := []string{}
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}
	return addresses, nil
}
