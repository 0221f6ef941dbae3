package clickhouse

import (
	"context"
	"fmt"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// TradeEventArchive implements storage.TradeEventArchive using ClickHouse.
// The archive is append-only; the MergeTree table does not enforce
// uniqueness and duplicates are tolerated.
type TradeEventArchive struct {
	conn *Conn
}

// NewTradeEventArchive creates a new TradeEventArchive.
func NewTradeEventArchive(conn *Conn) *TradeEventArchive {
	return &TradeEventArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeEventArchive = (*TradeEventArchive)(nil)

// InsertBulk appends a batch of events.
func (s *TradeEventArchive) InsertBulk(ctx context.Context, events []domain.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_events (
			wallet, token, direction, amount, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		if e.Wallet == "" || e.Token == "" {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			e.Wallet, e.Token, string(e.Direction), e.Amount, uint64(e.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves archived events for a wallet, ordered by timestamp ASC.
func (s *TradeEventArchive) GetByWallet(ctx context.Context, wallet string) ([]domain.TradeEvent, error) {
	query := `
		SELECT wallet, token, direction, amount, timestamp_ms
		FROM trade_events
		WHERE wallet = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	var events []domain.TradeEvent
	for rows.Next() {
		var (
			e         domain.TradeEvent
			direction string
			timestamp uint64
		)
		if err := rows.Scan(&e.Wallet, &e.Token, &direction, &e.Amount, &timestamp); err != nil {
			return nil, fmt.Errorf("scan trade event row: %w", err)
		}
		e.Direction = domain.TradeDirection(direction)
		e.Timestamp = int64(timestamp)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade event rows: %w", err)
	}

	return events, nil
}
