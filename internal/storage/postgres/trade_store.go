package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_records (trade_id, ts, price, volume, trader, action)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query, t.TradeID, t.Timestamp, t.Price, t.Volume, t.Trader, string(t.Action))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `
		SELECT trade_id, ts, price, volume, trader, action
		FROM trade_records
		WHERE trade_id = $1
	`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetAll retrieves all trades ordered by timestamp ASC.
func (s *TradeStore) GetAll(ctx context.Context) ([]*domain.TradeRecord, error) {
	query := `
		SELECT trade_id, ts, price, volume, trader, action
		FROM trade_records
		ORDER BY ts ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all trade records: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetByTrader retrieves all trades for one trader, ordered by timestamp ASC.
func (s *TradeStore) GetByTrader(ctx context.Context, trader string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT trade_id, ts, price, volume, trader, action
		FROM trade_records
		WHERE trader = $1
		ORDER BY ts ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, trader)
	if err != nil {
		return nil, fmt.Errorf("get trade records by trader: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// scanTradeRecord scans a single row into a TradeRecord.
func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	var action string

	err := row.Scan(&t.TradeID, &t.Timestamp, &t.Price, &t.Volume, &t.Trader, &action)
	if err != nil {
		return nil, err
	}
	t.Action = domain.TradeDirection(action)

	return &t, nil
}

// scanTradeRecords scans multiple rows into a slice of TradeRecord.
func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		var t domain.TradeRecord
		var action string

		if err := rows.Scan(&t.TradeID, &t.Timestamp, &t.Price, &t.Volume, &t.Trader, &action); err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		t.Action = domain.TradeDirection(action)

		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}
