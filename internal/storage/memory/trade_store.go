package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeRecord // keyed by trade_id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.TradeRecord),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.TradeID] = &copy
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, tradeID string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// GetAll retrieves all trades ordered by timestamp ASC.
func (s *TradeStore) GetAll(_ context.Context) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradeRecord, 0, len(s.data))
	for _, t := range s.data {
		copy := *t
		result = append(result, &copy)
	}

	sortTrades(result)
	return result, nil
}

// GetByTrader retrieves all trades for one trader, ordered by timestamp ASC.
func (s *TradeStore) GetByTrader(_ context.Context, trader string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, t := range s.data {
		if t.Trader == trader {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortTrades(result)
	return result, nil
}

func sortTrades(trades []*domain.TradeRecord) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].Timestamp != trades[j].Timestamp {
			return trades[i].Timestamp < trades[j].Timestamp
		}
		return trades[i].TradeID < trades[j].TradeID
	})
}

var _ storage.TradeStore = (*TradeStore)(nil)
