package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// TradeEventArchive is an in-memory implementation of storage.TradeEventArchive.
type TradeEventArchive struct {
	mu     sync.RWMutex
	events []domain.TradeEvent
}

// NewTradeEventArchive creates a new in-memory trade event archive.
func NewTradeEventArchive() *TradeEventArchive {
	return &TradeEventArchive{}
}

// InsertBulk appends a batch of events.
func (s *TradeEventArchive) InsertBulk(_ context.Context, events []domain.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, events...)
	return nil
}

// GetByWallet retrieves archived events for a wallet, ordered by timestamp ASC.
func (s *TradeEventArchive) GetByWallet(_ context.Context, wallet string) ([]domain.TradeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.TradeEvent
	for _, e := range s.events {
		if e.Wallet == wallet {
			result = append(result, e)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

var _ storage.TradeEventArchive = (*TradeEventArchive)(nil)
