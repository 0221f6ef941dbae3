package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// LeaderboardStore is an in-memory implementation of storage.LeaderboardStore.
type LeaderboardStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LeaderboardEntry // keyed by wallet
}

// NewLeaderboardStore creates a new in-memory leaderboard store.
func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		data: make(map[string]*domain.LeaderboardEntry),
	}
}

// Put upserts an entry. Last write wins.
func (s *LeaderboardStore) Put(_ context.Context, e *domain.LeaderboardEntry) error {
	if e == nil || e.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *e
	s.data[e.Wallet] = &copy
	return nil
}

// Get retrieves the entry for a wallet. Returns ErrNotFound if not exists.
func (s *LeaderboardStore) Get(_ context.Context, wallet string) (*domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[wallet]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *e
	return &copy, nil
}

// ScanAll retrieves all entries ordered by PnL descending.
func (s *LeaderboardStore) ScanAll(_ context.Context) ([]*domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.LeaderboardEntry, 0, len(s.data))
	for _, e := range s.data {
		copy := *e
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PnLUSD != result[j].PnLUSD {
			return result[i].PnLUSD > result[j].PnLUSD
		}
		return result[i].Wallet < result[j].Wallet
	})

	return result, nil
}

var _ storage.LeaderboardStore = (*LeaderboardStore)(nil)
