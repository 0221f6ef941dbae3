package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// WalletFollowStore is an in-memory implementation of storage.WalletFollowStore.
type WalletFollowStore struct {
	mu   sync.RWMutex
	data map[string]map[string]struct{} // user_id -> set of addresses
}

// NewWalletFollowStore creates a new in-memory wallet follow store.
func NewWalletFollowStore() *WalletFollowStore {
	return &WalletFollowStore{
		data: make(map[string]map[string]struct{}),
	}
}

// Follow records that a user tracks a wallet. Idempotent.
func (s *WalletFollowStore) Follow(_ context.Context, f *domain.WalletFollow) error {
	if f == nil || f.UserID == "" || f.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.data[f.UserID]
	if !exists {
		set = make(map[string]struct{})
		s.data[f.UserID] = set
	}
	set[f.Address] = struct{}{}
	return nil
}

// Unfollow removes a subscription. Returns ErrNotFound if not exists.
func (s *WalletFollowStore) Unfollow(_ context.Context, userID, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.data[userID]
	if !exists {
		return storage.ErrNotFound
	}
	if _, exists := set[address]; !exists {
		return storage.ErrNotFound
	}

	delete(set, address)
	if len(set) == 0 {
		delete(s.data, userID)
	}
	return nil
}

// TrackedWallets retrieves the wallets a user follows, address ASC.
func (s *WalletFollowStore) TrackedWallets(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.data[userID]
	result := make([]string, 0, len(set))
	for addr := range set {
		result = append(result, addr)
	}

	sort.Strings(result)
	return result, nil
}

// AllTracked retrieves the distinct set of followed wallets, address ASC.
func (s *WalletFollowStore) AllTracked(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	distinct := make(map[string]struct{})
	for _, set := range s.data {
		for addr := range set {
			distinct[addr] = struct{}{}
		}
	}

	result := make([]string, 0, len(distinct))
	for addr := range distinct {
		result = append(result, addr)
	}

	sort.Strings(result)
	return result, nil
}

var _ storage.WalletFollowStore = (*WalletFollowStore)(nil)
