package tracker

import (
	"context"
	"fmt"
	"sort"

	"solana-pnl-tracker/internal/solana"
	"solana-pnl-tracker/internal/storage"
)

// WalletSource supplies the set of wallets a tracker run should process.
type WalletSource interface {
	Wallets(ctx context.Context) ([]string, error)
}

// StaticWallets is a fixed wallet list.
type StaticWallets []string

// Wallets returns the configured list.
func (s StaticWallets) Wallets(_ context.Context) ([]string, error) {
	return s, nil
}

// TopHolders discovers wallets from the largest token accounts of a mint.
type TopHolders struct {
	client solana.RPCClient
	mint   string
}

// NewTopHolders creates a holder-based wallet source for the given mint.
func NewTopHolders(client solana.RPCClient, mint string) *TopHolders {
	return &TopHolders{client: client, mint: mint}
}

// Wallets returns the owner wallets of the largest token accounts.
// getTokenLargestAccounts yields token account addresses, so each is
// resolved to its owner before being tracked. Accounts with no
// resolvable owner are skipped.
func (t *TopHolders) Wallets(ctx context.Context) ([]string, error) {
	accounts, err := t.client.GetTokenLargestAccounts(ctx, t.mint)
	if err != nil {
		return nil, fmt.Errorf("get largest accounts for %s: %w", t.mint, err)
	}

	addresses := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		if acc.Address != "" {
			addresses = append(addresses, acc.Address)
		}
	}
	if len(addresses) == 0 {
		return nil, nil
	}

	owners, err := t.client.GetTokenAccountOwners(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("resolve owners for %s: %w", t.mint, err)
	}

	seen := make(map[string]struct{}, len(owners))
	wallets := make([]string, 0, len(owners))
	for _, addr := range addresses {
		owner, ok := owners[addr]
		if !ok || owner == "" {
			continue
		}
		if _, dup := seen[owner]; dup {
			continue
		}
		seen[owner] = struct{}{}
		wallets = append(wallets, owner)
	}
	return wallets, nil
}

// FollowedWallets reads the wallets users follow.
type FollowedWallets struct {
	store storage.WalletFollowStore
}

// NewFollowedWallets creates a follow-store backed wallet source.
func NewFollowedWallets(store storage.WalletFollowStore) *FollowedWallets {
	return &FollowedWallets{store: store}
}

// Wallets returns all followed wallets.
func (f *FollowedWallets) Wallets(ctx context.Context) ([]string, error) {
	return f.store.AllTracked(ctx)
}

// FallbackWallets delegates to a primary source and returns a seed list
// when the primary yields no wallets, so a fresh deployment with no
// follows still produces a leaderboard.
type FallbackWallets struct {
	Primary WalletSource
	Seed    []string
}

// Wallets returns the primary source's wallets, or Seed when empty.
func (f FallbackWallets) Wallets(ctx context.Context) ([]string, error) {
	wallets, err := f.Primary.Wallets(ctx)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return f.Seed, nil
	}
	return wallets, nil
}

// CombinedWallets unions several sources, deduplicated and sorted.
type CombinedWallets []WalletSource

// Wallets merges all underlying sources. A failing source fails the union.
func (c CombinedWallets) Wallets(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, src := range c {
		wallets, err := src.Wallets(ctx)
		if err != nil {
			return nil, err
		}
		for _, w := range wallets {
			if w != "" {
				seen[w] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out, nil
}
