package memory

import (
	"context"
	"errors"
	"testing"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

func TestWalletFollowStore_FollowAndList(t *testing.T) {
	store := NewWalletFollowStore()
	ctx := context.Background()

	store.Follow(ctx, &domain.WalletFollow{UserID: "u1", Address: "walletB"})
	store.Follow(ctx, &domain.WalletFollow{UserID: "u1", Address: "walletA"})
	store.Follow(ctx, &domain.WalletFollow{UserID: "u2", Address: "walletA"})

	got, err := store.TrackedWallets(ctx, "u1")
	if err != nil {
		t.Fatalf("TrackedWallets failed: %v", err)
	}
	if len(got) != 2 || got[0] != "walletA" || got[1] != "walletB" {
		t.Errorf("expected sorted [walletA walletB], got %v", got)
	}
}

func TestWalletFollowStore_FollowIdempotent(t *testing.T) {
	store := NewWalletFollowStore()
	ctx := context.Background()

	f := &domain.WalletFollow{UserID: "u1", Address: "walletA"}
	store.Follow(ctx, f)
	if err := store.Follow(ctx, f); err != nil {
		t.Fatalf("repeat Follow failed: %v", err)
	}

	got, _ := store.TrackedWallets(ctx, "u1")
	if len(got) != 1 {
		t.Errorf("expected 1 wallet after duplicate follow, got %d", len(got))
	}
}

func TestWalletFollowStore_Unfollow(t *testing.T) {
	store := NewWalletFollowStore()
	ctx := context.Background()

	store.Follow(ctx, &domain.WalletFollow{UserID: "u1", Address: "walletA"})

	if err := store.Unfollow(ctx, "u1", "walletA"); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}

	err := store.Unfollow(ctx, "u1", "walletA")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on repeat unfollow, got %v", err)
	}
}

func TestWalletFollowStore_AllTrackedDistinct(t *testing.T) {
	store := NewWalletFollowStore()
	ctx := context.Background()

	store.Follow(ctx, &domain.WalletFollow{UserID: "u1", Address: "walletA"})
	store.Follow(ctx, &domain.WalletFollow{UserID: "u2", Address: "walletA"})
	store.Follow(ctx, &domain.WalletFollow{UserID: "u2", Address: "walletB"})

	got, err := store.AllTracked(ctx)
	if err != nil {
		t.Fatalf("AllTracked failed: %v", err)
	}
	if len(got) != 2 || got[0] != "walletA" || got[1] != "walletB" {
		t.Errorf("expected distinct sorted wallets, got %v", got)
	}
}

func TestWalletFollowStore_InvalidInput(t *testing.T) {
	store := NewWalletFollowStore()
	ctx := context.Background()

	if err := store.Follow(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Follow(ctx, &domain.WalletFollow{UserID: "u1"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty address, got %v", err)
	}
}
