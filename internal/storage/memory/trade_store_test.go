package memory

import (
	"context"
	"errors"
	"testing"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		TradeID:   "trade1",
		Timestamp: 1000,
		Price:     2.5,
		Volume:    10,
		Trader:    "alice",
		Action:    domain.TradeBuy,
	}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "trade1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Price != 2.5 || got.Trader != "alice" {
		t.Errorf("trade mismatch: %+v", got)
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{TradeID: "trade1", Trader: "alice"}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeStore_GetByIDNotFound(t *testing.T) {
	store := NewTradeStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeStore_GetAllOrdered(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	store.Insert(ctx, &domain.TradeRecord{TradeID: "t2", Timestamp: 2000, Trader: "a"})
	store.Insert(ctx, &domain.TradeRecord{TradeID: "t1", Timestamp: 1000, Trader: "b"})
	store.Insert(ctx, &domain.TradeRecord{TradeID: "t3", Timestamp: 3000, Trader: "a"})

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(all))
	}
	if all[0].TradeID != "t1" || all[1].TradeID != "t2" || all[2].TradeID != "t3" {
		t.Errorf("expected timestamp ascending order, got %v %v %v",
			all[0].TradeID, all[1].TradeID, all[2].TradeID)
	}
}

func TestTradeStore_GetByTrader(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	store.Insert(ctx, &domain.TradeRecord{TradeID: "t1", Timestamp: 1000, Trader: "alice"})
	store.Insert(ctx, &domain.TradeRecord{TradeID: "t2", Timestamp: 2000, Trader: "bob"})
	store.Insert(ctx, &domain.TradeRecord{TradeID: "t3", Timestamp: 3000, Trader: "alice"})

	trades, err := store.GetByTrader(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByTrader failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades for alice, got %d", len(trades))
	}
	for _, tr := range trades {
		if tr.Trader != "alice" {
			t.Errorf("unexpected trader %s", tr.Trader)
		}
	}
}
