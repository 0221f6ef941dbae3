package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/storage"
)

// fakeDynamoDB backs PutItem/GetItem/Scan with an in-memory map keyed by
// the given hash attribute. Only the methods the stores use are implemented.
type fakeDynamoDB struct {
	dynamodbiface.DynamoDBAPI
	hashKey string
	items   map[string]map[string]*dynamodb.AttributeValue
}

func newFakeDynamoDB(hashKey string) *fakeDynamoDB {
	return &fakeDynamoDB{
		hashKey: hashKey,
		items:   make(map[string]map[string]*dynamodb.AttributeValue),
	}
}

func (f *fakeDynamoDB) PutItemWithContext(_ aws.Context, input *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	key := *input.Item[f.hashKey].S
	if input.ConditionExpression != nil {
		if _, exists := f.items[key]; exists {
			return nil, awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "conditional check failed", nil)
		}
	}
	f.items[key] = input.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) GetItemWithContext(_ aws.Context, input *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	key := *input.Key[f.hashKey].S
	item, exists := f.items[key]
	if !exists {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamoDB) ScanPagesWithContext(_ aws.Context, input *dynamodb.ScanInput, fn func(*dynamodb.ScanOutput, bool) bool, _ ...request.Option) error {
	var items []map[string]*dynamodb.AttributeValue
	for _, item := range f.items {
		if input.FilterExpression != nil {
			trader := input.ExpressionAttributeValues[":trader"]
			if v := item["Trader"]; v == nil || v.S == nil || *v.S != *trader.S {
				continue
			}
		}
		items = append(items, item)
	}
	fn(&dynamodb.ScanOutput{Items: items}, true)
	return nil
}

func TestDynamoLeaderboardStore_PutGetScan(t *testing.T) {
	fake := newFakeDynamoDB("Wallet")
	store := NewLeaderboardStore(&Client{API: fake}, "leaderboard")
	ctx := context.Background()

	entries := []*domain.LeaderboardEntry{
		{Wallet: "walletA", PnLUSD: 12.5, TradeCount: 2, UpdatedAt: 1000},
		{Wallet: "walletB", PnLUSD: 40, TradeCount: 1, UpdatedAt: 1000},
	}
	for _, e := range entries {
		if err := store.Put(ctx, e); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := store.Get(ctx, "walletA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PnLUSD != 12.5 || got.TradeCount != 2 {
		t.Errorf("entry mismatch: %+v", got)
	}

	all, err := store.ScanAll(ctx)
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	if len(all) != 2 || all[0].Wallet != "walletB" {
		t.Errorf("expected walletB first by PnL, got %+v", all)
	}
}

func TestDynamoLeaderboardStore_Upsert(t *testing.T) {
	fake := newFakeDynamoDB("Wallet")
	store := NewLeaderboardStore(&Client{API: fake}, "leaderboard")
	ctx := context.Background()

	store.Put(ctx, &domain.LeaderboardEntry{Wallet: "walletA", PnLUSD: 10})
	store.Put(ctx, &domain.LeaderboardEntry{Wallet: "walletA", PnLUSD: -2})

	got, err := store.Get(ctx, "walletA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PnLUSD != -2 {
		t.Errorf("expected last write to win, got %v", got.PnLUSD)
	}
}

func TestDynamoLeaderboardStore_GetNotFound(t *testing.T) {
	store := NewLeaderboardStore(&Client{API: newFakeDynamoDB("Wallet")}, "leaderboard")

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDynamoTradeStore_InsertAndGet(t *testing.T) {
	fake := newFakeDynamoDB("TradeID")
	store := NewTradeStore(&Client{API: fake}, "trades")
	ctx := context.Background()

	trade := &domain.TradeRecord{
		TradeID:   "t1",
		Timestamp: 1000,
		Price:     2.5,
		Volume:    4,
		Trader:    "alice",
		Action:    domain.TradeBuy,
	}
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Price != 2.5 || got.Action != domain.TradeBuy {
		t.Errorf("trade mismatch: %+v", got)
	}
}

func TestDynamoTradeStore_DuplicateKey(t *testing.T) {
	fake := newFakeDynamoDB("TradeID")
	store := NewTradeStore(&Client{API: fake}, "trades")
	ctx := context.Background()

	trade := &domain.TradeRecord{TradeID: "t1", Trader: "alice"}
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestDynamoTradeStore_GetByTrader(t *testing.T) {
	fake := newFakeDynamoDB("TradeID")
	store := NewTradeStore(&Client{API: fake}, "trades")
	ctx := context.Background()

	store.Insert(ctx, &domain.TradeRecord{TradeID: "t1", Timestamp: 2000, Trader: "alice"})
	store.Insert(ctx, &domain.TradeRecord{TradeID: "t2", Timestamp: 1000, Trader: "alice"})
	store.Insert(ctx, &domain.TradeRecord{TradeID: "t3", Timestamp: 1500, Trader: "bob"})

	trades, err := store.GetByTrader(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByTrader failed: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].TradeID != "t2" || trades[1].TradeID != "t1" {
		t.Errorf("expected timestamp ascending order, got %v %v", trades[0].TradeID, trades[1].TradeID)
	}
}
