package pnl

import (
	"context"
	"testing"

	"solana-pnl-tracker/internal/domain"
)

type fakeResolver struct {
	calls  int
	asked  [][]string
	prices map[string]float64
}

func (f *fakeResolver) ResolveAll(_ context.Context, tokens []string) map[string]float64 {
	f.calls++
	f.asked = append(f.asked, tokens)
	out := make(map[string]float64)
	for _, t := range tokens {
		out[t] = f.prices[t]
	}
	return out
}

func TestComputePnLEmptySkipsLookups(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]float64{}}
	agg := NewAggregator(resolver)

	if got := agg.ComputePnL(context.Background(), nil); got != 0 {
		t.Errorf("expected 0 for empty events, got %v", got)
	}
	if resolver.calls != 0 {
		t.Errorf("expected no price lookups, got %d", resolver.calls)
	}
}

func TestComputePnLSignConvention(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]float64{"mintA": 2.0}}
	agg := NewAggregator(resolver)

	events := []domain.TradeEvent{
		{Wallet: "w", Token: "mintA", Direction: domain.TradeBuy, Amount: 10},
		{Wallet: "w", Token: "mintA", Direction: domain.TradeSell, Amount: 15},
	}

	got := agg.ComputePnL(context.Background(), events)
	if got != 10.0 {
		// -10*2 + 15*2
		t.Errorf("expected PnL 10, got %v", got)
	}
}

func TestComputePnLDedupesTokens(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]float64{"mintA": 1.0, "mintB": 3.0}}
	agg := NewAggregator(resolver)

	events := []domain.TradeEvent{
		{Token: "mintA", Direction: domain.TradeSell, Amount: 1},
		{Token: "mintA", Direction: domain.TradeSell, Amount: 1},
		{Token: "mintB", Direction: domain.TradeSell, Amount: 1},
	}

	agg.ComputePnL(context.Background(), events)
	if resolver.calls != 1 {
		t.Fatalf("expected 1 resolver call, got %d", resolver.calls)
	}
	if len(resolver.asked[0]) != 2 {
		t.Errorf("expected 2 distinct tokens requested, got %v", resolver.asked[0])
	}
}

func TestComputePnLUnknownTokenCountsZero(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]float64{"known": 5.0}}
	agg := NewAggregator(resolver)

	events := []domain.TradeEvent{
		{Token: "known", Direction: domain.TradeSell, Amount: 2},
		{Token: "unknown", Direction: domain.TradeSell, Amount: 100},
	}

	if got := agg.ComputePnL(context.Background(), events); got != 10.0 {
		t.Errorf("expected unknown token valued at 0, got PnL %v", got)
	}
}

func leaderboardFixture() []*domain.TradeRecord {
	return []*domain.TradeRecord{
		{TradeID: "1", Trader: "alice", Action: domain.TradeBuy, Price: 2, Volume: 5},  // -10
		{TradeID: "2", Trader: "alice", Action: domain.TradeSell, Price: 4, Volume: 5}, // +20, alice = +10
		{TradeID: "3", Trader: "bob", Action: domain.TradeSell, Price: 1, Volume: 5},   // bob = +5
		{TradeID: "4", Trader: "carol", Action: domain.TradeBuy, Price: 3, Volume: 1},  // carol = -3
		{TradeID: "5", Trader: "dave", Action: domain.TradeBuy, Price: 1, Volume: 2},   // -2
		{TradeID: "6", Trader: "dave", Action: domain.TradeSell, Price: 1, Volume: 2},  // dave = 0
	}
}

func TestComputeLeaderboardProfitView(t *testing.T) {
	stats := ComputeLeaderboard(leaderboardFixture(), ViewProfit, 0)
	if len(stats) != 2 {
		t.Fatalf("expected 2 profitable traders, got %d", len(stats))
	}
	if stats[0].Trader != "alice" || stats[0].PnLUSD != 10 {
		t.Errorf("unexpected top trader: %+v", stats[0])
	}
	if stats[1].Trader != "bob" || stats[1].PnLUSD != 5 {
		t.Errorf("unexpected second trader: %+v", stats[1])
	}
}

func TestComputeLeaderboardLossView(t *testing.T) {
	stats := ComputeLeaderboard(leaderboardFixture(), ViewLoss, 0)
	if len(stats) != 1 {
		t.Fatalf("expected 1 losing trader, got %d", len(stats))
	}
	if stats[0].Trader != "carol" || stats[0].PnLUSD != -3 {
		t.Errorf("unexpected losing trader: %+v", stats[0])
	}
}

func TestComputeLeaderboardLimit(t *testing.T) {
	stats := ComputeLeaderboard(leaderboardFixture(), ViewProfit, 1)
	if len(stats) != 1 {
		t.Fatalf("expected limit 1, got %d entries", len(stats))
	}
	if stats[0].Trader != "alice" {
		t.Errorf("expected alice first, got %s", stats[0].Trader)
	}
}

func TestComputeLeaderboardIdempotent(t *testing.T) {
	trades := leaderboardFixture()
	first := ComputeLeaderboard(trades, ViewProfit, 0)
	second := ComputeLeaderboard(trades, ViewProfit, 0)

	if len(first) != len(second) {
		t.Fatalf("result length changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d changed: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestBreakdown(t *testing.T) {
	b := Breakdown(leaderboardFixture(), "alice")
	if b.TotalProfit != 20 {
		t.Errorf("expected profit 20, got %v", b.TotalProfit)
	}
	if b.TotalLoss != 10 {
		t.Errorf("expected loss 10, got %v", b.TotalLoss)
	}
	if net := b.TotalProfit - b.TotalLoss; net != 10 {
		t.Errorf("expected net 10, got %v", net)
	}
}
