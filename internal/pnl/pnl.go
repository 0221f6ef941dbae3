// Package pnl aggregates trade events and trade records into realized
// profit-and-loss figures under the buy-subtracts, sell-adds convention.
package pnl

import (
	"context"
	"sort"

	"solana-pnl-tracker/internal/domain"
)

// PriceResolver supplies current USD prices for token mints. Tokens without
// a known price map to 0 so one unknown token never aborts an aggregation.
type PriceResolver interface {
	ResolveAll(ctx context.Context, tokens []string) map[string]float64
}

// Aggregator computes PnL for trade events using a price resolver.
type Aggregator struct {
	prices PriceResolver
}

// NewAggregator creates an event aggregator.
func NewAggregator(prices PriceResolver) *Aggregator {
	return &Aggregator{prices: prices}
}

// ComputePnL sums the USD value of trade events: buys subtract price*amount,
// sells add it. An empty event list yields 0 without any price lookups.
func (a *Aggregator) ComputePnL(ctx context.Context, events []domain.TradeEvent) float64 {
	if len(events) == 0 {
		return 0
	}

	seen := make(map[string]struct{})
	var tokens []string
	for _, e := range events {
		if _, ok := seen[e.Token]; ok {
			continue
		}
		seen[e.Token] = struct{}{}
		tokens = append(tokens, e.Token)
	}

	prices := a.prices.ResolveAll(ctx, tokens)

	var total float64
	for _, e := range events {
		value := prices[e.Token] * e.Amount
		if e.Direction == domain.TradeBuy {
			total -= value
		} else {
			total += value
		}
	}
	return total
}

// View selects which side of the leaderboard to return.
type View string

// Leaderboard views.
const (
	ViewProfit View = "profit"
	ViewLoss   View = "loss"
)

// Default result limits per view.
const (
	DefaultProfitLimit = 10
	DefaultLossLimit   = 5
)

// ComputeLeaderboard groups trade records by trader, sums their signed
// values, and returns the requested view: profitable traders sorted by
// PnL descending, or losing traders sorted ascending (worst first).
// A non-positive limit falls back to the view default.
func ComputeLeaderboard(trades []*domain.TradeRecord, view View, limit int) []domain.TraderStats {
	totals := make(map[string]float64)
	var order []string
	for _, tr := range trades {
		if tr == nil || tr.Trader == "" {
			continue
		}
		if _, ok := totals[tr.Trader]; !ok {
			order = append(order, tr.Trader)
		}
		totals[tr.Trader] += tr.SignedValue()
	}

	stats := make([]domain.TraderStats, 0, len(order))
	for _, trader := range order {
		pnl := totals[trader]
		switch view {
		case ViewLoss:
			if pnl >= 0 {
				continue
			}
		default:
			if pnl <= 0 {
				continue
			}
		}
		stats = append(stats, domain.TraderStats{Trader: trader, PnLUSD: pnl})
	}

	if view == ViewLoss {
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].PnLUSD < stats[j].PnLUSD
		})
		if limit <= 0 {
			limit = DefaultLossLimit
		}
	} else {
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].PnLUSD > stats[j].PnLUSD
		})
		if limit <= 0 {
			limit = DefaultProfitLimit
		}
	}

	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// Breakdown splits one trader's records into gross profit (sell proceeds)
// and gross loss (buy spend).
func Breakdown(trades []*domain.TradeRecord, trader string) domain.TraderBreakdown {
	b := domain.TraderBreakdown{Trader: trader}
	for _, tr := range trades {
		if tr == nil || tr.Trader != trader {
			continue
		}
		if tr.Action == domain.TradeBuy {
			b.TotalLoss += tr.Value()
		} else {
			b.TotalProfit += tr.Value()
		}
	}
	return b
}
