// Package api exposes the GraphQL surface: leaderboard queries over the
// stored PnL aggregates and the bulk trade table, plus wallet follow
// mutations and manual trade ingestion.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/pnl"
	"solana-pnl-tracker/internal/solana"
	"solana-pnl-tracker/internal/storage"
)

// Resolver wires the GraphQL schema to the stores.
type Resolver struct {
	Board   storage.LeaderboardStore
	Trades  storage.TradeStore
	Follows storage.WalletFollowStore
	Logger  *log.Logger

	// NewTrade, when set, is invoked for every createTrade mutation after
	// the record is stored. The realtime hub uses it to broadcast.
	NewTrade func(*domain.TradeRecord)

	// Compute triggers an on-demand leaderboard recomputation cycle.
	// Wired to the tracker's guarded run.
	Compute func(context.Context) error
}

// NewSchema builds the executable GraphQL schema.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	if r.Logger == nil {
		r.Logger = log.New(os.Stdout, "[api] ", log.LstdFlags)
	}

	leaderboardEntryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LeaderboardEntry",
		Fields: graphql.Fields{
			"wallet":     &graphql.Field{Type: graphql.String},
			"pnlUsd":     &graphql.Field{Type: graphql.Float},
			"tradeCount": &graphql.Field{Type: graphql.Int},
			"updatedAt":  &graphql.Field{Type: graphql.Float},
		},
	})

	traderStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TraderStats",
		Fields: graphql.Fields{
			"trader": &graphql.Field{Type: graphql.String},
			"pnlUsd": &graphql.Field{Type: graphql.Float},
		},
	})

	traderPnLType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TraderPnL",
		Fields: graphql.Fields{
			"trader":      &graphql.Field{Type: graphql.String},
			"totalProfit": &graphql.Field{Type: graphql.Float},
			"totalLoss":   &graphql.Field{Type: graphql.Float},
			"netPnl":      &graphql.Field{Type: graphql.Float},
		},
	})

	tradeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Trade",
		Fields: graphql.Fields{
			"tradeId":   &graphql.Field{Type: graphql.String},
			"timestamp": &graphql.Field{Type: graphql.Float},
			"price":     &graphql.Field{Type: graphql.Float},
			"volume":    &graphql.Field{Type: graphql.Float},
			"trader":    &graphql.Field{Type: graphql.String},
			"action":    &graphql.Field{Type: graphql.String},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"getLeaderboard": &graphql.Field{
				Type:    graphql.NewList(leaderboardEntryType),
				Resolve: r.resolveLeaderboard,
			},
			"computeLeaderboard": &graphql.Field{
				Type:    graphql.String,
				Resolve: r.resolveComputeLeaderboard,
			},
			"getTopTradersByProfit": &graphql.Field{
				Type: graphql.NewList(traderStatsType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: pnl.DefaultProfitLimit},
				},
				Resolve: r.resolveTopByProfit,
			},
			"getTopLosingTraders": &graphql.Field{
				Type: graphql.NewList(traderStatsType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: pnl.DefaultLossLimit},
				},
				Resolve: r.resolveTopLosing,
			},
			"getTrades": &graphql.Field{
				Type:    graphql.NewList(tradeType),
				Resolve: r.resolveTrades,
			},
			"getTraderPnL": &graphql.Field{
				Type: traderPnLType,
				Args: graphql.FieldConfigArgument{
					"trader": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveTraderPnL,
			},
			"getTrackedWallets": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveTrackedWallets,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createTrade": &graphql.Field{
				Type: tradeType,
				Args: graphql.FieldConfigArgument{
					"price":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"volume": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"trader": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"action": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveCreateTrade,
			},
			"followWallet": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"userId":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveFollowWallet,
			},
			"unfollowWallet": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"userId":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.resolveUnfollowWallet,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// resolveLeaderboard returns the stored aggregates. Store failures degrade
// to an empty list so the API stays up when a backend is down.
func (r *Resolver) resolveLeaderboard(p graphql.ResolveParams) (interface{}, error) {
	entries, err := r.Board.ScanAll(p.Context)
	if err != nil {
		r.Logger.Printf("scan leaderboard: %v", err)
		return []map[string]interface{}{}, nil
	}

	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"wallet":     e.Wallet,
			"pnlUsd":     e.PnLUSD,
			"tradeCount": e.TradeCount,
			"updatedAt":  float64(e.UpdatedAt),
		})
	}
	return out, nil
}

// resolveComputeLeaderboard runs a full recomputation cycle and reports
// the outcome as a status message.
func (r *Resolver) resolveComputeLeaderboard(p graphql.ResolveParams) (interface{}, error) {
	if r.Compute == nil {
		return nil, fmt.Errorf("leaderboard recomputation is not configured")
	}
	if err := r.Compute(p.Context); err != nil {
		return nil, fmt.Errorf("compute leaderboard: %w", err)
	}
	return "Leaderboard updated!", nil
}

func (r *Resolver) resolveTopByProfit(p graphql.ResolveParams) (interface{}, error) {
	limit, _ := p.Args["limit"].(int)
	return r.computeStats(p, pnl.ViewProfit, limit)
}

func (r *Resolver) resolveTopLosing(p graphql.ResolveParams) (interface{}, error) {
	limit, _ := p.Args["limit"].(int)
	return r.computeStats(p, pnl.ViewLoss, limit)
}

func (r *Resolver) computeStats(p graphql.ResolveParams, view pnl.View, limit int) (interface{}, error) {
	trades, err := r.Trades.GetAll(p.Context)
	if err != nil {
		r.Logger.Printf("load trades: %v", err)
		return []map[string]interface{}{}, nil
	}

	stats := pnl.ComputeLeaderboard(trades, view, limit)
	out := make([]map[string]interface{}, 0, len(stats))
	for _, s := range stats {
		out = append(out, map[string]interface{}{
			"trader": s.Trader,
			"pnlUsd": s.PnLUSD,
		})
	}
	return out, nil
}

func (r *Resolver) resolveTrades(p graphql.ResolveParams) (interface{}, error) {
	trades, err := r.Trades.GetAll(p.Context)
	if err != nil {
		r.Logger.Printf("load trades: %v", err)
		return []map[string]interface{}{}, nil
	}

	out := make([]map[string]interface{}, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeToMap(t))
	}
	return out, nil
}

func (r *Resolver) resolveTraderPnL(p graphql.ResolveParams) (interface{}, error) {
	trader, _ := p.Args["trader"].(string)

	trades, err := r.Trades.GetByTrader(p.Context, trader)
	if err != nil {
		r.Logger.Printf("load trades for %s: %v", trader, err)
		trades = nil
	}

	b := pnl.Breakdown(trades, trader)
	return map[string]interface{}{
		"trader":      b.Trader,
		"totalProfit": b.TotalProfit,
		"totalLoss":   b.TotalLoss,
		"netPnl":      b.TotalProfit - b.TotalLoss,
	}, nil
}

func (r *Resolver) resolveTrackedWallets(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := p.Args["userId"].(string)

	wallets, err := r.Follows.TrackedWallets(p.Context, userID)
	if err != nil {
		r.Logger.Printf("tracked wallets for %s: %v", userID, err)
		return []string{}, nil
	}
	return wallets, nil
}

func (r *Resolver) resolveCreateTrade(p graphql.ResolveParams) (interface{}, error) {
	price, _ := p.Args["price"].(float64)
	volume, _ := p.Args["volume"].(float64)
	trader, _ := p.Args["trader"].(string)
	action, _ := p.Args["action"].(string)

	direction := domain.TradeDirection(action)
	if direction != domain.TradeBuy && direction != domain.TradeSell {
		return nil, fmt.Errorf("invalid action %q", action)
	}
	if trader == "" {
		return nil, fmt.Errorf("trader is required")
	}

	trade := &domain.TradeRecord{
		TradeID:   uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Price:     price,
		Volume:    volume,
		Trader:    trader,
		Action:    direction,
	}

	if err := r.Trades.Insert(p.Context, trade); err != nil {
		return nil, fmt.Errorf("store trade: %w", err)
	}

	if r.NewTrade != nil {
		r.NewTrade(trade)
	}

	return tradeToMap(trade), nil
}

func (r *Resolver) resolveFollowWallet(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := p.Args["userId"].(string)
	address, _ := p.Args["address"].(string)

	if !solana.IsValidAddress(address) {
		return nil, fmt.Errorf("invalid wallet address %q", address)
	}

	err := r.Follows.Follow(p.Context, &domain.WalletFollow{UserID: userID, Address: address})
	if err != nil {
		return nil, fmt.Errorf("follow wallet: %w", err)
	}
	return true, nil
}

func (r *Resolver) resolveUnfollowWallet(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := p.Args["userId"].(string)
	address, _ := p.Args["address"].(string)

	err := r.Follows.Unfollow(p.Context, userID, address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return nil, fmt.Errorf("unfollow wallet: %w", err)
	}
	return true, nil
}

func tradeToMap(t *domain.TradeRecord) map[string]interface{} {
	return map[string]interface{}{
		"tradeId":   t.TradeID,
		"timestamp": float64(t.Timestamp),
		"price":     t.Price,
		"volume":    t.Volume,
		"trader":    t.Trader,
		"action":    string(t.Action),
	}
}
