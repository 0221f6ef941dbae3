package domain

// LeaderboardEntry is the durable per-wallet PnL aggregate.
// At most one entry exists per wallet; updates are last-write-wins.
type LeaderboardEntry struct {
	Wallet     string  // primary key
	PnLUSD     float64 // realized PnL, signed
	TradeCount int     // trades observed in the last computation
	UpdatedAt  int64   // Unix timestamp in milliseconds of last update
}

// TraderStats is one row of the bulk-trade-table leaderboard view.
type TraderStats struct {
	Trader string
	PnLUSD float64 // signed aggregate under the buy-subtracts convention
}

// TraderBreakdown is the per-trader profit/loss split.
// TotalProfit is gross sell proceeds, TotalLoss is gross buy spend;
// net PnL equals TotalProfit - TotalLoss.
type TraderBreakdown struct {
	Trader      string
	TotalProfit float64
	TotalLoss   float64
}

// WalletFollow records that a user tracks a wallet.
type WalletFollow struct {
	UserID  string
	Address string
}
