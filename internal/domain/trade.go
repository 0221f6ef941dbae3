package domain

// TradeDirection is the side of a trade from the wallet's point of view.
type TradeDirection string

// Trade direction constants.
const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

// TradeEvent is one observed transfer affecting a wallet's token balance.
// Events are built transiently from raw RPC data per PnL computation and
// are never persisted themselves; only the aggregated PnL is durable.
type TradeEvent struct {
	Wallet    string         // wallet address, opaque identifier
	Token     string         // token mint address
	Direction TradeDirection // buy = balance increase, sell = decrease
	Amount    float64        // absolute magnitude of the balance delta
	Timestamp int64          // Unix timestamp in milliseconds (blockTime * 1000)
}

// TradeRecord is a manually ingested trade row in the bulk trade table.
// The JSON tags define the websocket and broker wire format.
type TradeRecord struct {
	TradeID   string         `json:"tradeId"`
	Timestamp int64          `json:"timestamp"` // Unix timestamp in milliseconds
	Price     float64        `json:"price"`
	Volume    float64        `json:"volume"`
	Trader    string         `json:"trader"`
	Action    TradeDirection `json:"action"`
}

// Value is the USD value of the trade (price * volume).
func (t *TradeRecord) Value() float64 {
	return t.Price * t.Volume
}

// SignedValue applies the PnL sign convention: buys subtract, sells add.
func (t *TradeRecord) SignedValue() float64 {
	if t.Action == TradeBuy {
		return -t.Value()
	}
	return t.Value()
}
