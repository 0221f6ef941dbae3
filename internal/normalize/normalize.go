// Package normalize converts raw Solana transactions into trade events.
//
// Two input shapes are supported: full transactions carrying pre/post token
// balance snapshots, and enhanced transactions carrying an already-parsed
// transfer list. Both reduce to the same signed-delta rule: a wallet whose
// balance of a mint grew bought, a wallet whose balance shrank sold, and a
// zero delta produces no event.
package normalize

import (
	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/solana"
)

// Format names the transaction input shape.
type Format string

const (
	// FormatBalanceDiff derives trades from pre/post token balance snapshots.
	FormatBalanceDiff Format = "balance_diff"
	// FormatTransferList derives trades from parsed token transfer lists.
	FormatTransferList Format = "transfer_list"
)

// FromTransactions derives trade events from balance-diff transactions.
// Transactions without metadata or balance snapshots are skipped.
func FromTransactions(txs []*solana.Transaction) []domain.TradeEvent {
	var events []domain.TradeEvent
	for _, tx := range txs {
		if tx == nil || tx.Meta == nil {
			continue
		}
		events = append(events, fromBalanceDiff(tx)...)
	}
	return events
}

func fromBalanceDiff(tx *solana.Transaction) []domain.TradeEvent {
	var events []domain.TradeEvent
	for _, pre := range tx.Meta.PreTokenBalances {
		if pre.Owner == "" || pre.Mint == "" {
			continue
		}

		// A missing post entry means the account was closed or drained.
		post := 0.0
		for _, pb := range tx.Meta.PostTokenBalances {
			if pb.Owner == pre.Owner && pb.Mint == pre.Mint {
				post = pb.Amount
				break
			}
		}

		delta := post - pre.Amount
		if delta == 0 {
			continue
		}

		direction := domain.TradeSell
		amount := -delta
		if delta > 0 {
			direction = domain.TradeBuy
			amount = delta
		}

		events = append(events, domain.TradeEvent{
			Wallet:    pre.Owner,
			Token:     pre.Mint,
			Direction: direction,
			Amount:    amount,
			Timestamp: tx.BlockTime * 1000,
		})
	}
	return events
}

// FromEnhanced derives trade events from enhanced transactions. Each signed
// transfer maps directly: positive amounts are buys, negative are sells.
func FromEnhanced(txs []solana.EnhancedTransaction) []domain.TradeEvent {
	var events []domain.TradeEvent
	for _, tx := range txs {
		for _, tr := range tx.TokenTransfers {
			if tr.UserAccount == "" || tr.Mint == "" || tr.Amount == 0 {
				continue
			}

			direction := domain.TradeBuy
			amount := tr.Amount
			if tr.Amount < 0 {
				direction = domain.TradeSell
				amount = -tr.Amount
			}

			events = append(events, domain.TradeEvent{
				Wallet:    tr.UserAccount,
				Token:     tr.Mint,
				Direction: direction,
				Amount:    amount,
				Timestamp: tx.BlockTime * 1000,
			})
		}
	}
	return events
}

// FilterByWallet returns only the events attributed to the given wallet.
func FilterByWallet(events []domain.TradeEvent, wallet string) []domain.TradeEvent {
	var out []domain.TradeEvent
	for _, e := range events {
		if e.Wallet == wallet {
			out = append(out, e)
		}
	}
	return out
}
