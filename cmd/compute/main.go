// Package main provides a one-shot leaderboard computation: fetch
// transactions for the given wallets, compute PnL and print the ranked
// result without persisting anything.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"solana-pnl-tracker/internal/normalize"
	"solana-pnl-tracker/internal/pnl"
	"solana-pnl-tracker/internal/pricing"
	"solana-pnl-tracker/internal/solana"
	"solana-pnl-tracker/internal/storage/memory"
	"solana-pnl-tracker/internal/tracker"
)

func main() {
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wallets := flag.String("wallets", os.Getenv("TRACK_WALLETS"), "Comma-separated wallets to rank")
	trackMint := flag.String("track-mint", os.Getenv("TRACK_MINT"), "Mint whose largest holders are ranked")
	format := flag.String("format", "balance_diff", "Transaction input shape (balance_diff or transfer_list)")
	sigLimit := flag.Int("signature-limit", tracker.DefaultSignatureLimit, "Signatures fetched per wallet")
	flag.Parse()

	logger := log.New(os.Stderr, "[compute] ", log.LstdFlags)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *wallets == "" && *trackMint == "" {
		logger.Fatal("--wallets or --track-mint is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
		cancel()
	}()

	rpc := solana.NewHTTPClient(*rpcEndpoint)

	resolver := pricing.NewResolver(
		pricing.NewCoinGeckoClient(os.Getenv("COINGECKO_URL")),
		pricing.NewJupiterClient(os.Getenv("JUPITER_URL")),
		pricing.NewMemoryCache(),
	)

	var source tracker.CombinedWallets
	if list := splitList(*wallets); len(list) > 0 {
		source = append(source, tracker.StaticWallets(list))
	}
	if *trackMint != "" {
		source = append(source, tracker.NewTopHolders(rpc, *trackMint))
	}

	board := memory.NewLeaderboardStore()
	trk, err := tracker.New(tracker.Options{
		Client:         rpc,
		Aggregator:     pnl.NewAggregator(resolver),
		Board:          board,
		Source:         source,
		Format:         normalize.Format(*format),
		SignatureLimit: *sigLimit,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatalf("create tracker: %v", err)
	}

	if err := trk.RunOnce(ctx); err != nil {
		logger.Fatalf("compute leaderboard: %v", err)
	}

	entries, err := board.ScanAll(ctx)
	if err != nil {
		logger.Fatalf("read leaderboard: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No tracked wallets produced any trades.")
		return
	}

	fmt.Printf("%-4s %-44s %14s %8s\n", "#", "WALLET", "PNL_USD", "TRADES")
	for i, e := range entries {
		fmt.Printf("%-4d %-44s %14.2f %8d\n", i+1, e.Wallet, e.PnLUSD, e.TradeCount)
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
