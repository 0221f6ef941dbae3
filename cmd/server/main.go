// Package main runs the full wallet PnL service:
// - Tracker (scheduled): wallet discovery, transaction fetch, PnL aggregation
// - GraphQL API: leaderboard, trade table, wallet follows
// - Realtime: websocket trade ingestion with Kafka/SNS fan-out
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/graphql-go/graphql"

	"solana-pnl-tracker/internal/api"
	"solana-pnl-tracker/internal/config"
	"solana-pnl-tracker/internal/normalize"
	"solana-pnl-tracker/internal/observability"
	"solana-pnl-tracker/internal/pnl"
	"solana-pnl-tracker/internal/pricing"
	"solana-pnl-tracker/internal/realtime"
	"solana-pnl-tracker/internal/solana"
	"solana-pnl-tracker/internal/storage"
	chstore "solana-pnl-tracker/internal/storage/clickhouse"
	"solana-pnl-tracker/internal/storage/dynamo"
	"solana-pnl-tracker/internal/storage/memory"
	"solana-pnl-tracker/internal/storage/migrations"
	pgstore "solana-pnl-tracker/internal/storage/postgres"
	"solana-pnl-tracker/internal/tracker"
)

// allStores holds the storage implementations selected at startup.
type allStores struct {
	board   storage.LeaderboardStore
	trades  storage.TradeStore
	follows storage.WalletFollowStore
	archive storage.TradeEventArchive // nil when no ClickHouse is configured
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Flags override environment values.
	addr := flag.String("addr", cfg.ServerAddr, "HTTP listen address")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address")
	rpcEndpoint := flag.String("rpc-endpoint", cfg.RPCEndpoint, "Solana RPC HTTP endpoint")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string for the trade event archive")
	useMemory := flag.Bool("use-memory", cfg.UseMemory, "Use in-memory storage instead of external databases")
	interval := flag.Duration("interval", cfg.UpdateInterval, "Leaderboard recomputation interval")
	trackMint := flag.String("track-mint", cfg.TrackMint, "Mint whose largest holders seed the tracked wallet set")
	wallets := flag.String("wallets", strings.Join(cfg.Wallets, ","), "Comma-separated wallets to track")
	format := flag.String("format", cfg.Format, "Transaction input shape (balance_diff or transfer_list)")
	workers := flag.Int("workers", cfg.Workers, "Concurrent wallet workers")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Table names and topic ARNs come from SSM when a prefix is
	// configured, otherwise straight from the environment.
	var params config.ParameterSource = config.EnvSource{}
	if cfg.SSMPrefix != "" {
		src, err := config.NewSSMSource(cfg.AWSRegion)
		if err != nil {
			logger.Fatalf("create ssm parameter source: %v", err)
		}
		params = src
	}
	if err := cfg.ResolveParameters(ctx, params); err != nil {
		logger.Fatalf("resolve parameters: %v", err)
	}

	if !*useMemory && *postgresDSN == "" && cfg.DynamoLeaderboard == "" {
		logger.Fatal("--postgres-dsn or DynamoDB tables are required (use --use-memory for in-memory storage)")
	}

	metrics := observability.NewMetrics("")

	stores, cleanup, err := createStores(ctx, cfg, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	resolver := buildPriceResolver(cfg, metrics)
	aggregator := pnl.NewAggregator(resolver)
	rpc := solana.NewHTTPClient(*rpcEndpoint)

	source := buildWalletSource(rpc, stores, *trackMint, splitList(*wallets), cfg.SeedWallets)

	trk, err := tracker.New(tracker.Options{
		Client:     rpc,
		Aggregator: aggregator,
		Board:      stores.board,
		Source:     source,
		Archive:    stores.archive,
		Format:     normalize.Format(*format),
		Workers:    *workers,
		Logger:     log.New(os.Stdout, "[tracker] ", log.LstdFlags),
		Metrics:    metrics,
	})
	if err != nil {
		logger.Fatalf("create tracker: %v", err)
	}

	publishers, err := buildPublishers(cfg, logger)
	if err != nil {
		logger.Fatalf("create publishers: %v", err)
	}

	// The hub owns the publishers and closes them with its clients.
	hub := realtime.NewHub(realtime.Options{
		Trades:     stores.trades,
		Publishers: publishers,
		Logger:     log.New(os.Stdout, "[realtime] ", log.LstdFlags),
		Metrics:    metrics,
	})
	defer hub.Close()

	schema, err := api.NewSchema(&api.Resolver{
		Board:    stores.board,
		Trades:   stores.trades,
		Follows:  stores.follows,
		Logger:   log.New(os.Stdout, "[api] ", log.LstdFlags),
		NewTrade: hub.Broadcast,
		Compute: func(ctx context.Context) error {
			err := trk.TriggerRun(ctx)
			if errors.Is(err, tracker.ErrRunInProgress) {
				// An in-flight cycle already satisfies the request.
				return nil
			}
			return err
		},
	})
	if err != nil {
		logger.Fatalf("build schema: %v", err)
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go startMetricsServer(*metricsAddr, logger)
	go startHTTPServer(ctx, *addr, schema, metrics, hub, trk, logger)

	logger.Printf("Recomputing leaderboard every %v", *interval)
	err = trk.RunScheduled(ctx, *interval)
	done <- err

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Tracker error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores selects the storage backend. Priority order: in-memory,
// DynamoDB when tables are configured, PostgreSQL otherwise. The
// ClickHouse archive is attached in any mode when a DSN is set.
func createStores(ctx context.Context, cfg *config.Config, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	stores := &allStores{}
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch {
	case useMemory:
		stores.board = memory.NewLeaderboardStore()
		stores.trades = memory.NewTradeStore()
		stores.follows = memory.NewWalletFollowStore()
		stores.archive = memory.NewTradeEventArchive()

	case cfg.DynamoLeaderboard != "":
		client, err := dynamo.NewClient(cfg.AWSRegion)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to dynamodb: %w", err)
		}
		stores.board = dynamo.NewLeaderboardStore(client, cfg.DynamoLeaderboard)
		if cfg.DynamoTrades == "" {
			return nil, nil, fmt.Errorf("DYNAMO_TRADES_TABLE is required with DYNAMO_LEADERBOARD_TABLE")
		}
		stores.trades = dynamo.NewTradeStore(client, cfg.DynamoTrades)
		stores.follows = memory.NewWalletFollowStore()

	default:
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		stores.board = pgstore.NewLeaderboardStore(pool)
		stores.trades = pgstore.NewTradeStore(pool)
		stores.follows = pgstore.NewWalletFollowStore(pool)
	}

	if clickhouseDSN != "" && !useMemory {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })
		stores.archive = chstore.NewTradeEventArchive(conn)
	}

	return stores, cleanup, nil
}

// buildPriceResolver wires CoinGecko as the primary batch source with
// Jupiter as per-token fallback, cached in Redis when configured.
func buildPriceResolver(cfg *config.Config, metrics *observability.Metrics) *pricing.Resolver {
	var cache pricing.Cache
	if cfg.RedisAddr != "" {
		cache = pricing.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, pricing.DefaultCacheWindow)
	} else {
		cache = pricing.NewMemoryCache()
	}

	primary := pricing.NewCoinGeckoClient(cfg.CoinGeckoURL)
	fallback := pricing.NewJupiterClient(cfg.JupiterURL)

	return pricing.NewResolver(primary, fallback, cache,
		pricing.WithObserver(metrics),
		pricing.WithResolverLogger(log.New(os.Stdout, "[pricing] ", log.LstdFlags)),
	)
}

// buildWalletSource combines explicit wallets, top holders of the
// configured mint and wallets followed through the API, with an
// optional seed list for deployments that start empty.
func buildWalletSource(rpc solana.RPCClient, stores *allStores, trackMint string, wallets, seed []string) tracker.WalletSource {
	combined := tracker.CombinedWallets{
		tracker.NewFollowedWallets(stores.follows),
	}
	if len(wallets) > 0 {
		combined = append(combined, tracker.StaticWallets(wallets))
	}
	if trackMint != "" {
		combined = append(combined, tracker.NewTopHolders(rpc, trackMint))
	}
	if len(seed) > 0 {
		return tracker.FallbackWallets{Primary: combined, Seed: seed}
	}
	return combined
}

// buildPublishers creates the optional Kafka and SNS trade publishers.
// The hub takes ownership and closes them on shutdown.
func buildPublishers(cfg *config.Config, logger *log.Logger) ([]realtime.Publisher, error) {
	var pubs []realtime.Publisher

	if len(cfg.KafkaBrokers) > 0 {
		kp, err := realtime.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		logger.Printf("Publishing trades to Kafka topic %q", cfg.KafkaTopic)
		pubs = append(pubs, kp)
	}

	if cfg.SNSTopicARN != "" {
		sn, err := realtime.NewSNSNotifier(cfg.AWSRegion, cfg.SNSTopicARN)
		if err != nil {
			return nil, err
		}
		logger.Printf("Publishing trades to SNS topic %s", cfg.SNSTopicARN)
		pubs = append(pubs, sn)
	}

	return pubs, nil
}

// startHTTPServer serves the GraphQL API, the websocket hub and the
// health endpoint, shutting down when ctx is cancelled.
func startHTTPServer(ctx context.Context, addr string, schema graphql.Schema, metrics *observability.Metrics, hub *realtime.Hub, trk *tracker.Tracker, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/graphql", api.NewHandler(schema, metrics))
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		lastRun, runs, running := trk.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"lastRun": lastRun.Format(time.RFC3339),
			"runs":    runs,
			"running": running,
			"wsPeers": hub.ClientCount(),
		})
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("Serving GraphQL on %s/graphql, websocket on %s/ws", addr, addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("HTTP server error: %v", err)
	}
}

// startMetricsServer exposes Prometheus metrics on a separate address.
func startMetricsServer(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	logger.Printf("Serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("Metrics server error: %v", err)
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
